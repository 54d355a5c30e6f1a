package handler

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/response"
	"MiniSocial/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachService service.AttachmentService
	chatService   service.ChatService
	convFinder    service.ParticipantFinder
}

func NewAttachmentHandler(attachService service.AttachmentService, chatService service.ChatService,
	convFinder service.ParticipantFinder) *AttachmentHandler {
	return &AttachmentHandler{
		attachService: attachService,
		chatService:   chatService,
		convFinder:    convFinder,
	}
}

// Upload 附件上传：先归属到会话再入对象存储，返回的描述符随后随消息提交
func (s *AttachmentHandler) Upload(c *gin.Context) {
	userID := c.GetString("user_id")

	convID, err := s.resolveConversation(c, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if len(files) > consts.MaxAttachmentsPerMessage {
		response.Error(c, service.ErrTooManyAttachments)
		return
	}

	descriptors := make([]*dto.AttachmentReq, 0, len(files))
	for _, file := range files {
		d, err := s.attachService.Upload(c.Request.Context(), convID, file)
		if err != nil {
			response.Error(c, err)
			return
		}
		descriptors = append(descriptors, d)
	}

	response.Success(c, gin.H{
		"conversationId": convID,
		"attachments":    descriptors,
	})
}

// resolveConversation 按表单中的 conversation_id 或 recipient_id 归属会话
func (s *AttachmentHandler) resolveConversation(c *gin.Context, userID string) (uint64, error) {
	if v := c.PostForm("conversation_id"); v != "" {
		convID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, service.ErrParamInvalid
		}
		participants, err := s.convFinder.GetParticipantIDs(c.Request.Context(), convID)
		if err != nil {
			return 0, err
		}
		for _, p := range participants {
			if p == userID {
				return convID, nil
			}
		}
		return 0, service.ErrNotParticipant
	}

	if recipientID := c.PostForm("recipient_id"); recipientID != "" {
		conv, err := s.chatService.GetOrCreateConversation(c.Request.Context(), userID, recipientID)
		if err != nil {
			return 0, err
		}
		return conv.ID, nil
	}

	return 0, service.ErrRecipientRequired
}
