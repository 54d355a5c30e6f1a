package handler

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/pkg/response"
	"MiniSocial/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
	convFinder  service.ParticipantFinder
	pusher      service.ChatPusher
}

func NewChatHandler(chatService service.ChatService, convFinder service.ParticipantFinder, pusher service.ChatPusher) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		convFinder:  convFinder,
		pusher:      pusher,
	}
}

// SendMessage 发送消息接口 (WS 指令的 REST 等价形式)
func (s *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	// 从 Context 中获取中间件解析出的当前用户 ID
	senderID := c.GetString("user_id")

	res, err := s.chatService.SendMessage(c, senderID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 落库成功后才扇出
	if participants, err := s.convFinder.GetParticipantIDs(c, res.ConversationID); err == nil {
		s.pusher.PushMessage(res, participants)
	}

	response.Success(c, res)
}

// DeleteMessage 删除消息接口
func (s *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("message_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	requesterID := c.GetString("user_id")

	event, err := s.chatService.DeleteMessage(c, requesterID, messageID)
	if err != nil {
		response.Error(c, err)
		return
	}

	s.pusher.PushDeletion(event)
	response.Success(c, nil)
}

// MarkAsRead 标记已读接口
func (s *ChatHandler) MarkAsRead(c *gin.Context) {
	var req dto.MarkReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetString("user_id")

	if err := s.chatService.MarkAsRead(c, userID, req.ConversationID, req.MessageID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// GetConversationList 获取会话列表
func (s *ChatHandler) GetConversationList(c *gin.Context) {
	userID := c.GetString("user_id")
	cursor := c.Query("cursor")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "15"))

	res, err := s.chatService.GetConversationList(c, userID, cursor, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetMessageList 获取历史消息
func (s *ChatHandler) GetMessageList(c *gin.Context) {
	convID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	cursorID, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	userID := c.GetString("user_id")

	res, err := s.chatService.GetMessageList(c, userID, convID, cursorID, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
