package service

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/model"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/repository"
	"context"
	"errors"
	"strconv"

	log "log/slog"

	"gorm.io/gorm"
)

// AdminService 管理端运营接口：会话巡查与物理删除
type AdminService interface {
	ListConversations(ctx context.Context, cursor string, size int) (*dto.PageResult[*model.Conversation], error)
	DeleteConversation(ctx context.Context, convID uint64) error
	DeleteMessage(ctx context.Context, messageID uint64) error
}

type adminServiceImpl struct {
	convRepo      repository.ConversationRepo
	msgRepo       repository.MessageRepo
	attachService AttachmentService
}

func NewAdminService(convRepo repository.ConversationRepo, msgRepo repository.MessageRepo,
	attachService AttachmentService) AdminService {
	return &adminServiceImpl{
		convRepo:      convRepo,
		msgRepo:       msgRepo,
		attachService: attachService,
	}
}

func (s *adminServiceImpl) ListConversations(ctx context.Context, cursor string, size int) (*dto.PageResult[*model.Conversation], error) {
	if size <= 0 {
		size = consts.DefaultConversationPageSize
	}
	if size > consts.MaxConversationPageSize {
		size = consts.MaxConversationPageSize
	}

	var cursorID uint64
	if cursor != "" {
		id, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, ErrParamInvalid
		}
		cursorID = id
	}

	convs, err := s.convRepo.ListAll(ctx, cursorID, size+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(convs) > size
	if hasMore {
		convs = convs[:size]
	}

	result := &dto.PageResult[*model.Conversation]{List: convs, HasMore: hasMore}
	if hasMore && len(convs) > 0 {
		result.NextCursor = strconv.FormatUint(convs[len(convs)-1].ID, 10)
	}
	return result, nil
}

// DeleteConversation 物理删除会话。先收集消息附件 key 再删行，最后清对象存储
func (s *adminServiceImpl) DeleteConversation(ctx context.Context, convID uint64) error {
	if _, err := s.convRepo.GetConversation(ctx, convID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}

	msgs, err := s.msgRepo.ListByConversation(ctx, convID, 0, consts.MaxMessagePageSize*100)
	if err != nil {
		return err
	}
	var objectKeys []string
	for _, m := range msgs {
		for _, a := range m.Attachments {
			objectKeys = append(objectKeys, a.ObjectKey)
		}
	}

	if err = s.convRepo.DeleteConversation(ctx, convID); err != nil {
		return err
	}

	if len(objectKeys) > 0 {
		if err = s.attachService.RemoveObjects(ctx, objectKeys); err != nil {
			log.Error("Failed to remove conversation attachments from storage",
				"conversationID", convID, "err", err)
		}
	}
	return nil
}

// DeleteMessage 物理删除单条消息及其附件
func (s *adminServiceImpl) DeleteMessage(ctx context.Context, messageID uint64) error {
	objectKeys, err := s.msgRepo.HardDelete(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if len(objectKeys) > 0 {
		if err = s.attachService.RemoveObjects(ctx, objectKeys); err != nil {
			log.Error("Failed to remove message attachments from storage",
				"messageID", messageID, "err", err)
		}
	}
	return nil
}
