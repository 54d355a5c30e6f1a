package repository

import (
	"MiniSocial/internal/model"
	"MiniSocial/internal/pkg/consts"
	"context"

	"gorm.io/gorm"
)

type MessageRepo interface {
	CreateWithSummary(ctx context.Context, msg *model.Message, preview string) error
	GetMessage(ctx context.Context, msgID uint64) (*model.Message, error)
	ListByConversation(ctx context.Context, convID uint64, cursorID uint64, limit int) ([]*model.Message, error)
	SoftDelete(ctx context.Context, msgID uint64) ([]string, error)
	CountAfter(ctx context.Context, convID uint64, afterID uint64) (int64, error)
	GetLatestID(ctx context.Context, convID uint64) (uint64, error)
	HardDelete(ctx context.Context, msgID uint64) ([]string, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// CreateWithSummary 单事务写入消息与附件行，并同步刷新会话冗余摘要。
// 消息落库与摘要推进要么同时可见要么同时回滚。
func (s *messageRepoImpl) CreateWithSummary(ctx context.Context, msg *model.Message, preview string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"last_message_content":   preview,
				"last_message_type":      msg.MessageType,
				"last_message_sender_id": msg.SenderID,
				"updated_at":             msg.CreatedAt,
			}).Error
	})
}

// GetMessage 根据消息 ID 获取消息及附件
func (s *messageRepoImpl) GetMessage(ctx context.Context, msgID uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).Preload("Attachments").First(&msg, msgID).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByConversation 按 id 游标降序翻页，最新消息在前
func (s *messageRepoImpl) ListByConversation(ctx context.Context, convID uint64, cursorID uint64, limit int) ([]*model.Message, error) {
	var msgs []*model.Message
	query := s.db.WithContext(ctx).Preload("Attachments").
		Where("conversation_id = ?", convID)
	if cursorID > 0 {
		query = query.Where("id < ?", cursorID)
	}
	err := query.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

// SoftDelete 单事务：写墓碑、删附件行，返回待清理的对象存储 key。
// 对象存储清理不入事务，由调用方在提交后执行。
func (s *messageRepoImpl) SoftDelete(ctx context.Context, msgID uint64) ([]string, error) {
	var objectKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Attachment{}).
			Where("message_id = ?", msgID).
			Pluck("object_key", &objectKeys).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Attachment{}, "message_id = ?", msgID).Error; err != nil {
			return err
		}
		return tx.Model(&model.Message{}).Where("id = ?", msgID).
			Updates(map[string]interface{}{
				"is_deleted":   true,
				"content":      consts.MessageTombstone,
				"message_type": consts.MessageTypeText,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return objectKeys, nil
}

// CountAfter 统计某已读位点之后的消息数 (未读数)
func (s *messageRepoImpl) CountAfter(ctx context.Context, convID uint64, afterID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND id > ?", convID, afterID).
		Count(&count).Error
	return count, err
}

// GetLatestID 获取会话当前最新消息 ID
func (s *messageRepoImpl) GetLatestID(ctx context.Context, convID uint64) (uint64, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).Select("id").
		Where("conversation_id = ?", convID).
		Order("id DESC").Limit(1).Find(&msg).Error
	return msg.ID, err
}


// HardDelete 管理端物理删除消息与附件行
func (s *messageRepoImpl) HardDelete(ctx context.Context, msgID uint64) ([]string, error) {
	var objectKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Attachment{}).
			Where("message_id = ?", msgID).
			Pluck("object_key", &objectKeys).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Attachment{}, "message_id = ?", msgID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, msgID).Error
	})
	if err != nil {
		return nil, err
	}
	return objectKeys, nil
}
