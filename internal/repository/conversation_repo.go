package repository

import (
	"MiniSocial/internal/model"
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrConversationExists 表示唯一索引冲突，说明并发请求已抢先创建了同一对会话
var ErrConversationExists = errors.New("conversation already exists")

type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error
	GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error)
	GetConversationByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error)
	IsParticipant(ctx context.Context, convID uint64, userID string) (bool, error)
	GetParticipantIDs(ctx context.Context, convID uint64) ([]string, error)
	ListConversationIDs(ctx context.Context, userID string) ([]uint64, error)

	ListByUser(ctx context.Context, userID string, cursorUpdatedAt *time.Time, cursorID uint64, limit int) ([]*model.Conversation, error)
	UpdateLastRead(ctx context.Context, convID uint64, userID string, messageID uint64) error
	GetLastRead(ctx context.Context, convIDs []uint64, userID string) (map[uint64]uint64, error)

	ListAll(ctx context.Context, cursorID uint64, limit int) ([]*model.Conversation, error)
	DeleteConversation(ctx context.Context, convID uint64) error
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// CreateConversation 开启事务创建会话及初始成员；peer_key 冲突时归一化为 ErrConversationExists
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, p := range participants {
			p.ConversationID = conv.ID
			p.JoinedAt = time.Now()
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrConversationExists
	}
	return err
}

// GetConversation 根据会话 ID 获取会话
func (s *conversationRepoImpl) GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, convID).Error
	return &conv, err
}

// GetConversationByPeerKey 根据会话标识获取会话
func (s *conversationRepoImpl) GetConversationByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("peer_key = ?", peerKey).First(&conv).Error
	return &conv, err
}

// IsParticipant 检查用户是否是会话成员
func (s *conversationRepoImpl) IsParticipant(ctx context.Context, convID uint64, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetParticipantIDs 获取会话全部成员 ID
func (s *conversationRepoImpl) GetParticipantIDs(ctx context.Context, convID uint64) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ?", convID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListConversationIDs 获取用户参与的全部会话 ID
func (s *conversationRepoImpl) ListConversationIDs(ctx context.Context, userID string) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}

// ListByUser 按 (updated_at, id) 复合游标降序翻页，只返回用户参与的会话
func (s *conversationRepoImpl) ListByUser(ctx context.Context, userID string, cursorUpdatedAt *time.Time, cursorID uint64, limit int) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	query := s.db.WithContext(ctx).Table("conversations c").
		Joins("JOIN conversation_participants p ON p.conversation_id = c.id").
		Where("p.user_id = ?", userID)

	if cursorUpdatedAt != nil {
		query = query.Where("(c.updated_at < ?) OR (c.updated_at = ? AND c.id < ?)",
			*cursorUpdatedAt, *cursorUpdatedAt, cursorID)
	}

	err := query.Order("c.updated_at DESC, c.id DESC").
		Limit(limit).
		Find(&convs).Error
	return convs, err
}

// UpdateLastRead 推进已读进度，只进不退
func (s *conversationRepoImpl) UpdateLastRead(ctx context.Context, convID uint64, userID string, messageID uint64) error {
	return s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND last_read_message_id < ?", convID, userID, messageID).
		Update("last_read_message_id", messageID).Error
}

// GetLastRead 批量获取用户在多个会话中的已读进度
func (s *conversationRepoImpl) GetLastRead(ctx context.Context, convIDs []uint64, userID string) (map[uint64]uint64, error) {
	type result struct {
		ConversationID    uint64
		LastReadMessageID uint64
	}
	var results []result
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Select("conversation_id, last_read_message_id").
		Where("conversation_id IN ? AND user_id = ?", convIDs, userID).
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	resMap := make(map[uint64]uint64, len(results))
	for _, r := range results {
		resMap[r.ConversationID] = r.LastReadMessageID
	}
	return resMap, nil
}

// ListAll 管理端全量会话翻页
func (s *conversationRepoImpl) ListAll(ctx context.Context, cursorID uint64, limit int) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	query := s.db.WithContext(ctx).Model(&model.Conversation{})
	if cursorID > 0 {
		query = query.Where("id < ?", cursorID)
	}
	err := query.Order("id DESC").Limit(limit).Find(&convs).Error
	return convs, err
}

// DeleteConversation 管理端物理删除：会话、成员、消息与附件行一并清理
func (s *conversationRepoImpl) DeleteConversation(ctx context.Context, convID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msgIDs []uint64
		if err := tx.Model(&model.Message{}).
			Where("conversation_id = ?", convID).
			Pluck("id", &msgIDs).Error; err != nil {
			return err
		}
		if len(msgIDs) > 0 {
			if err := tx.Delete(&model.Attachment{}, "message_id IN ?", msgIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&model.Message{}, "id IN ?", msgIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&model.ConversationParticipant{}, "conversation_id = ?", convID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, convID).Error
	})
}
