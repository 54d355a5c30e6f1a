package model

import "time"

// Conversation 会话主表
type Conversation struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Type    int8    `gorm:"not null;default:1" json:"type"`              // 1-单聊, 2-群聊
	PeerKey *string `gorm:"uniqueIndex;type:varchar(128)" json:"peerKey"` // 单聊: uidLow_uidHigh
	CreatedBy string `gorm:"type:varchar(64);not null" json:"createdBy"`

	// 冗余最新消息摘要，避免会话列表回表
	LastMessageContent  string `gorm:"type:varchar(255)" json:"lastMessageContent"`
	LastMessageType     int8   `gorm:"not null;default:1" json:"lastMessageType"`
	LastMessageSenderID string `gorm:"type:varchar(64)" json:"lastMessageSenderId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index:idx_updated_id,priority:1" json:"updatedAt"` // 随最新消息推进，游标排序键

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID;references:ID" json:"participants,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationParticipant 会话成员表
type ConversationParticipant struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID    uint64    `gorm:"uniqueIndex:idx_conv_user" json:"conversationId"`
	UserID            string    `gorm:"uniqueIndex:idx_conv_user;index;type:varchar(64)" json:"userId"`
	LastReadMessageID uint64    `gorm:"not null;default:0" json:"lastReadMessageId"` // 已读进度
	JoinedAt          time.Time `json:"joinedAt"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }
