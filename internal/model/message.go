package model

import "time"

// Message 消息表
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"` // 单调递增，同时充当游标
	ConversationID uint64    `gorm:"not null;index:idx_conv_id" json:"conversationId"`
	SenderID       string    `gorm:"type:varchar(64);not null" json:"senderId"`
	Content        *string   `gorm:"type:text" json:"content"`
	MessageType    int8      `gorm:"not null;default:1" json:"messageType"` // 1-文本, 2-图片, 3-文件, 4-附件
	IsDeleted      bool      `gorm:"type:tinyint(1);not null;default:0" json:"isDeleted"`
	CreatedAt      time.Time `json:"createdAt"`

	Attachments []Attachment `gorm:"foreignKey:MessageID;references:ID" json:"attachments,omitempty"`
}

func (Message) TableName() string { return "messages" }

// Attachment 消息附件表
type Attachment struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID uint64 `gorm:"not null;index" json:"messageId"`
	FileName  string `gorm:"type:varchar(255);not null" json:"fileName"`
	ObjectKey string `gorm:"type:varchar(512);not null" json:"-"`
	FileType  string `gorm:"type:varchar(100)" json:"fileType"`
	FileSize  int64  `gorm:"not null;default:0" json:"fileSize"`
	FileURL   string `gorm:"type:varchar(1024)" json:"fileUrl"`
}

func (Attachment) TableName() string { return "message_attachments" }
