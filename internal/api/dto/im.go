package dto

import "time"

// SendMessageReq 发送消息请求：二者至少给一个 conversation_id / recipient_id
type SendMessageReq struct {
	ConversationID uint64          `json:"conversation_id"`
	RecipientID    string          `json:"recipient_id"`
	Content        string          `json:"content"`
	Attachments    []AttachmentReq `json:"attachments"`
}

// AttachmentReq 上传接口返回的附件描述符，随消息一并提交
type AttachmentReq struct {
	FileName  string `json:"fileName" validate:"required"`
	ObjectKey string `json:"objectKey" validate:"required"`
	FileType  string `json:"fileType"`
	FileSize  int64  `json:"fileSize"`
	FileURL   string `json:"fileUrl"`
}

// AttachmentDTO 附件视图
type AttachmentDTO struct {
	ID       uint64 `json:"id"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	FileURL  string `json:"fileUrl"`
}

// MessageDTO 消息视图
type MessageDTO struct {
	ID             uint64          `json:"id"`
	ConversationID uint64          `json:"conversationId"`
	SenderID       string          `json:"senderId"`
	Content        string          `json:"content"`
	MessageType    int8            `json:"messageType"`
	IsDeleted      bool            `json:"isDeleted"`
	Attachments    []AttachmentDTO `json:"attachments"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ConversationDTO 会话列表项
type ConversationDTO struct {
	ConversationID      uint64    `json:"conversationId"`
	Type                int8      `json:"type"`
	PeerID              string    `json:"peerId"`
	PeerName            string    `json:"peerName"`
	PeerAvatar          string    `json:"peerAvatar"`
	LastMessageContent  string    `json:"lastMessageContent"`
	LastMessageType     int8      `json:"lastMessageType"`
	LastMessageSenderID string    `json:"lastMessageSenderId"`
	UnreadCount         int64     `json:"unreadCount"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// MarkReadReq 已读回执
type MarkReadReq struct {
	ConversationID uint64 `json:"conversation_id" validate:"required"`
	MessageID      uint64 `json:"message_id" validate:"required"`
}

// MessageDeletedEvent 会话频道广播的删除事件
type MessageDeletedEvent struct {
	Type           string `json:"type"`
	MessageID      uint64 `json:"messageId"`
	ConversationID uint64 `json:"conversationId"`
}

// WsCommand 客户端经 WebSocket 下发的指令
type WsCommand struct {
	Type           string          `json:"type"` // send / delete
	ConversationID uint64          `json:"conversation_id"`
	RecipientID    string          `json:"recipient_id"`
	Content        string          `json:"content"`
	Attachments    []AttachmentReq `json:"attachments"`
	MessageID      uint64          `json:"message_id"`
}

// WsError 仅回发给出错指令所在连接的错误帧
type WsError struct {
	Type    string `json:"type"` // error
	Code    int    `json:"code"`
	Message string `json:"message"`
}
