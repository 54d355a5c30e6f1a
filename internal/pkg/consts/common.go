package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

// 会话类型
const (
	ConversationTypeOneToOne int8 = 1
	ConversationTypeGroup    int8 = 2
)

// 消息类型
const (
	MessageTypeText       int8 = 1
	MessageTypeImage      int8 = 2
	MessageTypeFile       int8 = 3
	MessageTypeAttachment int8 = 4
)

// MessageTombstone 软删除后展示的占位内容
const MessageTombstone = "This message has been deleted."

// LastMessagePreviewLen 会话列表中最后一条消息预览的最大长度（按字符数计）
const LastMessagePreviewLen = 50

// MaxAttachmentsPerMessage 单条消息最多可携带的附件数
const MaxAttachmentsPerMessage = 5

// MaxAttachmentFileSize 单个附件大小上限
const MaxAttachmentFileSize = 10 << 20

// 游标分页默认与上限
const (
	DefaultConversationPageSize = 15
	MaxConversationPageSize     = 50
	DefaultMessagePageSize      = 20
	MaxMessagePageSize          = 100
)

const DefaultAvatarURL = "default_avatar.png"
