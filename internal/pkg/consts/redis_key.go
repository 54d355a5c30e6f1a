package consts

const (
	UserSimpleInfoKey    = "user:simple:info:"
	IdentityInfoKey      = "identity:info:"
	IMUserKey            = "im:user:"
	IMConversationKey    = "im:conversation:"
	AttachmentPendingKey = "im:attachment:pending"
)
