package es

// UserES 对应 user_index 的文档结构
type UserES struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   string  `json:"avatar_url"`
	Bio         *string `json:"bio,omitempty"`

	// 命中结果的排序键，仅读，游标翻页用
	Sort []interface{} `json:"-"`
}
