package dto

// UserDTO 用户资料视图
type UserDTO struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Bio         *string `json:"bio"`
}

// SimpleUserDTO 会话列表与消息渲染用的精简信息
type SimpleUserDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// UpdateUserInfoDTO 资料更新请求
type UpdateUserInfoDTO struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=50"`
	Bio         *string `json:"bio" validate:"omitempty,max=255"`
}

// SearchUserDTO 用户搜索请求
type SearchUserDTO struct {
	Keyword string `json:"keyword" form:"keyword" validate:"required,max=50"`
	Cursor  string `json:"cursor" form:"cursor"`
	Size    int    `json:"size" form:"size"`
}

// BatchSimpleReq 批量精简信息请求
type BatchSimpleReq struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100"`
}
