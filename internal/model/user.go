package model

import "time"

// User 用户资料表，主键为身份提供方下发的 subject
type User struct {
	ID          string  `gorm:"primaryKey;type:varchar(64)"`
	Username    string  `gorm:"type:varchar(50);index"`
	DisplayName *string `gorm:"type:varchar(50)"`
	AvatarURL   *string `gorm:"type:varchar(1024)"`
	Bio         *string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}
