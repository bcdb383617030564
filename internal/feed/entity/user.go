package entity

import (
	"time"
)

// User 用户实体
type User struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:64;not null"`
	Email     string     `json:"email" gorm:"size:128;uniqueIndex"`
	AvatarURL string     `json:"avatar_url" gorm:"size:512"`
	Status    string     `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
