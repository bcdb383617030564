package entity

import (
	"time"
)

// Project 项目实体
type Project struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Permalink   string     `json:"permalink" gorm:"size:64;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"size:128;not null"`
	Description string     `json:"description" gorm:"type:text"`
	OwnerID     int64      `json:"owner_id" gorm:"not null"`
	Archived    bool       `json:"archived" gorm:"not null;default:false"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Owner       *User        `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Memberships []Membership `json:"memberships,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

// Membership 项目成员关系
type Membership struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID int64     `json:"project_id" gorm:"not null;uniqueIndex:idx_memberships_project_user"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_memberships_project_user;index"`
	Role      string    `json:"role" gorm:"size:16;not null;default:member"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Membership) TableName() string {
	return "memberships"
}
