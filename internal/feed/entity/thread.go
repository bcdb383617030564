package entity

import (
	"time"
)

// Task 任务实体。评论挂在任务上形成线程。
type Task struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID int64      `json:"project_id" gorm:"not null;index"`
	UserID    int64      `json:"user_id" gorm:"not null"`
	Name      string     `json:"name" gorm:"size:256;not null"`
	Status    string     `json:"status" gorm:"size:16;not null;default:open"`
	DueDate   *time.Time `json:"due_date" gorm:"type:date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (Task) TableName() string {
	return "tasks"
}

// Conversation 会话实体。评论挂在会话上形成线程。
type Conversation struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID int64      `json:"project_id" gorm:"not null;index"`
	UserID    int64      `json:"user_id" gorm:"not null"`
	Name      string     `json:"name" gorm:"size:256;not null"`
	Simple    bool       `json:"simple" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Comment 评论实体。TargetType/TargetID 指向所属线程（Task 或 Conversation）。
type Comment struct {
	ID         int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID  int64      `json:"project_id" gorm:"not null;index"`
	UserID     int64      `json:"user_id" gorm:"not null"`
	TargetType string     `json:"target_type" gorm:"size:32;not null;index:idx_comments_target"`
	TargetID   int64      `json:"target_id" gorm:"not null;index:idx_comments_target"`
	Body       string     `json:"body" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at" gorm:"index"`
}

func (Comment) TableName() string {
	return "comments"
}

// Upload 附件实体。文件本体存对象存储，ObjectKey 为存储键。
type Upload struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID   int64     `json:"project_id" gorm:"not null;index"`
	UserID      int64     `json:"user_id" gorm:"not null"`
	CommentID   *int64    `json:"comment_id" gorm:"index"`
	TargetType  string    `json:"target_type" gorm:"size:32;index:idx_uploads_target"`
	TargetID    int64     `json:"target_id" gorm:"index:idx_uploads_target"`
	Filename    string    `json:"filename" gorm:"size:256;not null"`
	ContentType string    `json:"content_type" gorm:"size:128"`
	Size        int64     `json:"size" gorm:"not null;default:0"`
	ObjectKey   string    `json:"-" gorm:"size:512;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Upload) TableName() string {
	return "uploads"
}
