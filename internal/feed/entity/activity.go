package entity

import (
	"time"
)

// 引用类型标签。引用以 (type, id) 对定位实体，客户端按该对建立索引。
const (
	TypeProject      = "Project"
	TypeUser         = "User"
	TypeTask         = "Task"
	TypeConversation = "Conversation"
	TypeComment      = "Comment"
	TypeUpload       = "Upload"
)

// Activity 活动记录。创建后不再变更，ID 严格递增，是活动流的时间序。
type Activity struct {
	ID                int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID         int64      `json:"project_id" gorm:"not null;index"`
	UserID            int64      `json:"user_id" gorm:"not null;index"`
	Action            string     `json:"action" gorm:"size:32;not null"`
	TargetType        string     `json:"target_type" gorm:"size:32;not null;index:idx_activities_target"`
	TargetID          int64      `json:"target_id" gorm:"not null;index:idx_activities_target"`
	CommentTargetType *string    `json:"comment_target_type" gorm:"size:32;index:idx_activities_comment_target"`
	CommentTargetID   *int64     `json:"comment_target_id" gorm:"index:idx_activities_comment_target"`
	IsPrivate         bool       `json:"is_private" gorm:"not null;default:false"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// Watcher 订阅记录。私有对象的活动仅对其评论目标的订阅者可见。
type Watcher struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	WatchableType string    `json:"watchable_type" gorm:"size:32;not null;uniqueIndex:idx_watchers_watchable"`
	WatchableID   int64     `json:"watchable_id" gorm:"not null;uniqueIndex:idx_watchers_watchable"`
	UserID        int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_watchers_watchable;index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Watcher) TableName() string {
	return "watchers"
}
