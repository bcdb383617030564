package entity

import (
	"time"
)

// Reference 实体摘要。活动流响应附带被引用实体的摘要，客户端无需二次请求即可渲染。
// 同一响应内每个 (Type, ID) 只出现一次。
type Reference struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`

	// 通用字段，按类型选填
	Name      string `json:"name,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Status    string `json:"status,omitempty"`
	Body      string `json:"body,omitempty"`
	ProjectID int64  `json:"project_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`

	// 线程目标（Comment 指向所属线程）
	TargetType string `json:"target_type,omitempty"`
	TargetID   int64  `json:"target_id,omitempty"`

	// 评论线程摘要，仅 Task / Conversation 引用携带
	FirstCommentID   *int64  `json:"first_comment_id,omitempty"`
	RecentCommentIDs []int64 `json:"recent_comment_ids,omitempty"`

	// 附件，仅 Upload 引用携带
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
}
