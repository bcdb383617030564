package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Activity     *ActivityRepository
	Project      *ProjectRepository
	User         *UserRepository
	Watcher      *WatcherRepository
	Task         *TaskRepository
	Conversation *ConversationRepository
	Comment      *CommentRepository
	Upload       *UploadRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Activity:     NewActivityRepository(db),
		Project:      NewProjectRepository(db),
		User:         NewUserRepository(db),
		Watcher:      NewWatcherRepository(db),
		Task:         NewTaskRepository(db),
		Conversation: NewConversationRepository(db),
		Comment:      NewCommentRepository(db),
		Upload:       NewUploadRepository(db),
	}
}
