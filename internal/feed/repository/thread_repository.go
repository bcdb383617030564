package repository

import (
	"context"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"gorm.io/gorm"
)

// TaskRepository 任务仓库
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByIDs 批量查找任务，缺失的 id 不报错
func (r *TaskRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Task, error) {
	items := []entity.Task{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&items).Error
	return items, err
}

// ConversationRepository 会话仓库
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindByIDs 批量查找会话，缺失的 id 不报错
func (r *ConversationRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Conversation, error) {
	items := []entity.Conversation{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&items).Error
	return items, err
}
