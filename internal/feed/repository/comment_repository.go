package repository

import (
	"context"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"gorm.io/gorm"
)

// CommentRepository 评论仓库
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// FindByIDs 批量查找评论，缺失的 id 不报错
func (r *CommentRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Comment, error) {
	items := []entity.Comment{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&items).Error
	return items, err
}

// FirstCommentID 线程的首条评论 id，无评论返回 nil
func (r *CommentRepository) FirstCommentID(ctx context.Context, targetType string, targetID int64) (*int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("target_type = ? AND target_id = ? AND deleted_at IS NULL", targetType, targetID).
		Order("id ASC").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return &ids[0], nil
}

// RecentCommentIDs 线程最近的评论 id，按 id 倒序，最多 limit 条
func (r *CommentRepository) RecentCommentIDs(ctx context.Context, targetType string, targetID int64, limit int) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("target_type = ? AND target_id = ? AND deleted_at IS NULL", targetType, targetID).
		Order("id DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ListByTarget 线程评论，按 id 正序，最多 limit 条
func (r *CommentRepository) ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]entity.Comment, error) {
	items := []entity.Comment{}
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND deleted_at IS NULL", targetType, targetID).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
