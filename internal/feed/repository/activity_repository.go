package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"gorm.io/gorm"
)

// visibilityPredicate 可见性谓词：公开活动，或请求者订阅了评论目标的私有活动。
// 用 EXISTS 而不是 JOIN，避免同一评论目标有多个订阅者时活动行被放大。
const visibilityPredicate = `(activities.is_private = false OR EXISTS (
	SELECT 1 FROM watchers
	WHERE watchers.watchable_type = activities.comment_target_type
	  AND watchers.watchable_id = activities.comment_target_id
	  AND watchers.user_id = ?))`

// ActivityRepository 活动仓库
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ActivityFilter 活动查询条件，零值字段不参与过滤
type ActivityFilter struct {
	UserID            *int64
	TargetType        string
	TargetID          *int64
	CommentTargetType string
	CommentTargetID   *int64
}

// List 查询一页活动：项目范围 + 过滤条件 + 可见性，按 id 倒序。
// sinceID > 0 时只返回 id < sinceID 的旧活动，新插入的活动不会移动已取到的页。
func (r *ActivityRepository) List(ctx context.Context, viewerID int64, projectIDs []int64, f ActivityFilter, sinceID int64, limit int) ([]entity.Activity, error) {
	items := []entity.Activity{}
	if len(projectIDs) == 0 {
		return items, nil
	}

	q := r.db.WithContext(ctx).
		Where("activities.project_id IN ?", projectIDs).
		Where(visibilityPredicate, viewerID)

	if f.UserID != nil {
		q = q.Where("activities.user_id = ?", *f.UserID)
	}
	if f.TargetType != "" {
		q = q.Where("activities.target_type = ?", f.TargetType)
	}
	if f.TargetID != nil {
		q = q.Where("activities.target_id = ?", *f.TargetID)
	}
	if f.CommentTargetType != "" {
		q = q.Where("activities.comment_target_type = ?", f.CommentTargetType)
	}
	if f.CommentTargetID != nil {
		q = q.Where("activities.comment_target_id = ?", *f.CommentTargetID)
	}
	if sinceID > 0 {
		q = q.Where("activities.id < ?", sinceID)
	}

	err := q.Order("activities.id DESC").Limit(limit).Find(&items).Error
	return items, err
}

// FindInProjects 在给定项目范围内按 id 查找活动，范围外视同不存在
func (r *ActivityRepository) FindInProjects(ctx context.Context, id int64, projectIDs []int64) (*entity.Activity, error) {
	if len(projectIDs) == 0 {
		return nil, ErrNotFound
	}

	var a entity.Activity
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id IN ?", id, projectIDs).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
