package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"gorm.io/gorm"
)

// ProjectRepository 项目仓库
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByKey 按数字 id 或 permalink 查找项目
func (r *ProjectRepository) FindByKey(ctx context.Context, key string) (*entity.Project, error) {
	q := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("permalink = ?", key)
	}

	var p entity.Project
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ProjectIDsForUser 用户加入的全部项目 id
func (r *ProjectRepository) ProjectIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&entity.Membership{}).
		Where("user_id = ?", userID).
		Order("project_id").
		Pluck("project_id", &ids).Error
	return ids, err
}

// IsMember 用户是否为项目成员
func (r *ProjectRepository) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Membership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindByIDs 批量查找项目，缺失的 id 不报错
func (r *ProjectRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Project, error) {
	items := []entity.Project{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&items).Error
	return items, err
}
