package repository

import (
	"context"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"gorm.io/gorm"
)

// UploadRepository 附件仓库
type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// FindByIDs 批量查找附件，缺失的 id 不报错
func (r *UploadRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Upload, error) {
	items := []entity.Upload{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

// ListByTarget 某实体（线程）携带的全部附件
func (r *UploadRepository) ListByTarget(ctx context.Context, targetType string, targetID int64) ([]entity.Upload, error) {
	items := []entity.Upload{}
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
