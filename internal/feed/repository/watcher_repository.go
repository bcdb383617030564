package repository

import (
	"context"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"gorm.io/gorm"
)

// WatcherRepository 订阅仓库
type WatcherRepository struct {
	db *gorm.DB
}

func NewWatcherRepository(db *gorm.DB) *WatcherRepository {
	return &WatcherRepository{db: db}
}

// Exists 用户是否订阅了某个实体
func (r *WatcherRepository) Exists(ctx context.Context, watchableType string, watchableID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Watcher{}).
		Where("watchable_type = ? AND watchable_id = ? AND user_id = ?", watchableType, watchableID, userID).
		Count(&count).Error
	return count > 0, err
}
