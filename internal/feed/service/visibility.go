package service

import (
	"context"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
)

// WatchFunc 判断用户是否订阅了某个实体，由存储层提供
type WatchFunc func(ctx context.Context, watchableType string, watchableID, userID int64) (bool, error)

// Visible 单条活动的可见性判定：公开活动对项目成员可见；
// 私有活动仅对其评论目标的订阅者可见。列表查询在 SQL 里用等价谓词过滤，
// 单条查询走这里。
func Visible(ctx context.Context, a *entity.Activity, userID int64, watch WatchFunc) (bool, error) {
	if !a.IsPrivate {
		return true, nil
	}
	if a.CommentTargetType == nil || a.CommentTargetID == nil {
		return false, nil
	}
	return watch(ctx, *a.CommentTargetType, *a.CommentTargetID, userID)
}
