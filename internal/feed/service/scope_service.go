package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"github.com/bitfantasy/nimo-feed/internal/feed/repository"
	"github.com/redis/go-redis/v9"
)

// ScopeService 解析一次请求的项目可见范围
type ScopeService struct {
	projectRepo *repository.ProjectRepository
	rdb         *redis.Client
	cacheTTL    time.Duration
}

// NewScopeService 创建范围解析服务。rdb 可为 nil，此时不走缓存。
func NewScopeService(projectRepo *repository.ProjectRepository, rdb *redis.Client, cacheTTL time.Duration) *ScopeService {
	return &ScopeService{
		projectRepo: projectRepo,
		rdb:         rdb,
		cacheTTL:    cacheTTL,
	}
}

// Scope 请求者可见的项目范围。Project 非空表示限定了单个项目。
type Scope struct {
	ProjectIDs []int64
	Project    *entity.Project
}

// Contains 项目是否在范围内
func (s *Scope) Contains(projectID int64) bool {
	for _, id := range s.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// Resolve 解析项目范围。projectKey 为空时取请求者加入的全部项目；
// 否则 projectKey（数字 id 或 permalink）必须命中一个请求者所属的项目，
// 项目不存在与非成员同样返回 ErrNotFound，不泄露存在性。
func (s *ScopeService) Resolve(ctx context.Context, viewerID int64, projectKey string) (*Scope, error) {
	if projectKey != "" {
		p, err := s.projectRepo.FindByKey(ctx, projectKey)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("find project: %w", err)
		}

		member, err := s.projectRepo.IsMember(ctx, p.ID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if !member {
			return nil, ErrNotFound
		}

		return &Scope{ProjectIDs: []int64{p.ID}, Project: p}, nil
	}

	ids, err := s.memberProjectIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return &Scope{ProjectIDs: ids}, nil
}

// memberProjectIDs 用户的项目 id 集合，短 TTL 缓存在 Redis
func (s *ScopeService) memberProjectIDs(ctx context.Context, viewerID int64) ([]int64, error) {
	cacheKey := fmt.Sprintf("feed:scope:%d", viewerID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var ids []int64
			if jsonErr := json.Unmarshal([]byte(cached), &ids); jsonErr == nil {
				return ids, nil
			}
		}
	}

	ids, err := s.projectRepo.ProjectIDsForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, jsonErr := json.Marshal(ids); jsonErr == nil {
			s.rdb.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return ids, nil
}
