package service

import (
	"github.com/bitfantasy/nimo-feed/internal/config"
	"github.com/bitfantasy/nimo-feed/internal/feed/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Scope *ScopeService
	Feed  *FeedService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端，未配置或失败时附件引用降级为不带下载链接
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO init failed, download URLs disabled", zap.Error(err))
			minioClient = nil
		}
	}

	scope := NewScopeService(repos.Project, rdb, cfg.Feed.ScopeCacheTTL)
	collector := NewReferenceCollector(repos, minioClient, cfg.MinIO.Bucket, cfg.Feed.RecentComments, logger)
	feed := NewFeedService(repos, scope, collector, cfg)

	return &Services{
		Scope: scope,
		Feed:  feed,
	}
}
