package wire

import (
	"context"
	"fmt"

	"authorai-api/internal/config"
	"authorai-api/internal/domain/repository"
	"authorai-api/internal/infrastructure/persistence/postgres"
	"authorai-api/internal/infrastructure/persistence/redis"
	"authorai-api/internal/interfaces/http/middleware"
	"authorai-api/pkg/logger"
)

// ProvidePostgresClient 提供 PostgreSQL 客户端，按配置执行自动迁移
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.Postgres.AutoMigrate {
		if err := client.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClientOptional Redis 仅用作缓存与限流，未启用或不可达时返回 nil
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}

	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, cache and rate limit disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideStoryRepository 有 Redis 时在 PostgreSQL 仓储外包一层读穿缓存
func ProvideStoryRepository(cfg *config.Config, pgRepo *postgres.StoryRepository, redisClient *redis.Client) repository.StoryRepository {
	if redisClient == nil {
		return pgRepo
	}
	return redis.NewCachedStoryRepository(pgRepo, redis.NewCache(redisClient), cfg.Cache.Redis.StoryTTL)
}

// ProvideRateLimiter 无 Redis 时返回 nil 接口，限流中间件直接放行
func ProvideRateLimiter(redisClient *redis.Client) middleware.RateLimiter {
	if redisClient == nil {
		return nil
	}
	return redis.NewRateLimiter(redisClient)
}
