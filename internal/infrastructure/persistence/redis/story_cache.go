package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authorai-api/internal/domain/entity"
	"authorai-api/internal/domain/repository"
	"authorai-api/pkg/logger"
)

// CachedStoryRepository 为蓝图仓储增加 Read-Through 缓存
type CachedStoryRepository struct {
	next  repository.StoryRepository
	cache *Cache
	ttl   time.Duration
}

// NewCachedStoryRepository 包装底层仓储
func NewCachedStoryRepository(next repository.StoryRepository, cache *Cache, ttl time.Duration) *CachedStoryRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedStoryRepository{next: next, cache: cache, ttl: ttl}
}

// StoryKey 蓝图缓存键
func StoryKey(id string) string {
	return fmt.Sprintf("story:%s", id)
}

// Create 创建蓝图并预热缓存
func (r *CachedStoryRepository) Create(ctx context.Context, story *entity.Story) error {
	if err := r.next.Create(ctx, story); err != nil {
		return err
	}
	r.refresh(ctx, story)
	return nil
}

// GetByID 优先从缓存读取
func (r *CachedStoryRepository) GetByID(ctx context.Context, id string) (*entity.Story, error) {
	raw, err := r.cache.GetOrLoadSafe(ctx, StoryKey(id), r.ttl, func() (any, error) {
		return r.next.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	var story entity.Story
	if err := json.Unmarshal(raw, &story); err != nil {
		logger.Warn(ctx, "corrupted story cache entry, reloading", "story_id", id, "error", err.Error())
		_ = r.cache.Delete(ctx, StoryKey(id))
		return r.next.GetByID(ctx, id)
	}
	story.Normalize()
	return &story, nil
}

// Replace 覆盖蓝图并刷新缓存
func (r *CachedStoryRepository) Replace(ctx context.Context, id string, story *entity.Story) (*entity.Story, error) {
	saved, err := r.next.Replace(ctx, id, story)
	if err != nil {
		return nil, err
	}
	r.refresh(ctx, saved)
	return saved, nil
}

// refresh 写入最新版本；写入失败时删除旧值避免读到过期数据
func (r *CachedStoryRepository) refresh(ctx context.Context, story *entity.Story) {
	key := StoryKey(story.ID)
	if err := r.cache.Set(ctx, key, story, r.ttl); err != nil {
		logger.Warn(ctx, "failed to refresh story cache", "story_id", story.ID, "error", err.Error())
		_ = r.cache.Delete(ctx, key)
	}
}
