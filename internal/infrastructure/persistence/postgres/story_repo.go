// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"authorai-api/internal/domain/entity"
	"authorai-api/internal/domain/repository"
	apperrors "authorai-api/pkg/errors"
	"authorai-api/pkg/metrics"
)

// StoryRepository 故事蓝图仓储实现
type StoryRepository struct {
	client *Client
	txMgr  repository.Transactor
}

// NewStoryRepository 创建故事蓝图仓储
func NewStoryRepository(client *Client, txMgr *TxManager) *StoryRepository {
	return &StoryRepository{client: client, txMgr: txMgr}
}

// Create 创建蓝图
func (r *StoryRepository) Create(ctx context.Context, story *entity.Story) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Create")
	defer span.End()
	defer observe("create", time.Now())

	story.Normalize()
	if story.ID == "" {
		story.ID = uuid.NewString()
	}

	if err := getDB(ctx, r.client.db).Create(story).Error; err != nil {
		span.RecordError(err)
		return dbError("create", err)
	}
	return nil
}

// GetByID 根据 ID 获取蓝图
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.GetByID",
		trace.WithAttributes(attribute.String("story.id", id)))
	defer span.End()
	defer observe("get", time.Now())

	return r.load(ctx, id)
}

// Replace 整体覆盖蓝图
func (r *StoryRepository) Replace(ctx context.Context, id string, story *entity.Story) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Replace",
		trace.WithAttributes(attribute.String("story.id", id)))
	defer span.End()
	defer observe("replace", time.Now())

	var saved *entity.Story
	err := r.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := r.load(txCtx, id)
		if err != nil {
			return err
		}

		current.ReplaceContent(story)
		if err := getDB(txCtx, r.client.db).Save(current).Error; err != nil {
			return dbError("replace", err)
		}
		saved = current
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			return nil, err
		}
		span.RecordError(err)
		if !apperrors.IsAppError(err) {
			err = dbError("commit", err)
		}
		return nil, err
	}
	return saved, nil
}

// load 读取蓝图；ID 不是合法 UUID 时视为不存在
func (r *StoryRepository) load(ctx context.Context, id string) (*entity.Story, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrStoryNotFound
	}

	var story entity.Story
	err := getDB(ctx, r.client.db).Where("id = ?", id).First(&story).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStoryNotFound
		}
		return nil, dbError("get", err)
	}

	story.Normalize()
	return &story, nil
}

// dbError 将存储层错误归为 CodeDatabaseError
func dbError(op string, err error) error {
	return apperrors.ErrDatabaseError.WithError(fmt.Errorf("failed to %s story: %w", op, err))
}

func observe(op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
