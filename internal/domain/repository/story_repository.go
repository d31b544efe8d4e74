// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"authorai-api/internal/domain/entity"
	apperrors "authorai-api/pkg/errors"
)

// ErrStoryNotFound 故事蓝图不存在（包括 ID 格式非法）
var ErrStoryNotFound = apperrors.ErrStoryNotFound

// StoryRepository 故事蓝图仓储接口
type StoryRepository interface {
	// Create 持久化一个新蓝图，并回填 ID 与时间戳
	Create(ctx context.Context, story *entity.Story) error

	// GetByID 根据 ID 获取蓝图，不存在时返回 ErrStoryNotFound
	GetByID(ctx context.Context, id string) (*entity.Story, error)

	// Replace 整体覆盖指定蓝图并返回保存后的结果，不存在时返回 ErrStoryNotFound
	Replace(ctx context.Context, id string, story *entity.Story) (*entity.Story, error)
}
