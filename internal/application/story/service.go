// Package story 提供故事蓝图的创建、读取、整体替换与按路径合并
package story

import (
	"context"
	"errors"
	"strings"

	"authorai-api/internal/domain/entity"
	"authorai-api/internal/domain/repository"
	apperrors "authorai-api/pkg/errors"
	"authorai-api/pkg/logger"
)

// MergeInput 将 Value 写入 TargetPath 指向的映射的 Key 下
type MergeInput struct {
	TargetPath string
	Key        string
	Value      any
}

// Service 故事蓝图服务
type Service struct {
	repo repository.StoryRepository
}

// NewService 创建故事蓝图服务
func NewService(repo repository.StoryRepository) *Service {
	return &Service{repo: repo}
}

// Create 创建一个全部字段为空默认值的蓝图
func (s *Service) Create(ctx context.Context) (*entity.Story, error) {
	story := entity.NewStory()
	if err := s.repo.Create(ctx, story); err != nil {
		return nil, err
	}

	logger.Info(logger.WithContext(ctx, logger.StoryIDKey, story.ID), "story created")
	return story, nil
}

// Get 获取蓝图
func (s *Service) Get(ctx context.Context, id string) (*entity.Story, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// Replace 整体覆盖蓝图，后写覆盖先写
func (s *Service) Replace(ctx context.Context, id string, in *entity.Story) (*entity.Story, error) {
	if in == nil {
		in = entity.NewStory()
	}

	saved, err := s.repo.Replace(ctx, strings.TrimSpace(id), in)
	if err != nil {
		return nil, err
	}

	logger.Info(logger.WithContext(ctx, logger.StoryIDKey, saved.ID), "story replaced")
	return saved, nil
}

// Merge 读取蓝图，在目标路径写入一个键，再整体保存
func (s *Service) Merge(ctx context.Context, id string, in MergeInput) (*entity.Story, error) {
	id = strings.TrimSpace(id)
	if strings.TrimSpace(in.TargetPath) == "" || strings.TrimSpace(in.Key) == "" {
		return nil, apperrors.InvalidParam("targetPath and key are required")
	}

	story, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := story.SetAtPath(in.TargetPath, in.Key, in.Value); err != nil {
		if errors.Is(err, entity.ErrInvalidTargetPath) {
			return nil, apperrors.InvalidParam(err.Error())
		}
		return nil, err
	}

	saved, err := s.repo.Replace(ctx, id, story)
	if err != nil {
		return nil, err
	}

	logger.Info(logger.WithContext(ctx, logger.StoryIDKey, saved.ID), "story merged",
		"target_path", in.TargetPath, "key", in.Key)
	return saved, nil
}
