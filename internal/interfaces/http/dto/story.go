package dto

import (
	"authorai-api/internal/domain/entity"
)

// StoryRequest 替换蓝图的请求体；_id 与时间戳由服务端维护，忽略客户端传值
type StoryRequest struct {
	Premise        string             `json:"premise"`
	Structure      string             `json:"structure"`
	PlotGraph      []entity.EventNode `json:"plotGraph"`
	WorldBible     entity.JSONMap     `json:"worldBible"`
	StyleGuide     entity.JSONMap     `json:"styleGuide"`
	CharacterCodex entity.JSONMap     `json:"characterCodex"`
}

// ToEntity 转换为实体
func (r *StoryRequest) ToEntity() *entity.Story {
	return &entity.Story{
		Premise:        r.Premise,
		Structure:      r.Structure,
		PlotGraph:      r.PlotGraph,
		WorldBible:     r.WorldBible,
		StyleGuide:     r.StyleGuide,
		CharacterCodex: r.CharacterCodex,
	}
}

// MergeStoryRequest 按路径合并请求
type MergeStoryRequest struct {
	TargetPath string `json:"targetPath" binding:"required,max=256"`
	Key        string `json:"key" binding:"required,max=256"`
	Value      any    `json:"value"`
}

// StoryIDRequest 路径参数
type StoryIDRequest struct {
	ID string `uri:"id" binding:"required"`
}
