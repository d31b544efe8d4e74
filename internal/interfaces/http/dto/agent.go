package dto

import (
	"authorai-api/internal/application/agent"
	"authorai-api/internal/domain/entity"
)

// ArchitectRequest 情节架构请求
type ArchitectRequest struct {
	Premise   string `json:"premise" binding:"omitempty,max=10000"`
	Structure string `json:"structure" binding:"omitempty,max=255"`
}

func (r *ArchitectRequest) ToInput() agent.ArchitectInput {
	return agent.ArchitectInput{Premise: r.Premise, Structure: r.Structure}
}

// WorldBuildRequest 世界观扩展请求
type WorldBuildRequest struct {
	Concept string `json:"concept" binding:"omitempty,max=10000"`
	StoryID string `json:"storyId" binding:"omitempty,max=64"`
}

func (r *WorldBuildRequest) ToInput() agent.WorldBuildInput {
	return agent.WorldBuildInput{Concept: r.Concept, StoryID: r.StoryID}
}

// SceneWriteRequest 场景写作请求；eventNodeId 可以是字符串或数字
type SceneWriteRequest struct {
	EventNodeID entity.NodeID `json:"eventNodeId" binding:"omitempty,max=64"`
	StoryID     string        `json:"storyId" binding:"omitempty,max=64"`
	WordCount   int           `json:"wordCount" binding:"omitempty,max=20000"`
}

func (r *SceneWriteRequest) ToInput() agent.WriteSceneInput {
	return agent.WriteSceneInput{EventNodeID: r.EventNodeID, StoryID: r.StoryID, WordCount: r.WordCount}
}

// StyleAnalyzeRequest 风格分析请求
type StyleAnalyzeRequest struct {
	SampleText string `json:"sampleText" binding:"omitempty,max=100000"`
}

func (r *StyleAnalyzeRequest) ToInput() agent.AnalyzeStyleInput {
	return agent.AnalyzeStyleInput{SampleText: r.SampleText}
}

// StyleExecuteRequest 风格改写请求
type StyleExecuteRequest struct {
	SceneDraft string `json:"sceneDraft" binding:"omitempty,max=100000"`
	StoryID    string `json:"storyId" binding:"omitempty,max=64"`
}

func (r *StyleExecuteRequest) ToInput() agent.ExecuteStyleInput {
	return agent.ExecuteStyleInput{SceneDraft: r.SceneDraft, StoryID: r.StoryID}
}

// AuditRequest 场景审查请求
type AuditRequest struct {
	SceneText string `json:"sceneText" binding:"omitempty,max=100000"`
	StoryID   string `json:"storyId" binding:"omitempty,max=64"`
}

func (r *AuditRequest) ToInput() agent.AuditInput {
	return agent.AuditInput{SceneText: r.SceneText, StoryID: r.StoryID}
}
