// Package agent 实现六个写作 Agent：根据请求与故事蓝图拼装提示词，调用 LLM 并原样返回结果
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"authorai-api/internal/application/agent/prompt"
	"authorai-api/internal/domain/entity"
	"authorai-api/internal/domain/repository"
	"authorai-api/internal/infrastructure/llm"
	apperrors "authorai-api/pkg/errors"
	"authorai-api/pkg/logger"
	"authorai-api/pkg/metrics"
	"authorai-api/pkg/tracer"
)

// TextGenerator 应用层对 LLM 网关的最小依赖（port），由 llm.Gateway 实现
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (any, error)
}

const (
	agentArchitect     = "architect"
	agentWorldBuilder  = "worldbuilder"
	agentSceneWriter   = "scenewriter"
	agentStyleAnalyze  = "stylist_analyze"
	agentStyleExecute  = "stylist_execute"
	agentCriticAuditor = "critic_audit"
)

type ArchitectInput struct {
	Premise   string
	Structure string
}

type WorldBuildInput struct {
	Concept string
	StoryID string
}

type WriteSceneInput struct {
	EventNodeID entity.NodeID
	StoryID     string
	WordCount   int
}

type AnalyzeStyleInput struct {
	SampleText string
}

type ExecuteStyleInput struct {
	SceneDraft string
	StoryID    string
}

type AuditInput struct {
	SceneText string
	StoryID   string
}

// SceneResult 场景写作结果
type SceneResult struct {
	SceneText string `json:"sceneText"`
}

// scenePackage 场景写作的上下文包，字段顺序即提示词中的序列化顺序
type scenePackage struct {
	Event              *entity.EventNode `json:"event"`
	StyleGuide         entity.JSONMap    `json:"styleGuide"`
	RelevantCharacters entity.JSONMap    `json:"relevantCharacters"`
}

// Service Agent 服务
type Service struct {
	stories   repository.StoryRepository
	generator TextGenerator
	prompts   *prompt.Registry
}

// NewService 创建 Agent 服务
func NewService(stories repository.StoryRepository, generator TextGenerator, prompts *prompt.Registry) *Service {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	return &Service{
		stories:   stories,
		generator: generator,
		prompts:   prompts,
	}
}

// Architect 根据前提与叙事结构生成情节图
func (s *Service) Architect(ctx context.Context, in ArchitectInput) (out any, err error) {
	defer observe(ctx, agentArchitect, &err)

	if isBlank(in.Premise) || isBlank(in.Structure) {
		return nil, apperrors.InvalidParam("Premise and structure are required")
	}

	return s.run(ctx, prompt.PromptArchitectV1, map[string]any{
		"premise":   in.Premise,
		"structure": in.Structure,
	}, true)
}

// WorldBuild 在现有世界观的基础上展开一个新概念
func (s *Service) WorldBuild(ctx context.Context, in WorldBuildInput) (out any, err error) {
	defer observe(ctx, agentWorldBuilder, &err)

	if isBlank(in.Concept) || isBlank(in.StoryID) {
		return nil, apperrors.InvalidParam("Concept and storyId are required")
	}

	story, err := s.loadStory(ctx, in.StoryID)
	if err != nil {
		return nil, err
	}
	worldBible, err := marshalForPrompt(story.WorldBible)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, prompt.PromptWorldBuilderV1, map[string]any{
		"world_bible": worldBible,
		"concept":     in.Concept,
	}, true)
}

// WriteScene 为情节图中的一个节点撰写场景正文
func (s *Service) WriteScene(ctx context.Context, in WriteSceneInput) (out *SceneResult, err error) {
	defer observe(ctx, agentSceneWriter, &err)

	if isBlank(string(in.EventNodeID)) || isBlank(in.StoryID) || in.WordCount == 0 {
		return nil, apperrors.InvalidParam("eventNodeId, storyId, and wordCount are required")
	}

	story, err := s.loadStory(ctx, in.StoryID)
	if err != nil {
		return nil, err
	}
	node, ok := story.FindEventNode(in.EventNodeID)
	if !ok {
		return nil, apperrors.ErrEventNodeNotFound
	}

	contextPackage, err := marshalForPrompt(scenePackage{
		Event:              node,
		StyleGuide:         story.StyleGuide,
		RelevantCharacters: story.CharacterCodex,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.run(ctx, prompt.PromptSceneWriterV1, map[string]any{
		"word_count":      in.WordCount,
		"context_package": contextPackage,
	}, false)
	if err != nil {
		return nil, err
	}

	text, ok := raw.(string)
	if !ok {
		text = fmt.Sprint(raw)
	}
	metrics.SceneWordCount.Observe(float64(len(strings.Fields(text))))
	return &SceneResult{SceneText: text}, nil
}

// AnalyzeStyle 从样例文本中提炼风格指南
func (s *Service) AnalyzeStyle(ctx context.Context, in AnalyzeStyleInput) (out any, err error) {
	defer observe(ctx, agentStyleAnalyze, &err)

	if isBlank(in.SampleText) {
		return nil, apperrors.InvalidParam("sampleText is required")
	}

	return s.run(ctx, prompt.PromptStylistAnalyzeV1, map[string]any{
		"sample_text": in.SampleText,
	}, true)
}

// ExecuteStyle 按故事的风格指南改写场景草稿
func (s *Service) ExecuteStyle(ctx context.Context, in ExecuteStyleInput) (out any, err error) {
	defer observe(ctx, agentStyleExecute, &err)

	if isBlank(in.SceneDraft) || isBlank(in.StoryID) {
		return nil, apperrors.InvalidParam("sceneDraft and storyId are required")
	}

	story, err := s.loadStory(ctx, in.StoryID)
	if err != nil {
		return nil, err
	}
	styleGuide, err := marshalForPrompt(story.StyleGuide)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, prompt.PromptStylistExecuteV1, map[string]any{
		"style_guide": styleGuide,
		"scene_draft": in.SceneDraft,
	}, true)
}

// Audit 以整个蓝图为上下文审查场景
func (s *Service) Audit(ctx context.Context, in AuditInput) (out any, err error) {
	defer observe(ctx, agentCriticAuditor, &err)

	if isBlank(in.SceneText) || isBlank(in.StoryID) {
		return nil, apperrors.InvalidParam("sceneText and storyId are required")
	}

	story, err := s.loadStory(ctx, in.StoryID)
	if err != nil {
		return nil, err
	}
	blueprint, err := marshalForPrompt(story)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, prompt.PromptCriticAuditV1, map[string]any{
		"blueprint":  blueprint,
		"scene_text": in.SceneText,
	}, true)
}

func (s *Service) loadStory(ctx context.Context, id string) (*entity.Story, error) {
	story, err := s.stories.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	story.Normalize()
	return story, nil
}

func (s *Service) run(ctx context.Context, id prompt.PromptID, vars map[string]any, structured bool) (any, error) {
	ctx, span := tracer.Start(ctx, "agent.run", trace.WithAttributes(attribute.String("prompt.id", string(id))))
	defer span.End()

	text, err := s.prompts.Render(ctx, id, vars)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	out, err := s.generator.Generate(ctx, text, llm.GenerateOptions{StructuredOutput: structured})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return nil, err
	}
	return out, nil
}

func marshalForPrompt(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", apperrors.ErrInternalError.WithError(fmt.Errorf("marshal prompt context: %w", err))
	}
	return string(b), nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func observe(ctx context.Context, agentName string, errp *error) {
	status := "success"
	if err := *errp; err != nil {
		switch apperrors.AsAppError(err).HTTPStatus {
		case http.StatusBadRequest:
			status = "invalid"
		case http.StatusNotFound:
			status = "not_found"
		case http.StatusUnprocessableEntity:
			status = "unprocessable"
		default:
			status = "error"
		}
		logger.Warn(logger.WithContext(ctx, logger.AgentKey, agentName), "agent run failed", "status", status, "error", err.Error())
	}
	metrics.AgentRunsTotal.WithLabelValues(agentName, status).Inc()
}
