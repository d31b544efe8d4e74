// Package llm 封装对外部 Chat Completion 服务的调用
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"authorai-api/internal/config"
	apperrors "authorai-api/pkg/errors"
	"authorai-api/pkg/logger"
	"authorai-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

const (
	// DefaultModel 未指定模型时使用
	DefaultModel = "gpt-4-turbo"
	// DefaultTemperature 固定采样温度
	DefaultTemperature = 0.7
)

var (
	// ErrMissingAPIKey 未配置 API Key，网关无法构建
	ErrMissingAPIKey = errors.New("LLM_API_KEY is not defined in the environment variables")
	// ErrEmptyResponse 模型返回空内容
	ErrEmptyResponse = errors.New("LLM response format is invalid")
)

// GenerateOptions 单次调用参数
type GenerateOptions struct {
	// Model 为空时使用网关默认模型
	Model string
	// StructuredOutput 请求 JSON 对象输出并解析返回
	StructuredOutput bool
}

// Gateway LLM 网关
type Gateway struct {
	chatModel    model.BaseChatModel
	defaultModel string
	temperature  float32
}

// NewGateway 根据配置创建基于 Eino OpenAI 适配器的网关
func NewGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	llmCfg := cfg.LLM
	if strings.TrimSpace(llmCfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	modelName := strings.TrimSpace(llmCfg.Model)
	if modelName == "" {
		modelName = DefaultModel
	}
	temperature := float32(llmCfg.Temperature)
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	chatModel, err := openaiopts.NewChatModel(ctx, &openaiopts.ChatModelConfig{
		APIKey:      llmCfg.APIKey,
		BaseURL:     llmCfg.BaseURL,
		Model:       modelName,
		Temperature: &temperature,
		Timeout:     llmCfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model: %w", err)
	}

	return NewGatewayWithModel(chatModel, modelName, temperature), nil
}

// NewGatewayWithModel 使用已有的 ChatModel 创建网关
func NewGatewayWithModel(chatModel model.BaseChatModel, defaultModel string, temperature float32) *Gateway {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Gateway{
		chatModel:    chatModel,
		defaultModel: defaultModel,
		temperature:  temperature,
	}
}

// Generate 发送单条 user 消息；结构化模式返回解析后的 JSON 值，否则返回原始文本
func (g *Gateway) Generate(ctx context.Context, prompt string, opts GenerateOptions) (any, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.InvalidParam("prompt must not be empty")
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = g.defaultModel
	}

	ctx, span := tracer.Start(ctx, "llm.Generate", trace.WithAttributes(
		attribute.String("llm.model", modelName),
		attribute.Bool("llm.structured_output", opts.StructuredOutput),
		attribute.Int("llm.prompt_chars", len(prompt)),
	))
	defer span.End()

	logger.Info(ctx, "sending prompt to llm", "model", modelName, "structured_output", opts.StructuredOutput)

	start := time.Now()
	msg, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, g.callOptions(modelName, opts)...)
	metrics.LLMCallDuration.WithLabelValues(modelName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(modelName, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm call failed")
		logger.Error(ctx, "error calling llm api", err, "model", modelName)
		return nil, classifyError(err)
	}

	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		metrics.LLMCallTotal.WithLabelValues(modelName, "empty").Inc()
		span.SetStatus(codes.Error, "empty response")
		return nil, apperrors.ErrLLMCallFailed.WithError(ErrEmptyResponse)
	}

	recordUsage(modelName, msg)
	metrics.LLMCallTotal.WithLabelValues(modelName, "success").Inc()
	logger.Info(ctx, "llm response received", "model", modelName, "latency_ms", time.Since(start).Milliseconds())

	if !opts.StructuredOutput {
		return msg.Content, nil
	}

	parsed, err := parseJSON(msg.Content)
	if err != nil {
		span.RecordError(err)
		logger.Error(ctx, "llm returned malformed json", err, "model", modelName)
		return nil, apperrors.ErrLLMCallFailed.WithError(err)
	}
	return parsed, nil
}

func (g *Gateway) callOptions(modelName string, opts GenerateOptions) []model.Option {
	callOpts := []model.Option{
		model.WithModel(modelName),
		model.WithTemperature(g.temperature),
	}
	if opts.StructuredOutput {
		callOpts = append(callOpts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_object",
			},
		}))
	}
	return callOpts
}

func recordUsage(modelName string, msg *schema.Message) {
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	usage := msg.ResponseMeta.Usage
	metrics.LLMTokensUsed.WithLabelValues(modelName, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(modelName, "completion").Add(float64(usage.CompletionTokens))
}

// parseJSON 解析模型输出；数字保留为 json.Number 以便原样回传
func parseJSON(content string) (any, error) {
	raw := extractJSONValue(content)
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse llm json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to parse llm json: trailing content")
	}
	return out, nil
}

// extractJSONValue 截取第一个 JSON 对象/数组，容忍模型在前后夹杂 ``` 代码块等文本
func extractJSONValue(s string) string {
	raw := strings.TrimSpace(s)
	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")

	start, end := -1, -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(raw, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(raw, "]")
	}
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
