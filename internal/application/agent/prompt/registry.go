package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptArchitectV1      PromptID = "architect_v1"
	PromptWorldBuilderV1   PromptID = "worldbuilder_v1"
	PromptSceneWriterV1    PromptID = "scenewriter_v1"
	PromptStylistAnalyzeV1 PromptID = "stylist_analyze_v1"
	PromptStylistExecuteV1 PromptID = "stylist_execute_v1"
	PromptCriticAuditV1    PromptID = "critic_audit_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	path, err := resolvePromptFile(id)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(path)
	if err != nil {
		return nil, err
	}

	// 模板正文含 JSON 花括号，使用 Go template 而不是 FString
	tpl := einoprompt.FromMessages(schema.GoTemplate, schema.UserMessage(user))
	r.cache[id] = tpl
	return tpl, nil
}

// Render 渲染模板并返回单条 user 消息的文本
func (r *Registry) Render(ctx context.Context, id PromptID, vars map[string]any) (string, error) {
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return "", err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("format prompt %s: %w", id, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt %s rendered no message", id)
	}
	return msgs[0].Content, nil
}

func resolvePromptFile(id PromptID) (string, error) {
	switch id {
	case PromptArchitectV1, PromptWorldBuilderV1, PromptSceneWriterV1,
		PromptStylistAnalyzeV1, PromptStylistExecuteV1, PromptCriticAuditV1:
		return "templates/" + string(id) + ".txt", nil
	default:
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
