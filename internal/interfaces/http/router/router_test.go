package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"authorai-api/internal/application/agent"
	"authorai-api/internal/application/story"
	"authorai-api/internal/config"
	"authorai-api/internal/domain/entity"
	"authorai-api/internal/domain/repository"
	"authorai-api/internal/infrastructure/llm"
	"authorai-api/internal/interfaces/http/handler"
	apperrors "authorai-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryStoryRepository 以 JSON 快照保存，模拟数据库的值语义
type memoryStoryRepository struct {
	mu      sync.Mutex
	records map[string][]byte
}

func newMemoryStoryRepository() *memoryStoryRepository {
	return &memoryStoryRepository{records: map[string][]byte{}}
}

func (r *memoryStoryRepository) Create(_ context.Context, s *entity.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Normalize()
	s.ID = uuid.NewString()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.records[s.ID] = b
	return nil
}

func (r *memoryStoryRepository) GetByID(_ context.Context, id string) (*entity.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id)
}

func (r *memoryStoryRepository) Replace(_ context.Context, id string, s *entity.Story) (*entity.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(id)
	if err != nil {
		return nil, err
	}
	current.ReplaceContent(s)
	b, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	r.records[id] = b
	return current, nil
}

func (r *memoryStoryRepository) load(id string) (*entity.Story, error) {
	b, ok := r.records[id]
	if !ok {
		return nil, repository.ErrStoryNotFound
	}
	var s entity.Story
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (any, error) {
	args := m.Called(ctx, prompt, opts)
	return args.Get(0), args.Error(1)
}

type testServer struct {
	engine *gin.Engine
	repo   *memoryStoryRepository
	gen    *mockGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Name = "authorai-api"
	cfg.Observability.Metrics.Path = "/metrics"

	repo := newMemoryStoryRepository()
	gen := &mockGenerator{}

	r := New(cfg, Handlers{
		Health: handler.NewHealthHandler(nil, nil),
		Story:  handler.NewStoryHandler(story.NewService(repo)),
		Agent:  handler.NewAgentHandler(agent.NewService(repo, gen, nil)),
	}, nil)

	return &testServer{engine: r.Engine(), repo: repo, gen: gen}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createStory(t *testing.T) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/stories", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

// seedStory 创建空白蓝图后用 doc 整体替换，返回 ID
func (s *testServer) seedStory(t *testing.T, doc map[string]any) string {
	t.Helper()
	id := s.createStory(t)["_id"].(string)
	w := s.do(t, http.MethodPut, "/api/stories/"+id, doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.RootMessage, w.Body.String())
}

func TestStories_CreateTwiceGivesDistinctIDsAndDefaults(t *testing.T) {
	s := newTestServer(t)

	first := s.createStory(t)
	second := s.createStory(t)

	assert.NotEmpty(t, first["_id"])
	assert.NotEqual(t, first["_id"], second["_id"])
	assert.Equal(t, "", first["premise"])
	assert.Equal(t, []any{}, first["plotGraph"])
	assert.Equal(t, map[string]any{"locations": map[string]any{}, "magicSystems": map[string]any{}}, first["worldBible"])
	assert.Equal(t, map[string]any{}, first["styleGuide"])
	assert.Equal(t, map[string]any{}, first["characterCodex"])
}

func TestStories_CreateIgnoresBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/stories", map[string]any{
		"premise":    "seeded",
		"plotGraph":  []any{map[string]any{"id": 1, "title": "Start"}},
		"styleGuide": map[string]any{"tone": "bright"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)

	assert.Equal(t, "", created["premise"])
	assert.Equal(t, []any{}, created["plotGraph"])
	assert.Equal(t, map[string]any{}, created["styleGuide"])
}

func TestStories_GetMissing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/stories/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Story not found", decode(t, w)["msg"])
}

func TestStories_ReplaceThenGet(t *testing.T) {
	s := newTestServer(t)
	id := s.createStory(t)["_id"].(string)

	doc := map[string]any{
		"premise":   "A lighthouse keeper hears the sea speak",
		"structure": "Three-Act",
		"plotGraph": []any{
			map[string]any{"id": "1", "title": "Storm", "description": "The voice begins", "expectedWordCount": float64(1500)},
			map[string]any{"id": float64(2), "title": "Calm", "description": "The voice falls silent", "expectedWordCount": float64(800)},
		},
		"worldBible":     map[string]any{"locations": map[string]any{"Gull Rock": "the lighthouse"}, "magicSystems": map[string]any{}},
		"styleGuide":     map[string]any{"tone": "eerie"},
		"characterCodex": map[string]any{"Maren": map[string]any{"role": "keeper"}},
	}

	w := s.do(t, http.MethodPut, "/api/stories/"+id, doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/stories/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)

	assert.Equal(t, id, got["_id"])
	for k, v := range doc {
		assert.Equal(t, v, got[k], k)
	}
}

func TestStories_ReplaceErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/stories/"+uuid.NewString(), map[string]any{"premise": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	created := s.createStory(t)
	w = s.do(t, http.MethodPut, "/api/stories/"+created["_id"].(string), `{"premise": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStories_Merge(t *testing.T) {
	s := newTestServer(t)
	id := s.createStory(t)["_id"].(string)

	w := s.do(t, http.MethodPost, "/api/stories/"+id+"/merge", map[string]any{
		"targetPath": "worldBible.magicSystems",
		"key":        "Tidecraft",
		"value":      map[string]any{"cost": "memory"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	merged := decode(t, w)
	magic := merged["worldBible"].(map[string]any)["magicSystems"].(map[string]any)
	assert.Equal(t, map[string]any{"cost": "memory"}, magic["Tidecraft"])

	w = s.do(t, http.MethodPost, "/api/stories/"+id+"/merge", map[string]any{"targetPath": "plotGraph", "key": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/stories/"+id+"/merge", map[string]any{"key": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/stories/"+uuid.NewString()+"/merge", map[string]any{"targetPath": "styleGuide", "key": "tone", "value": "dry"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgents_MissingFieldsReturn400WithoutLLMCall(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path    string
		body    map[string]any
		wantMsg string
	}{
		{"/api/agents/architect", map[string]any{"premise": "p"}, "Premise and structure are required"},
		{"/api/agents/worldbuilder", map[string]any{"concept": "c"}, "Concept and storyId are required"},
		{"/api/agents/scenewriter", map[string]any{"eventNodeId": 1, "storyId": "s"}, "eventNodeId, storyId, and wordCount are required"},
		{"/api/agents/stylist/analyze", map[string]any{}, "sampleText is required"},
		{"/api/agents/stylist/execute", map[string]any{"storyId": "s"}, "sceneDraft and storyId are required"},
		{"/api/agents/critic/audit", map[string]any{"sceneText": "t"}, "sceneText and storyId are required"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, decode(t, w)["msg"])
		})
	}

	s.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAgents_ArchitectReturnsProviderOutputUnmodified(t *testing.T) {
	s := newTestServer(t)

	provider := map[string]any{
		"eventNodes": []any{
			map[string]any{"id": json.Number("1"), "title": "Inciting", "description": "d", "expectedWordCount": json.Number("2000")},
		},
	}
	s.gen.On("Generate", mock.Anything, mock.Anything, llm.GenerateOptions{StructuredOutput: true}).Return(provider, nil).Once()

	w := s.do(t, http.MethodPost, "/api/agents/architect", map[string]any{"premise": "p", "structure": "s"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"eventNodes":[{"id":1,"title":"Inciting","description":"d","expectedWordCount":2000}]}`, w.Body.String())
}

func TestAgents_Unprocessable(t *testing.T) {
	s := newTestServer(t)

	s.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrLLMUnprocessable.WithDetail(map[string]any{"error": "prompt incomplete"})).Once()

	w := s.do(t, http.MethodPost, "/api/agents/stylist/analyze", map[string]any{"sampleText": "The fog rolled in."})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, apperrors.ErrLLMUnprocessable.Message, body["msg"])
	assert.Equal(t, map[string]any{"error": "prompt incomplete"}, body["detail"])
}

func TestAgents_GenericFailure(t *testing.T) {
	s := newTestServer(t)

	s.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrLLMCallFailed.WithError(errors.New("connection reset"))).Once()

	w := s.do(t, http.MethodPost, "/api/agents/architect", map[string]any{"premise": "p", "structure": "s"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to get a response from the LLM API.", decode(t, w)["msg"])
}

func TestAgents_SceneWriter(t *testing.T) {
	s := newTestServer(t)
	id := s.seedStory(t, map[string]any{
		"plotGraph": []any{map[string]any{"id": 7, "title": "Harbor", "description": "Arrival", "expectedWordCount": 900}},
	})

	t.Run("unknown node is 404 without llm call", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/agents/scenewriter", map[string]any{"eventNodeId": "99", "storyId": id, "wordCount": 500})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Event node not found", decode(t, w)["msg"])
		s.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown story is 404", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/agents/scenewriter", map[string]any{"eventNodeId": "7", "storyId": uuid.NewString(), "wordCount": 500})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Story not found", decode(t, w)["msg"])
	})

	t.Run("numeric node id matches", func(t *testing.T) {
		s.gen.On("Generate", mock.Anything, mock.Anything, llm.GenerateOptions{}).Return("The ferry docked at dawn.", nil).Once()

		w := s.do(t, http.MethodPost, "/api/agents/scenewriter", map[string]any{"eventNodeId": 7, "storyId": id, "wordCount": 500})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"sceneText":"The ferry docked at dawn."}`, w.Body.String())
	})
}

func TestAgents_OversizedFieldsRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/agents/architect", map[string]any{
		"premise":   "p",
		"structure": strings.Repeat("x", 256),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/agents/scenewriter", map[string]any{
		"eventNodeId": "1",
		"storyId":     uuid.NewString(),
		"wordCount":   50000,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAgents_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/agents/architect", `{"premise": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
