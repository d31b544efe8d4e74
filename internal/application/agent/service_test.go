package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"authorai-api/internal/domain/entity"
	"authorai-api/internal/infrastructure/llm"
	apperrors "authorai-api/pkg/errors"
)

type mockStoryRepository struct {
	mock.Mock
}

func (m *mockStoryRepository) Create(ctx context.Context, story *entity.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *mockStoryRepository) GetByID(ctx context.Context, id string) (*entity.Story, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*entity.Story), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStoryRepository) Replace(ctx context.Context, id string, story *entity.Story) (*entity.Story, error) {
	args := m.Called(ctx, id, story)
	if s := args.Get(0); s != nil {
		return s.(*entity.Story), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (any, error) {
	args := m.Called(ctx, prompt, opts)
	return args.Get(0), args.Error(1)
}

func sampleStory() *entity.Story {
	s := entity.NewStory()
	s.ID = "5a3f7c8e-1111-4a2b-9c3d-000000000001"
	s.Premise = "A cartographer maps a city that moves"
	s.PlotGraph = []entity.EventNode{
		{ID: "1", Title: "The Map Shifts", Description: "Streets rearrange overnight", ExpectedWordCount: 1200},
		{ID: "2", Title: "The Archive", Description: "Old maps disagree", ExpectedWordCount: 900},
	}
	s.StyleGuide = entity.JSONMap{"tone": "wistful"}
	s.CharacterCodex = entity.JSONMap{"Ilse": map[string]any{"role": "cartographer"}}
	return s
}

func newTestService() (*Service, *mockStoryRepository, *mockGenerator) {
	repo := &mockStoryRepository{}
	gen := &mockGenerator{}
	return NewService(repo, gen, nil), repo, gen
}

func structured() llm.GenerateOptions {
	return llm.GenerateOptions{StructuredOutput: true}
}

func TestService_MissingInputsNeverCallCollaborators(t *testing.T) {
	svc, repo, gen := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() error
		wantMsg string
	}{
		{
			name: "architect without structure",
			call: func() error {
				_, err := svc.Architect(ctx, ArchitectInput{Premise: "p"})
				return err
			},
			wantMsg: "Premise and structure are required",
		},
		{
			name: "worldbuilder without story",
			call: func() error {
				_, err := svc.WorldBuild(ctx, WorldBuildInput{Concept: "c"})
				return err
			},
			wantMsg: "Concept and storyId are required",
		},
		{
			name: "scenewriter without word count",
			call: func() error {
				_, err := svc.WriteScene(ctx, WriteSceneInput{EventNodeID: "1", StoryID: "s"})
				return err
			},
			wantMsg: "eventNodeId, storyId, and wordCount are required",
		},
		{
			name: "stylist analyze with blank sample",
			call: func() error {
				_, err := svc.AnalyzeStyle(ctx, AnalyzeStyleInput{SampleText: "   "})
				return err
			},
			wantMsg: "sampleText is required",
		},
		{
			name: "stylist execute without draft",
			call: func() error {
				_, err := svc.ExecuteStyle(ctx, ExecuteStyleInput{StoryID: "s"})
				return err
			},
			wantMsg: "sceneDraft and storyId are required",
		},
		{
			name: "critic without scene",
			call: func() error {
				_, err := svc.Audit(ctx, AuditInput{StoryID: "s"})
				return err
			},
			wantMsg: "sceneText and storyId are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			appErr := apperrors.AsAppError(err)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Architect_ReturnsProviderOutputUnchanged(t *testing.T) {
	svc, _, gen := newTestService()
	ctx := context.Background()

	provider := map[string]any{"nodes": []any{map[string]any{"id": json.Number("1"), "title": "Start"}}}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, `Premise: "Time thief"`) && assert.Contains(t, p, `Narrative Structure: "Hero's Journey"`)
	}), structured()).Return(provider, nil).Once()

	out, err := svc.Architect(ctx, ArchitectInput{Premise: "Time thief", Structure: "Hero's Journey"})
	require.NoError(t, err)
	assert.Equal(t, provider, out)
	gen.AssertExpectations(t)
}

func TestService_WorldBuild_UsesWorldBible(t *testing.T) {
	svc, repo, gen := newTestService()
	ctx := context.Background()
	story := sampleStory()

	repo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, `{"locations":{},"magicSystems":{}}`) && assert.Contains(t, p, `"Sky harbor"`)
	}), structured()).Return(map[string]any{"name": "Sky harbor"}, nil).Once()

	out, err := svc.WorldBuild(ctx, WorldBuildInput{Concept: "Sky harbor", StoryID: story.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Sky harbor"}, out)
	repo.AssertExpectations(t)
	gen.AssertExpectations(t)
}

func TestService_StoryNotFound(t *testing.T) {
	svc, repo, gen := newTestService()
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrStoryNotFound)

	_, err := svc.ExecuteStyle(ctx, ExecuteStyleInput{SceneDraft: "d", StoryID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoryNotFound)
	assert.Equal(t, http.StatusNotFound, apperrors.AsAppError(err).HTTPStatus)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_WriteScene(t *testing.T) {
	svc, repo, gen := newTestService()
	ctx := context.Background()
	story := sampleStory()

	repo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "approximately 800 words") &&
			assert.Contains(t, p, `"event":{"id":"2","title":"The Archive"`) &&
			assert.Contains(t, p, `"styleGuide":{"tone":"wistful"}`) &&
			assert.Contains(t, p, `"relevantCharacters":{"Ilse":{"role":"cartographer"}}`)
	}), llm.GenerateOptions{}).Return("Ilse opened the drawer of maps.", nil).Once()

	out, err := svc.WriteScene(ctx, WriteSceneInput{EventNodeID: "2", StoryID: story.ID, WordCount: 800})
	require.NoError(t, err)
	assert.Equal(t, &SceneResult{SceneText: "Ilse opened the drawer of maps."}, out)
	gen.AssertExpectations(t)
}

func TestService_WriteScene_UnknownNode(t *testing.T) {
	svc, repo, gen := newTestService()
	ctx := context.Background()
	story := sampleStory()

	repo.On("GetByID", ctx, story.ID).Return(story, nil).Once()

	_, err := svc.WriteScene(ctx, WriteSceneInput{EventNodeID: "42", StoryID: story.ID, WordCount: 500})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEventNodeNotFound)
	assert.Equal(t, "Event node not found", apperrors.AsAppError(err).Message)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Audit_SendsWholeBlueprint(t *testing.T) {
	svc, repo, gen := newTestService()
	ctx := context.Background()
	story := sampleStory()

	repo.On("GetByID", ctx, story.ID).Return(story, nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, `"_id":"`+story.ID+`"`) &&
			assert.Contains(t, p, `"premise":"A cartographer maps a city that moves"`) &&
			assert.Contains(t, p, `Scene Text to Audit: "scene"`)
	}), structured()).Return(map[string]any{"status": "pass", "issues": []any{}}, nil).Once()

	out, err := svc.Audit(ctx, AuditInput{SceneText: "scene", StoryID: story.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "pass", "issues": []any{}}, out)
}

func TestService_AnalyzeStyle_PropagatesGatewayErrors(t *testing.T) {
	svc, _, gen := newTestService()
	ctx := context.Background()

	unprocessable := apperrors.ErrLLMUnprocessable.WithDetail("missing context")
	gen.On("Generate", mock.Anything, mock.Anything, structured()).Return(nil, unprocessable).Once()

	_, err := svc.AnalyzeStyle(ctx, AnalyzeStyleInput{SampleText: "It was late."})
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	assert.Equal(t, "missing context", appErr.Detail)

	gen.On("Generate", mock.Anything, mock.Anything, structured()).Return(nil, apperrors.ErrLLMCallFailed.WithError(errors.New("timeout"))).Once()
	_, err = svc.AnalyzeStyle(ctx, AnalyzeStyleInput{SampleText: "It was late."})
	assert.ErrorIs(t, err, apperrors.ErrLLMCallFailed)
}
