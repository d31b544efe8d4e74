package postgres

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authorai-api/internal/domain/repository"
	apperrors "authorai-api/pkg/errors"
)

func TestStoryRepository_MalformedIDIsNotFound(t *testing.T) {
	repo := &StoryRepository{}

	for _, id := range []string{"", "abc", "5a3f7c8e-1111"} {
		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, repository.ErrStoryNotFound, "id %q", id)
	}
}

func TestDBError_MapsToDatabaseError(t *testing.T) {
	cause := errors.New("connection refused")

	err := dbError("get", cause)
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, repository.ErrStoryNotFound)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeDatabaseError, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.Contains(t, appErr.Error(), "failed to get story")
}
