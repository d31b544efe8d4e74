package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("AUTHORAI_TEST_SET", "from-env")

	assert.Equal(t, "a=from-env", expandEnv("a=${AUTHORAI_TEST_SET}"))
	assert.Equal(t, "b=fallback", expandEnv("b=${AUTHORAI_TEST_UNSET:fallback}"))
	assert.Equal(t, "c=", expandEnv("c=${AUTHORAI_TEST_UNSET}"))
	assert.Equal(t, "d=from-env", expandEnv("d=${AUTHORAI_TEST_SET:fallback}"))
}

func TestLoadFrom_FileEnvAndDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/authorai")
	t.Setenv("PORT", "")
	t.Setenv("LLM_MODEL", "")

	dir := writeConfig(t, `
llm:
  api_key: ${LLM_API_KEY}
  model: gpt-4o
database:
  postgres:
    url: ${DATABASE_URL}
cache:
  redis:
    story_ttl: 1m
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, "postgres://u:p@db:5432/authorai", cfg.Database.Postgres.URL)
	assert.Equal(t, time.Minute, cfg.Cache.Redis.StoryTTL)
	assert.Equal(t, 5001, cfg.Server.HTTP.Port)
	assert.False(t, cfg.Cache.Redis.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_EnvironmentOverlay(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LLM_MODEL", "")
	dir := writeConfig(t, "llm:\n  model: gpt-4-turbo\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte("llm:\n  model: gpt-4o-mini\n"), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestValidate_RequiresCredentialAndConnectionString(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingLLMAPIKey))
	assert.True(t, errors.Is(err, ErrMissingDatabaseURL))

	cfg.LLM.APIKey = "sk"
	err = cfg.Validate()
	assert.False(t, errors.Is(err, ErrMissingLLMAPIKey))
	assert.True(t, errors.Is(err, ErrMissingDatabaseURL))
}
