package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FEMA_ENDPOINT", "FEMA_RECORDS_KEY", "FEMA_TIMEOUT",
	"GOOGLE_API_KEY", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_TEMPERATURE",
	"GEMINI_MAX_TOKENS", "GEMINI_SAFETY_THRESHOLD",
	"REDIS_ADDR", "CACHE_TTL", "SEARCH_ENDPOINT", "DISABLE_WEB_SEARCH",
	"PORT", "OUTPUT_DIR", "FEMACHAT_QUESTIONS",
}

// isolate clears the config environment and runs the test from an empty
// directory so no stray .env or config.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("APP_ENV", "release")
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.HasGemini())
	assert.Equal(t, 30*time.Second, cfg.FEMA.Timeout)
	assert.Equal(t, float32(0.6), cfg.Gemini.Temperature)
	assert.Equal(t, 200, cfg.Gemini.MaxTokens)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "femachat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fema:
  timeout: 10s
gemini:
  model: gemini-1.5-pro
  temperature: 0.2
cache:
  redis_addr: localhost:6379
  ttl: 1h
port: "9000"
questions:
  - What is the total number of claims?
`), 0o644))

	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("PORT", "9100")
	t.Setenv("DISABLE_WEB_SEARCH", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.FEMA.Timeout)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	assert.Equal(t, float32(0.2), cfg.Gemini.Temperature)
	assert.Equal(t, 200, cfg.Gemini.MaxTokens, "unset keys keep their default")
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "9100", cfg.Port, "environment wins over the file")
	assert.True(t, cfg.Tools.DisableWebSearch)
	assert.Equal(t, []string{"What is the total number of claims?"}, cfg.Questions)
	assert.True(t, cfg.HasGemini())

	gen := cfg.GenerationConfig()
	require.NotNil(t, gen.Temperature)
	assert.Equal(t, float32(0.2), *gen.Temperature)
	assert.Equal(t, "secret", cfg.GeminiOptions().APIKey)
	assert.Equal(t, 10*time.Second, cfg.FEMAOptions().Timeout)
}

func TestGeminiKeyPrecedence(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "google")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.Gemini.APIKey)

	t.Setenv("GEMINI_API_KEY", "gemini")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Gemini.APIKey)
}

func TestLoadQuestionsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("FEMACHAT_QUESTIONS", "How many claims? | What zones, and how many? ||")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"How many claims?", "What zones, and how many?"}, cfg.Questions)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "bad timeout", env: map[string]string{"FEMA_TIMEOUT": "soon"}},
		{name: "zero timeout", env: map[string]string{"FEMA_TIMEOUT": "0s"}},
		{name: "bad temperature", env: map[string]string{"GEMINI_TEMPERATURE": "warm"}},
		{name: "temperature out of range", env: map[string]string{"GEMINI_TEMPERATURE": "3"}},
		{name: "bad max tokens", env: map[string]string{"GEMINI_MAX_TOKENS": "-1"}},
		{name: "bad threshold", env: map[string]string{"GEMINI_SAFETY_THRESHOLD": "BLOCK_ALL"}},
		{name: "bad port", env: map[string]string{"PORT": "http"}},
		{name: "bad ttl", env: map[string]string{"CACHE_TTL": "-1m"}},
		{name: "malformed yaml", yaml: "fema: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(dir, "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.FEMA.Timeout = 0
	cfg.Gemini.MaxTokens = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "max tokens")
}
