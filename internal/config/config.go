// In file: internal/config/config.go

// Package config loads FEMAChat settings from a .env file, an optional YAML
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dileep-u-k/femachat/internal/fema"
	"github.com/dileep-u-k/femachat/internal/llm"
	"github.com/dileep-u-k/femachat/internal/logger"

	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when Load is given an empty path.
const DefaultPath = "config.yaml"

type FEMAConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	RecordsKey string        `yaml:"records_key"`
	Timeout    time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey          string  `yaml:"-"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	SafetyThreshold string  `yaml:"safety_threshold"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type ToolsConfig struct {
	SearchEndpoint   string `yaml:"search_endpoint"`
	DisableWebSearch bool   `yaml:"disable_web_search"`
}

// AppConfig holds every setting of the CLI and the server.
type AppConfig struct {
	FEMA      FEMAConfig   `yaml:"fema"`
	Gemini    GeminiConfig `yaml:"gemini"`
	Cache     CacheConfig  `yaml:"cache"`
	Tools     ToolsConfig  `yaml:"tools"`
	Port      string       `yaml:"port"`
	OutputDir string       `yaml:"output_dir"`
	Questions []string     `yaml:"questions"`
}

// Default returns the built-in settings.
func Default() *AppConfig {
	return &AppConfig{
		FEMA: FEMAConfig{
			Endpoint:   fema.DefaultEndpoint,
			RecordsKey: fema.DefaultRecordsKey,
			Timeout:    fema.DefaultTimeout,
		},
		Gemini: GeminiConfig{
			Model:           llm.DefaultGeminiModel,
			Temperature:     llm.DefaultTemperature,
			MaxTokens:       llm.DefaultMaxTokens,
			SafetyThreshold: llm.DefaultSafetyThreshold,
		},
		Cache:     CacheConfig{TTL: fema.DefaultCacheTTL},
		Port:      "8080",
		OutputDir: ".",
	}
}

// Load builds the configuration. A missing YAML file is not an error; a
// malformed one is. The result is validated before it is returned.
func Load(path string) (*AppConfig, error) {
	// In release deployments the environment is provided directly.
	if os.Getenv("APP_ENV") != "release" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("No .env file found for local development")
		}
	}

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		logger.Debug("Loaded config file", zap.String("path", path))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	setString(&c.FEMA.Endpoint, "FEMA_ENDPOINT")
	setString(&c.FEMA.RecordsKey, "FEMA_RECORDS_KEY")
	if err := setDuration(&c.FEMA.Timeout, "FEMA_TIMEOUT"); err != nil {
		return err
	}

	// GOOGLE_API_KEY is what the Google SDKs read by default.
	setString(&c.Gemini.APIKey, "GOOGLE_API_KEY")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Gemini.SafetyThreshold, "GEMINI_SAFETY_THRESHOLD")
	if v, ok := lookup("GEMINI_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid GEMINI_TEMPERATURE %q: %w", v, err)
		}
		c.Gemini.Temperature = float32(f)
	}
	if v, ok := lookup("GEMINI_MAX_TOKENS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GEMINI_MAX_TOKENS %q: %w", v, err)
		}
		c.Gemini.MaxTokens = n
	}

	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	if err := setDuration(&c.Cache.TTL, "CACHE_TTL"); err != nil {
		return err
	}

	setString(&c.Tools.SearchEndpoint, "SEARCH_ENDPOINT")
	if v, ok := lookup("DISABLE_WEB_SEARCH"); ok {
		c.Tools.DisableWebSearch = misc.Truthy(v)
	}

	setString(&c.Port, "PORT")
	setString(&c.OutputDir, "OUTPUT_DIR")
	if v, ok := lookup("FEMACHAT_QUESTIONS"); ok {
		c.Questions = splitQuestions(v)
	}
	return nil
}

// Validate rejects settings that would only fail later, at request time.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.FEMA.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fema timeout must be positive, got %s", c.FEMA.Timeout))
	}
	if c.FEMA.RecordsKey == "" {
		errs = append(errs, errors.New("fema records key cannot be empty"))
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		errs = append(errs, fmt.Errorf("gemini temperature must be within [0, 2], got %v", c.Gemini.Temperature))
	}
	if c.Gemini.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("gemini max tokens must be positive, got %d", c.Gemini.MaxTokens))
	}
	if _, err := llm.ParseHarmThreshold(c.Gemini.SafetyThreshold); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl cannot be negative, got %s", c.Cache.TTL))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	return errors.Join(errs...)
}

// HasGemini reports whether the assistant can be started.
func (c *AppConfig) HasGemini() bool {
	return c.Gemini.APIKey != ""
}

// FEMAOptions converts the fetch settings for fema.NewClient.
func (c *AppConfig) FEMAOptions() fema.Options {
	return fema.Options{
		Endpoint:   c.FEMA.Endpoint,
		RecordsKey: c.FEMA.RecordsKey,
		Timeout:    c.FEMA.Timeout,
	}
}

// GeminiOptions converts the model settings for llm.NewGeminiClient.
func (c *AppConfig) GeminiOptions() llm.GeminiOptions {
	return llm.GeminiOptions{
		APIKey:          c.Gemini.APIKey,
		Model:           c.Gemini.Model,
		SafetyThreshold: c.Gemini.SafetyThreshold,
	}
}

// GenerationConfig is the per-call configuration for the assistant.
func (c *AppConfig) GenerationConfig() *llm.GenerationConfig {
	temperature := c.Gemini.Temperature
	return &llm.GenerationConfig{
		Model:       c.Gemini.Model,
		Temperature: &temperature,
		MaxTokens:   c.Gemini.MaxTokens,
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

// splitQuestions splits on "|" so questions may contain commas.
func splitQuestions(v string) []string {
	var out []string
	for _, q := range strings.Split(v, "|") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
