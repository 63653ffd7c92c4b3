// In file: internal/app/app.go

// Package app wires the configured services together for the CLI and the
// HTTP server.
package app

import (
	"context"
	"fmt"

	"github.com/dileep-u-k/femachat/internal/agent"
	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/config"
	"github.com/dileep-u-k/femachat/internal/fema"
	"github.com/dileep-u-k/femachat/internal/llm"
	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/tools"

	"go.uber.org/zap"
)

// App is the composition root shared by both binaries.
type App struct {
	Config  *config.AppConfig
	Fetcher fema.Fetcher
	Store   *claims.Store
	Tools   *tools.ToolManager
	// Assistant is nil when no Gemini key is configured.
	Assistant *agent.Assistant

	closers []func() error
}

// New builds the services described by cfg. An unreachable Redis only
// disables the fetch cache; a bad Gemini setup is an error.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{Config: cfg, Store: claims.NewStore()}

	opts := cfg.FEMAOptions()
	if cfg.Cache.RedisAddr != "" {
		cache, err := fema.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err != nil {
			logger.Warn("FEMA response cache disabled", zap.Error(err))
		} else {
			opts.Cache = cache
			a.closers = append(a.closers, cache.Close)
			logger.Info("FEMA response cache enabled", zap.String("redis", cfg.Cache.RedisAddr), zap.Duration("ttl", cfg.Cache.TTL))
		}
	}
	fetcher, err := fema.NewClient(opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	var llmClient llm.LLMClient
	if cfg.HasGemini() {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiOptions())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, gemini.Close)
		llmClient = gemini
	}

	a.init(fetcher, llmClient)
	return a, nil
}

// NewWithClients builds an App around the given fetcher and model client.
// client may be nil.
func NewWithClients(cfg *config.AppConfig, fetcher fema.Fetcher, client llm.LLMClient) *App {
	a := &App{Config: cfg, Store: claims.NewStore()}
	a.init(fetcher, client)
	return a
}

func (a *App) init(fetcher fema.Fetcher, client llm.LLMClient) {
	a.Fetcher = fetcher
	// NewDefaultManager only fails on a nil fetcher or store, neither possible here.
	a.Tools, _ = tools.NewDefaultManager(tools.Options{
		Store:          a.Store,
		Fetcher:        fetcher,
		SearchEndpoint: a.Config.Tools.SearchEndpoint,
		DisableSearch:  a.Config.Tools.DisableWebSearch,
	})
	logger.Info("Tool manager initialized", zap.Int("tools", a.Tools.ToolCount()))

	if client != nil {
		a.Assistant, _ = agent.NewAssistant(client, a.Tools, a.Config.GenerationConfig())
	}
}

// LoadZip fetches the claims reported for zip and installs them.
func (a *App) LoadZip(ctx context.Context, zip string) (*claims.Snapshot, error) {
	return a.Load(ctx, fema.QueryParameters{claims.IdentityParam: zip})
}

// Load fetches params and installs the resulting table.
func (a *App) Load(ctx context.Context, params fema.QueryParameters) (*claims.Snapshot, error) {
	snap, err := fema.Load(ctx, a.Fetcher, a.Store, params)
	if err != nil {
		return snap, fmt.Errorf("failed to load claims: %w", err)
	}
	return snap, nil
}

// Close releases the cache and model connections.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
