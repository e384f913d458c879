// Package app wires configuration into a running pipeline. Both binaries
// build on it.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-studio/internal/config"
	"github.com/lexiqai/speech-studio/internal/credentials"
	"github.com/lexiqai/speech-studio/internal/generation"
	"github.com/lexiqai/speech-studio/internal/observability"
	"github.com/lexiqai/speech-studio/internal/studio"
	"github.com/lexiqai/speech-studio/internal/tts"
)

// App holds the process-wide pipeline. There is exactly one rotator per
// App, shared by every generation and preview.
type App struct {
	Config       *config.Config
	Store        *credentials.SQLiteStore
	Keys         *credentials.Manager
	Orchestrator *generation.Orchestrator

	logger zerolog.Logger
}

// Build opens the credential store and assembles the pipeline
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.Component("app")

	store, err := credentials.OpenSQLiteStore(ctx, cfg.KeyStorePath, cfg.KeyStoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open key store: %w", err)
	}

	keys, err := credentials.NewManager(ctx, store, cfg.GeminiAPIKeys)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load API keys: %w", err)
	}

	rotator := keys.Rotator()
	fetcher := tts.NewFetcher(tts.NewGeminiClient(cfg), rotator, observability.Component("fetcher"))
	orch := generation.NewOrchestrator(fetcher, rotator, generation.Options{
		MaxChunkSize: cfg.ChunkSize,
		PreviewText:  cfg.PreviewText,
		Logger:       observability.Component("generation"),
	})

	logger.Info().
		Str("key_store", cfg.KeyStorePath).
		Int("pool_size", rotator.Len()).
		Str("model", cfg.GeminiModel).
		Int("chunk_size", cfg.ChunkSize).
		Msg("Pipeline ready")

	return &App{
		Config:       cfg,
		Store:        store,
		Keys:         keys,
		Orchestrator: orch,
		logger:       logger,
	}, nil
}

// Handler returns the studio API handler
func (a *App) Handler() *studio.Handler {
	return studio.NewHandler(a.Orchestrator, a.Keys, a.Config.DefaultVoice, observability.Component("studio"))
}

// Routes mounts the studio API plus health endpoints on a new mux
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	a.Handler().Register(mux)
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(a.ReadinessChecks()))
	return mux
}

// ReadinessChecks reports the dependencies /ready probes
func (a *App) ReadinessChecks() map[string]observability.HealthCheckFunc {
	return map[string]observability.HealthCheckFunc{
		"key_store": func(ctx context.Context) (bool, error) {
			if err := a.Store.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
		"credentials": func(ctx context.Context) (bool, error) {
			if a.Keys.Rotator().Len() == 0 {
				return false, generation.ErrNoCredentials
			}
			return true, nil
		},
	}
}

// Close releases the credential store
func (a *App) Close() error {
	return a.Store.Close()
}
