// Package app wires the shared services both binaries run on.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ai-thumbnail-pro/internal/config"
	"ai-thumbnail-pro/internal/gemini"
	"ai-thumbnail-pro/internal/generate"
	"ai-thumbnail-pro/internal/imageprep"
	"ai-thumbnail-pro/internal/kv"
	"ai-thumbnail-pro/internal/prefs"
	"ai-thumbnail-pro/internal/session"
	"ai-thumbnail-pro/internal/studio"
)

type App struct {
	Studio     *studio.Service
	Themes     *prefs.Themes
	Workspaces *session.Manager
	Store      kv.Store

	logger  zerolog.Logger
	closeKV func()
}

// New builds the studio and its collaborators. Close releases the store.
func New(ctx context.Context, cfg config.Config, httpClient *http.Client, logger zerolog.Logger) (*App, error) {
	store, closeKV, err := kv.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}

	editor := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.ImageModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})

	enhancer, err := gemini.NewEnhancer(ctx, gemini.EnhancerOptions{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.TextModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		closeKV()
		return nil, fmt.Errorf("init enhancer: %w", err)
	}

	gen := generate.New(generate.Options{
		Editor:     editor,
		Normalizer: imageprep.New(imageprep.Options{Quality: cfg.JPEGQuality, Logger: &logger}),
		Logger:     &logger,
	})

	workspaces := session.NewManager()
	history := session.NewHistory(session.HistoryOptions{
		Store:       store,
		MaxMessages: cfg.MaxHistoryMessages,
		Logger:      &logger,
	})

	return &App{
		Studio: studio.New(studio.Options{
			Generator:  gen,
			Enhancer:   enhancer,
			Workspaces: workspaces,
			History:    history,
			Logger:     &logger,
		}),
		Themes:     prefs.NewThemes(store),
		Workspaces: workspaces,
		Store:      store,
		logger:     logger,
		closeKV:    closeKV,
	}, nil
}

// RunJanitor drops workspaces idle for longer than maxIdle until ctx ends.
// Stored chat history is kept; re-uploading the same photos reattaches to it.
func (a *App) RunJanitor(ctx context.Context, every, maxIdle time.Duration, extra ...func(time.Duration) int) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := a.Workspaces.Prune(maxIdle)
			for _, prune := range extra {
				removed += prune(maxIdle)
			}
			if removed > 0 {
				a.logger.Info().Int("removed", removed).Msg("pruned idle sessions")
			}
		}
	}
}

func (a *App) Close() {
	a.closeKV()
}
