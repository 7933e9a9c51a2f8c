package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-thumbnail-pro/internal/app"
	"ai-thumbnail-pro/internal/auth"
	"ai-thumbnail-pro/internal/config"
	"ai-thumbnail-pro/internal/httpclient"
	"ai-thumbnail-pro/internal/logging"
	"ai-thumbnail-pro/internal/web"
)

const (
	janitorEvery = 10 * time.Minute
	sessionIdle  = 2 * time.Hour
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		Logger:     &logger,
	})

	a, err := app.New(ctx, cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init failed")
	}
	defer a.Close()

	go a.RunJanitor(ctx, janitorEvery, sessionIdle)

	srv := web.New(web.Options{
		Studio:         a.Studio,
		Themes:         a.Themes,
		Auth:           auth.NewChecker(auth.Credentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword}),
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         &logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.WebAddr).Str("store", cfg.StoreBackend).Msg("web server started")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("web server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
