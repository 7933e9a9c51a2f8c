package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-thumbnail-pro/internal/app"
	"ai-thumbnail-pro/internal/config"
	"ai-thumbnail-pro/internal/handlers"
	"ai-thumbnail-pro/internal/httpclient"
	"ai-thumbnail-pro/internal/logging"
	"ai-thumbnail-pro/internal/mediagroup"
	"ai-thumbnail-pro/internal/telegram"
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
	if err := cfg.RequireTelegram(); err != nil {
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

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     &logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram init failed")
	}

	a, err := app.New(ctx, cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init failed")
	}
	defer a.Close()

	handler := handlers.New(handlers.Options{
		Telegram: tg,
		Studio:   a.Studio,
		Logger:   &logger,
	})

	go a.RunJanitor(ctx, janitorEvery, sessionIdle, handler.PruneStates)

	sem := make(chan struct{}, cfg.MaxConcurrent)
	onGroupFlush := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			handler.HandleMediaGroup(reqCtx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.MediaGroupDebounce,
		OnFlush:  onGroupFlush,
	})
	handler.SetMediaGroupAggregator(aggregator)

	logger.Info().Str("username", tg.Username()).Str("store", cfg.StoreBackend).Msg("bot started")

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Int("pending_albums", aggregator.Pending()).Msg("shutting down")
			aggregator.Close()
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info().Msg("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("handle update failed")
				}
			}(update)
		}
	}
}
