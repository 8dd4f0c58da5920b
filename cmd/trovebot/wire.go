package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deusflow/trovebot/internal/app"
	"github.com/deusflow/trovebot/internal/config"
	"github.com/deusflow/trovebot/internal/history"
	"github.com/deusflow/trovebot/internal/narrow"
	"github.com/deusflow/trovebot/internal/randutil"
	"github.com/deusflow/trovebot/internal/schedule"
	"github.com/deusflow/trovebot/internal/stopwords"
	"github.com/deusflow/trovebot/internal/trove"
)

// newEngine wires the search client, stopwords and narrowing engine. One
// engine is shared by every invocation in the process.
func newEngine(cfg *config.Config, rng randutil.Source, log *slog.Logger) (*narrow.Engine, error) {
	words, err := stopwords.Load(cfg.StopwordsPath)
	if err != nil {
		return nil, err
	}
	picker, err := stopwords.NewPicker(words, rng)
	if err != nil {
		return nil, err
	}
	log.Info("stopwords loaded", "path", cfg.StopwordsPath, "count", picker.Len())

	client := trove.NewClient(trove.Options{
		BaseURL: cfg.TroveAPIURL,
		APIKey:  cfg.TroveAPIKey,
		Timeout: cfg.RequestTimeout,
		Retry: trove.RetryPolicy{
			MaxAttempts:       cfg.RetryAttempts,
			Backoff:           cfg.RetryBackoff,
			Multiplier:        cfg.RetryMultiplier,
			MaxBackoff:        cfg.RetryMaxBackoff,
			TransientStatuses: cfg.RetryStatuses,
		},
		Logger: log,
	})

	ncfg := narrow.DefaultConfig()
	ncfg.ZeroResultRetries = cfg.ZeroResultRetries
	ncfg.Zone = cfg.TroveZone
	return narrow.New(client, picker, rng, ncfg, log), nil
}

func newBot(cfg *config.Config, engine *narrow.Engine, rng randutil.Source, log *slog.Logger) (*app.Bot, error) {
	h := history.NewFileHistory(cfg.HistoryFilePath, cfg.HistoryTTLHours)
	if err := h.Load(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	log.Info("history loaded", "path", cfg.HistoryFilePath, "entries", h.Len())

	return app.New(app.Options{
		Finder:            engine,
		Publisher:         app.NewWriterPublisher(os.Stdout),
		History:           h,
		Keywords:          cfg.Keywords,
		Filters:           cfg.RequiredFilters(),
		DuplicateAttempts: cfg.DuplicateAttempts,
		Rand:              rng,
		Logger:            log,
	}), nil
}

// newLocker returns a Redis lock when REDIS_ADDR is set. The returned close
// function is never nil.
func newLocker(ctx context.Context, cfg *config.Config, log *slog.Logger) (schedule.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return schedule.NopLocker{}, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("using redis invocation lock", "addr", cfg.RedisAddr)
	return schedule.NewRedisLocker(rdb), func() { _ = rdb.Close() }, nil
}
