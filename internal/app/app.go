// Package app wires configuration into a ready Service. Both binaries use it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"bahikhata/backend/internal/cache"
	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/service"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/store/memory"
	pgstore "bahikhata/backend/internal/store/postgres"
)

type App struct {
	Config  config.Config
	Repo    store.Repository
	Service *service.Service
	closers []func() error
}

// Build picks postgres when DATABASE_URL is set and the seeded in-memory
// store otherwise. An unreachable database is fatal; an unreachable redis
// falls back to no caching.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	a := &App{Config: cfg}

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set; refusing in-memory fallback: %w", err)
		}
		a.Repo = pg
		a.closers = append(a.closers, pg.Close)
		log.Info().Msg("repository: postgres")
	} else {
		a.Repo = memory.NewSeeded()
		log.Info().Msg("repository: in-memory")
	}

	reports := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using noop cache")
			_ = redisCache.Close()
		} else {
			reports = redisCache
			a.closers = append(a.closers, redisCache.Close)
			log.Info().Msg("cache: redis")
		}
	} else {
		log.Info().Msg("cache: noop")
	}

	svcLog := log.With().Str("component", "service").Logger()
	a.Service = service.New(a.Repo, service.Options{
		ReportCache:       reports,
		ReportTTL:         cfg.ReportCacheTTL(),
		DefaultBundleRate: cfg.DefaultBundleRate,
		Location:          loc,
		Logger:            &svcLog,
	})
	return a, nil
}

// Close releases the database and cache connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
