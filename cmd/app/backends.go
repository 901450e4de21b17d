package main

import (
	"context"
	"fmt"

	"dubbing-orchestrator/internal/config"
	"dubbing-orchestrator/internal/domain/ports/adapter"
	"dubbing-orchestrator/internal/domain/ports/repository"
	"dubbing-orchestrator/internal/infra/adapters/storage"
	pg "dubbing-orchestrator/internal/infra/db/postgres"
	"dubbing-orchestrator/internal/infra/memory"
	red "dubbing-orchestrator/internal/infra/redis"

	"github.com/rs/zerolog"
)

// backends holds the store, media store and locker selected by config.
type backends struct {
	jobs    repository.JobRepository
	media   adapter.MediaStore
	locker  adapter.Locker
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func buildBackends(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*backends, error) {
	b := &backends{}

	// a Redis connection serves both the redis store and the shared locker
	var redisClient *red.Client
	if cfg.Store.Backend == "redis" || cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		redisClient = c
		b.closers = append(b.closers, func() { _ = c.Close() })
	}

	switch cfg.Store.Backend {
	case "postgres":
		pool, err := pg.Connect(ctx, &cfg.Database)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, logger); err != nil {
			b.Close()
			return nil, err
		}
		b.jobs = pg.NewJobRepo(pool)
	case "redis":
		b.jobs = red.NewJobRepo(redisClient)
	default:
		b.jobs = memory.NewJobRepo()
	}

	if redisClient != nil {
		b.locker = red.NewLocker(redisClient)
	} else {
		b.locker = memory.NewLocker()
	}

	switch cfg.Storage.Backend {
	case "minio":
		m, err := storage.NewMinioMediaStore(ctx, cfg.Storage.Minio, logger)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("minio: %w", err)
		}
		b.media = m
	case "none":
		b.media = storage.NopMediaStore{}
	default:
		b.media = storage.NewLocalMediaStore(cfg.UploadsDir())
	}

	logger.Info().
		Str("store", cfg.Store.Backend).
		Str("storage", cfg.Storage.Backend).
		Bool("redis_lock", redisClient != nil).
		Msg("backends ready")
	return b, nil
}
