package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"malt-scraper/internal/api/handlers"
	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
)

// store is the persistence and locking backend chosen from configuration
type store struct {
	repo   profiles.Repository
	locker profiles.Locker
	checks map[string]handlers.HealthCheck

	pool  *pgxpool.Pool
	redis *redis.Client
}

// openStore uses Postgres when a database URL is configured and memory otherwise,
// and Redis locks when a Redis URL is configured and in-process locks otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (*store, error) {
	s := &store{checks: make(map[string]handlers.HealthCheck)}

	if cfg.Database.URL != "" {
		pool, err := profiles.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		applied, err := profiles.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Database ready", map[string]interface{}{"migrations": applied})

		s.pool = pool
		s.repo = profiles.NewPostgresRepository(pool)
		s.checks["database"] = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set, profiles are kept in memory")
		s.repo = profiles.NewMemoryRepository()
	}

	if cfg.Redis.URL != "" {
		client, err := profiles.NewRedisClient(cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		locker := profiles.NewRedisLocker(client, cfg.Redis.LockTTL, logger)
		if err := locker.Ping(ctx); err != nil {
			client.Close()
			s.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}

		s.redis = client
		s.locker = locker
		s.checks["redis"] = locker.Ping
	} else {
		s.locker = profiles.NewLocalLocker()
	}

	return s, nil
}

func (s *store) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
