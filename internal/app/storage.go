package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/rocketshoes/internal/config"
	"github.com/utafrali/rocketshoes/internal/repository"
	"github.com/utafrali/rocketshoes/internal/repository/memory"
	"github.com/utafrali/rocketshoes/internal/repository/postgres"
	redisrepo "github.com/utafrali/rocketshoes/internal/repository/redis"
	"github.com/utafrali/rocketshoes/pkg/database"
)

// storage is the snapshot repository selected by CART_STORAGE_BACKEND plus
// whatever has to be released on shutdown.
type storage struct {
	repo  repository.SnapshotRepository
	close func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
			slog.Duration("ttl", cfg.CartTTLDuration()),
		)
		return &storage{
			repo:  redisrepo.NewSnapshotRepository(rdb, cfg.CartTTLDuration()),
			close: rdb.Close,
		}, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
			DSN:             cfg.PostgresDSN,
			MaxConns:        cfg.PostgresMaxConns,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL", slog.Int("max_conns", int(cfg.PostgresMaxConns)))

		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		return &storage{
			repo:  postgres.NewSnapshotRepository(pool),
			close: func() error { pool.Close(); return nil },
		}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory cart storage, the cart will not survive a restart")
		return &storage{
			repo:  memory.NewSnapshotRepository(),
			close: func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
