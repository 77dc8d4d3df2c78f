package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alicecomoura/hook-shopping-cart/internal/config"
	"github.com/alicecomoura/hook-shopping-cart/internal/storage"
	"github.com/alicecomoura/hook-shopping-cart/internal/storage/memory"
	pgstore "github.com/alicecomoura/hook-shopping-cart/internal/storage/postgres"
	redisstore "github.com/alicecomoura/hook-shopping-cart/internal/storage/redis"
	"github.com/alicecomoura/hook-shopping-cart/pkg/database"
)

// openStorage connects the configured snapshot backend. The returned close
// function releases its connections.
func openStorage(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (storage.KeyValue, func(), error) {
	switch cfg.StorageBackend {
	case storage.BackendMemory:
		logger.Warn("using in-memory storage; the cart will not survive a restart")
		return memory.New(), func() {}, nil

	case storage.BackendRedis:
		rcfg := cfg.Redis()
		rdb, err := database.NewRedisClient(ctx, rcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", rcfg.Addr()),
			slog.Int("db", rcfg.DB),
		)
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				logger.Error("redis close error", slog.String("error", err.Error()))
			}
		}
		return redisstore.New(rdb, cfg.SnapshotTTL()), closeFn, nil

	case storage.BackendPostgres:
		pgcfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgcfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pgstore.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		if err := database.RegisterPoolMetrics(reg, pool, config.ServiceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		return pgstore.New(pool), pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
