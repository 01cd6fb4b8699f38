package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/learnpath/internal/config"
)

// Open builds the Store selected by cfg.Backend, running migrations where needed
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		slog.Info("using in-memory store")
		return NewMemoryStore(), nil

	case config.BackendSQLite:
		slog.Info("opening sqlite store", "path", cfg.SQLite.Path)
		return OpenSQLite(ctx, cfg.SQLite.Path)

	case config.BackendRedis:
		slog.Info("connecting to redis store", "address", cfg.Redis.Address, "prefix", cfg.Redis.Prefix)
		return NewRedisStore(ctx, RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})

	case config.BackendPostgres:
		slog.Info("connecting to postgres store", "dsn", describeDSN(cfg.Database.DSN))
		store, err := NewPostgresStore(ctx, PostgresConfig{
			DSN:      cfg.Database.DSN,
			MaxConns: int32(cfg.Database.MaxConns),
			MinConns: int32(cfg.Database.MinConns),
		})
		if err != nil {
			return nil, err
		}
		if err := MigrateStore(ctx, store, cfg.Database.MigrationsDir); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalid, cfg.Backend)
	}
}
