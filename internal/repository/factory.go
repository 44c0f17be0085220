package repository

import (
	"context"
	"fmt"
	"io"

	"garage-backend/internal/config"
	"garage-backend/pkg/database"
	redisclient "garage-backend/pkg/redis"

	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NewStore builds the store selected by cfg.Storage.Driver. The returned
// closer releases the underlying connection.
func NewStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := closerFunc(func() error { return nil })

	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		logger.Info("using memory storage", zap.Int("quota_bytes", cfg.Storage.QuotaBytes))
		return NewMemoryStore(cfg.Storage.QuotaBytes), noop, nil

	case config.DriverRedis:
		client, err := redisclient.NewClient(cfg.Redis, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("redis storage: %w", err)
		}
		logger.Info("using redis storage", zap.String("prefix", cfg.Redis.KeyPrefix))
		return NewRedisStore(client, cfg.Redis.KeyPrefix), client, nil

	case config.DriverMongo:
		db, err := database.Connect(ctx, cfg.Storage.MongoURI, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo storage: %w", err)
		}
		logger.Info("using mongo storage", zap.String("database", db.Name()))
		return NewMongoStore(db), closerFunc(func() error { return database.Disconnect(db.Client()) }), nil

	case config.DriverSQLite:
		store, err := NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite storage: %w", err)
		}
		logger.Info("using sqlite storage", zap.String("path", cfg.Storage.SQLitePath))
		return store, store, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
