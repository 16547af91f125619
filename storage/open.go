package storage

import (
	"context"
	"fmt"
	"time"

	"imdb-rank/config"
	"imdb-rank/utils"
)

// OpenStore opens the movie store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (MovieStore, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		logger.Info("[storage] Using SQLite store at %s", cfg.SQLitePath)
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		logger.Info("[storage] Using PostgreSQL store at %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return NewPostgresStore(ctx, cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StoreDriver)
	}
}

// OpenRanking connects the Redis ranking mirror, or returns nil when no
// Redis address is configured.
func OpenRanking(ctx context.Context, cfg *config.Config, logger *utils.Logger) (RankingPublisher, error) {
	if cfg.RedisAddr == "" {
		logger.Debug("[storage] REDIS_ADDR not set, ranking mirror disabled")
		return nil, nil
	}
	r, err := NewRedisRanking(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	logger.Info("[storage] Ranking mirror connected to %s", cfg.RedisAddr)
	return r, nil
}
