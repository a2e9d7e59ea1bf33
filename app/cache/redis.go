package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds a client and pings it once.
func NewRedis(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis ping failed", slog.String("addr", addr), slog.Any("error", err))
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}

	logger.Info("Redis connection established", slog.String("addr", addr))
	return rdb, nil
}
