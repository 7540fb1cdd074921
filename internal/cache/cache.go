// Package cache holds the key-value stores shared across sync runs: the ledger token
// cache and the run lock. Redis is used when configured, otherwise an in-process store.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
)

// Store is implemented by MemoryCache and RedisCache
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Lock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, owner string) error
	Close() error
}

// New returns a Redis store when REDIS_ADDR is set, otherwise an in-process one
func New(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (Store, error) {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not set, using in-process cache")
		return NewMemoryCache(10 * time.Minute), nil
	}
	rc, err := NewRedisCache(ctx, cfg, "ledgersync")
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis cache", zap.String("addr", cfg.Addr))
	return rc, nil
}
