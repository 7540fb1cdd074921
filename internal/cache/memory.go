package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	apperrors "github.com/jafarshop/ledgersync/pkg/errors"
)

// MemoryCache is an in-process cache used when no Redis is configured.
// Values do not survive a restart, so the first run after boot re-authenticates.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-process cache with the given cleanup interval
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, apperrors.ErrCacheMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, apperrors.ErrCacheMiss
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Set stores value; ttl <= 0 keeps it until deleted
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	b := make([]byte, len(value))
	copy(b, value)
	c.store.Set(key, b, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Lock sets key only when absent; the owner value is returned by Unlock checks
func (c *MemoryCache) Lock(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	if err := c.store.Add(key, []byte(owner), ttl); err != nil {
		return false, nil
	}
	return true, nil
}

// Unlock deletes key only when it still belongs to owner
func (c *MemoryCache) Unlock(_ context.Context, key, owner string) error {
	v, ok := c.store.Get(key)
	if !ok {
		return nil
	}
	if b, ok := v.([]byte); ok && string(b) == owner {
		c.store.Delete(key)
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}
