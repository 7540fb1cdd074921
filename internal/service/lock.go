package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/pkg/errors"
)

// RunLockKey is the shared lock key in the cache store
const RunLockKey = "sync:run_lock"

// DefaultRunLockTTL bounds how long a crashed process can hold the shared lock
const DefaultRunLockTTL = 2 * time.Hour

// Locker is the cross-process half of the run lock (cache.Store satisfies it)
type Locker interface {
	Lock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, owner string) error
}

// RunLock allows one sync run at a time in this process and, with a Locker, across processes
type RunLock struct {
	mu     sync.Mutex
	store  Locker
	ttl    time.Duration
	logger *zap.Logger
}

// NewRunLock creates a run lock; store may be nil for a process-local lock
func NewRunLock(store Locker, ttl time.Duration, logger *zap.Logger) *RunLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultRunLockTTL
	}
	return &RunLock{store: store, ttl: ttl, logger: logger}
}

// Acquire takes the lock for owner. It returns *errors.ErrConflict when a run is in progress.
func (l *RunLock) Acquire(ctx context.Context, owner string) (release func(), err error) {
	if !l.mu.TryLock() {
		return nil, &errors.ErrConflict{Message: "sync already in progress"}
	}

	if l.store != nil {
		ok, err := l.store.Lock(ctx, RunLockKey, owner, l.ttl)
		if err != nil {
			l.mu.Unlock()
			return nil, fmt.Errorf("failed to acquire shared run lock: %w", err)
		}
		if !ok {
			l.mu.Unlock()
			return nil, &errors.ErrConflict{Message: "sync already in progress on another instance"}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if l.store != nil {
				// The run context may already be cancelled
				unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := l.store.Unlock(unlockCtx, RunLockKey, owner); err != nil {
					l.logger.Warn("Failed to release shared run lock", zap.String("owner", owner), zap.Error(err))
				}
			}
			l.mu.Unlock()
		})
	}, nil
}
