package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSyncInterval is the daily schedule
const DefaultSyncInterval = 24 * time.Hour

// RunSyncLoop runs a sync (immediately when runOnStartup), then every interval until ctx is done.
// Call from a goroutine.
func RunSyncLoop(ctx context.Context, syncer *Syncer, interval time.Duration, runOnStartup bool, logger *zap.Logger) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	if runOnStartup {
		runScheduled(ctx, syncer, logger)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runScheduled(ctx, syncer, logger)
		}
	}
}

func runScheduled(ctx context.Context, syncer *Syncer, logger *zap.Logger) {
	if _, err := syncer.RunSync(ctx); err != nil {
		logger.Warn("Scheduled sync did not complete", zap.Error(err))
	}
}
