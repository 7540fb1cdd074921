package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/events"
	"github.com/jafarshop/ledgersync/internal/repository"
)

// recorder writes a run's log-table entries and events. Neither may fail the run.
type recorder struct {
	runID     uuid.UUID
	syncLog   repository.SyncLogRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func (r *recorder) log(ctx context.Context, level domain.LogLevel, eventType, message string, data map[string]interface{}) {
	if r.syncLog == nil {
		return
	}
	entry := &domain.SyncLogEntry{
		RunID:     r.runID,
		Level:     level,
		EventType: eventType,
		Message:   message,
		Data:      data,
	}
	if err := r.syncLog.Create(ctx, entry); err != nil {
		r.logger.Warn("Failed to write sync log entry", zap.String("event_type", eventType), zap.Error(err))
	}
}

func (r *recorder) publish(ctx context.Context, eventType, key string, data map[string]interface{}) {
	if r.publisher == nil {
		return
	}
	event := events.Event{
		Type:  eventType,
		RunID: r.runID.String(),
		Key:   key,
		Data:  data,
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Debug("Event not published", zap.String("type", eventType), zap.Error(err))
	}
}
