package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
)

type syncLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db *sql.DB, logger *zap.Logger) *syncLogRepository {
	return &syncLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *syncLogRepository) Create(ctx context.Context, entry *domain.SyncLogEntry) error {
	query := `
		INSERT INTO sync_log (id, run_id, level, event_type, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var dataJSON []byte
	var err error
	if entry.Data != nil {
		dataJSON, err = json.Marshal(entry.Data)
		if err != nil {
			return err
		}
	}

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.RunID,
		entry.Level,
		entry.EventType,
		entry.Message,
		dataJSON,
		entry.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create sync log entry", zap.Error(err))
		return err
	}

	return nil
}

func (r *syncLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SyncLogEntry, error) {
	query := `
		SELECT id, run_id, level, event_type, message, data, created_at
		FROM sync_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list sync log entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanLogEntries(rows)
}

func (r *syncLogRepository) ListByRunID(ctx context.Context, runID uuid.UUID) ([]*domain.SyncLogEntry, error) {
	query := `
		SELECT id, run_id, level, event_type, message, data, created_at
		FROM sync_log
		WHERE run_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		r.logger.Error("Failed to get sync log entries by run ID", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanLogEntries(rows)
}

func scanLogEntries(rows *sql.Rows) ([]*domain.SyncLogEntry, error) {
	var entries []*domain.SyncLogEntry
	for rows.Next() {
		var entry domain.SyncLogEntry
		var dataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Level,
			&entry.EventType,
			&entry.Message,
			&dataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &entry.Data); err != nil {
				return nil, err
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
