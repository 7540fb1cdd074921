package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
)

type statsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatsRepository creates a repository over the single-row sync_stats table
func NewStatsRepository(db *sql.DB, logger *zap.Logger) *statsRepository {
	return &statsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *statsRepository) Get(ctx context.Context) (*domain.SyncStats, error) {
	query := `
		SELECT last_sync_at, products_added, products_updated, categories_created, updated_at
		FROM sync_stats
		WHERE id = 1
	`

	var stats domain.SyncStats
	var lastSyncAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query).Scan(
		&lastSyncAt,
		&stats.ProductsAdded,
		&stats.ProductsUpdated,
		&stats.CategoriesCreated,
		&stats.UpdatedAt,
	)

	// No run has completed yet
	if err == sql.ErrNoRows {
		return &domain.SyncStats{}, nil
	}
	if err != nil {
		r.logger.Error("Failed to get sync stats", zap.Error(err))
		return nil, err
	}

	if lastSyncAt.Valid {
		stats.LastSyncAt = &lastSyncAt.Time
	}

	return &stats, nil
}

func (r *statsRepository) SaveRun(ctx context.Context, run *domain.SyncRun) error {
	query := `
		INSERT INTO sync_stats (id, last_sync_at, products_added, products_updated, categories_created, updated_at)
		VALUES (1, $1, $2, $3, 0, $4)
		ON CONFLICT (id) DO UPDATE SET
			last_sync_at = EXCLUDED.last_sync_at,
			products_added = EXCLUDED.products_added,
			products_updated = EXCLUDED.products_updated,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		run.FinishedAt,
		run.ProductsAdded,
		run.ProductsUpdated,
		time.Now(),
	)

	if err != nil {
		r.logger.Error("Failed to save sync stats", zap.String("run_id", run.ID.String()), zap.Error(err))
		return err
	}

	return nil
}

func (r *statsRepository) IncrementCategoriesCreated(ctx context.Context, delta int) error {
	query := `
		INSERT INTO sync_stats (id, products_added, products_updated, categories_created, updated_at)
		VALUES (1, 0, 0, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			categories_created = sync_stats.categories_created + EXCLUDED.categories_created,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, delta, time.Now())
	if err != nil {
		r.logger.Error("Failed to increment categories created", zap.Error(err))
		return err
	}

	return nil
}
