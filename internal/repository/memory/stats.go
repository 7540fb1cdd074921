package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/repository"
)

type statsRepository struct {
	mu    sync.Mutex
	stats domain.SyncStats
}

// NewStatsRepository creates an in-memory statistics record
func NewStatsRepository() *statsRepository {
	return &statsRepository{}
}

func (r *statsRepository) Get(_ context.Context) (*domain.SyncStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := r.stats
	return &cp, nil
}

func (r *statsRepository) SaveRun(_ context.Context, run *domain.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := run.FinishedAt
	r.stats.LastSyncAt = &at
	r.stats.ProductsAdded = run.ProductsAdded
	r.stats.ProductsUpdated = run.ProductsUpdated
	r.stats.UpdatedAt = time.Now()
	return nil
}

func (r *statsRepository) IncrementCategoriesCreated(_ context.Context, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.CategoriesCreated += delta
	r.stats.UpdatedAt = time.Now()
	return nil
}

type syncLogRepository struct {
	mu      sync.Mutex
	entries []*domain.SyncLogEntry
}

// NewSyncLogRepository creates an in-memory log table
func NewSyncLogRepository() *syncLogRepository {
	return &syncLogRepository{}
}

func (r *syncLogRepository) Create(_ context.Context, entry *domain.SyncLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *syncLogRepository) ListRecent(_ context.Context, limit int) ([]*domain.SyncLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.SyncLogEntry, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *syncLogRepository) ListByRunID(_ context.Context, runID uuid.UUID) ([]*domain.SyncLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.SyncLogEntry
	for _, e := range r.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// NewRepositories creates a new set of in-memory repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Catalog: NewCatalogRepository(),
		Stats:   NewStatsRepository(),
		SyncLog: NewSyncLogRepository(),
	}
}
