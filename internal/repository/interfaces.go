package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/ledgersync/internal/domain"
)

// CatalogRepository is the storefront catalog the reconciler writes to
type CatalogRepository interface {
	// SKUIndex maps every non-trashed storefront SKU to its item id
	SKUIndex(ctx context.Context) (map[string]string, error)
	GetItem(ctx context.Context, id string) (*domain.StorefrontItem, error)
	CreateItem(ctx context.Context, item *domain.StorefrontItem) error
	UpdateItem(ctx context.Context, item *domain.StorefrontItem) error
	// FindCategoryByName returns *errors.ErrNotFound when no category has exactly this name
	FindCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
}

// StatsRepository persists the run statistics record
type StatsRepository interface {
	Get(ctx context.Context) (*domain.SyncStats, error)
	SaveRun(ctx context.Context, run *domain.SyncRun) error
	IncrementCategoriesCreated(ctx context.Context, delta int) error
}

// SyncLogRepository is the persistent log table
type SyncLogRepository interface {
	Create(ctx context.Context, entry *domain.SyncLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*domain.SyncLogEntry, error)
	ListByRunID(ctx context.Context, runID uuid.UUID) ([]*domain.SyncLogEntry, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Catalog CatalogRepository
	Stats   StatsRepository
	SyncLog SyncLogRepository
}
