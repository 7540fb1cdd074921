package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Catalog: NewCatalogRepository(db, logger),
		Stats:   NewStatsRepository(db, logger),
		SyncLog: NewSyncLogRepository(db, logger),
	}
}

// NewSupportRepositories keeps stats and logs in Postgres while the catalog lives elsewhere
func NewSupportRepositories(db *sql.DB, catalog repository.CatalogRepository, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Catalog: catalog,
		Stats:   NewStatsRepository(db, logger),
		SyncLog: NewSyncLogRepository(db, logger),
	}
}
