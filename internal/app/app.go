// Package app wires configuration into a ready-to-run Syncer for the server and CLIs.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jafarshop/ledgersync/internal/cache"
	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/events"
	"github.com/jafarshop/ledgersync/internal/ledger"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/internal/repository/memory"
	"github.com/jafarshop/ledgersync/internal/repository/postgres"
	"github.com/jafarshop/ledgersync/internal/service"
	"github.com/jafarshop/ledgersync/internal/woocommerce"
)

// App holds the long-lived dependencies of a sync process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Cache     cache.Store
	DB        *sql.DB
	Repos     *repository.Repositories
	Tokens    *ledger.TokenManager
	Ledger    *ledger.Client
	Publisher events.Publisher
	Syncer    *service.Syncer
}

// NewLogger builds the production or development zap logger at cfg.LogLevel
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

// NewLedger builds the token manager and feed client over the configured transport and cache
func NewLedger(cfg *config.Config, store cache.Store, logger *zap.Logger) (*ledger.TokenManager, *ledger.Client, error) {
	transport, err := ledger.NewTransport(cfg.Ledger, logger)
	if err != nil {
		return nil, nil, err
	}
	tokens := ledger.NewTokenManager(cfg.Ledger, transport, store, cfg.Sync.TokenSafetyBuffer, logger)
	return tokens, ledger.NewClient(transport, tokens, logger), nil
}

// New connects every collaborator selected by cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := cache.New(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.Cache = store

	a.Tokens, a.Ledger, err = NewLedger(cfg, store, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	switch cfg.Storefront.Driver {
	case config.StorefrontMemory:
		a.Repos = memory.NewRepositories()
	case config.StorefrontPostgres, config.StorefrontWooCommerce:
		db, err := postgres.NewConnection(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.DB = db
		if cfg.Storefront.Driver == config.StorefrontPostgres {
			a.Repos = postgres.NewRepositories(db, logger)
		} else {
			catalog := woocommerce.NewClient(cfg.Storefront.WooCommerce, logger)
			a.Repos = postgres.NewSupportRepositories(db, catalog, logger)
		}
	default:
		a.Close()
		return nil, fmt.Errorf("unsupported storefront driver %q", cfg.Storefront.Driver)
	}
	logger.Info("Storefront driver selected", zap.String("driver", cfg.Storefront.Driver))

	a.Publisher = events.NewPublisher(cfg.Kafka, logger)
	lock := service.NewRunLock(store, cfg.Sync.LockTTL, logger)
	a.Syncer = service.NewSyncer(a.Ledger, a.Repos, lock, a.Publisher, logger)

	return a, nil
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("Failed to close cache", zap.Error(err))
		}
	}
}
