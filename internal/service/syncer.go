package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/events"
	"github.com/jafarshop/ledgersync/internal/ledger"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

// FeedSource is the ledger side of a run (ledger.Client satisfies it)
type FeedSource interface {
	FetchCatalog(ctx context.Context) ([]domain.LedgerItem, error)
	FetchStock(ctx context.Context) (domain.StockFeed, error)
}

// Syncer runs the fetch, normalize and reconcile pipeline
type Syncer struct {
	source    FeedSource
	repos     *repository.Repositories
	lock      *RunLock
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncer creates a syncer. A nil lock means a process-local lock; a nil publisher drops events.
func NewSyncer(source FeedSource, repos *repository.Repositories, lock *RunLock, publisher events.Publisher, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = NewRunLock(nil, 0, logger)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Syncer{
		source:    source,
		repos:     repos,
		lock:      lock,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RunSync performs one full run. It returns *errors.ErrConflict without side effects when
// another run holds the lock, and the aborted run plus the cause when the catalog cannot be read.
func (s *Syncer) RunSync(ctx context.Context) (*domain.SyncRun, error) {
	run := &domain.SyncRun{
		ID:        uuid.New(),
		State:     domain.RunStateIdle,
		StartedAt: s.now(),
	}

	release, err := s.lock.Acquire(ctx, run.ID.String())
	if err != nil {
		if errors.IsConflict(err) {
			s.logger.Info("Sync skipped", zap.String("reason", err.Error()))
		}
		return nil, err
	}
	defer release()

	ctx, span := otel.Tracer("ledgersync.sync").Start(ctx, "Sync.Run",
		trace.WithAttributes(attribute.String("run.id", run.ID.String())),
	)
	defer span.End()

	logger := s.logger.With(zap.String("run_id", run.ID.String()))
	rec := &recorder{runID: run.ID, syncLog: s.repos.SyncLog, publisher: s.publisher, logger: logger}

	logger.Info("Sync started")
	rec.log(ctx, domain.LogLevelInfo, domain.EventSyncStarted, "sync started", nil)
	rec.publish(ctx, domain.EventSyncStarted, "", nil)

	s.transition(run, domain.RunStateFetchingCatalog, logger)
	items, err := s.source.FetchCatalog(ctx)
	if err != nil {
		return s.abort(ctx, run, rec, logger, fmt.Errorf("failed to fetch catalog: %w", err))
	}
	logger.Info("Fetched ledger catalog", zap.Int("items", len(items)))

	s.transition(run, domain.RunStateFetchingStock, logger)
	stock := map[string]domain.NormalizedStock{}
	feed, err := s.source.FetchStock(ctx)
	if err != nil {
		run.StockDegraded = true
		syncStockDegraded.Inc()
		logger.Warn("Stock fetch failed, continuing without stock data", zap.Error(err))
		rec.log(ctx, domain.LogLevelWarning, domain.EventStockDegraded, err.Error(), nil)
		rec.publish(ctx, domain.EventStockDegraded, "", map[string]interface{}{"error": err.Error()})
	} else {
		stock = ledger.NormalizeStock(feed)
		logger.Info("Fetched ledger stock", zap.Int("skus", len(stock)))
	}

	skuIndex, err := s.repos.Catalog.SKUIndex(ctx)
	if err != nil {
		return s.abort(ctx, run, rec, logger, fmt.Errorf("failed to load storefront SKU index: %w", err))
	}

	s.transition(run, domain.RunStateReconciling, logger)
	reconciler := NewReconciler(s.repos, s.publisher, run.ID, logger)
	result := reconciler.Reconcile(ctx, items, stock, skuIndex)

	run.ProductsAdded = result.Added
	run.ProductsUpdated = result.Updated
	run.CategoriesCreated = result.CategoriesCreated
	run.ItemsFailed = result.Failed
	run.ItemsSkipped = result.Skipped
	run.FinishedAt = s.now()
	s.transition(run, domain.RunStateDone, logger)

	syncRunsTotal.WithLabelValues(string(run.State)).Inc()
	syncRunDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	span.SetAttributes(
		attribute.Int("products.added", run.ProductsAdded),
		attribute.Int("products.updated", run.ProductsUpdated),
		attribute.Int("items.failed", run.ItemsFailed),
		attribute.Bool("stock.degraded", run.StockDegraded),
	)

	summary := runSummary(run)
	if err := s.repos.Stats.SaveRun(ctx, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stats not saved")
		logger.Error("Failed to save sync stats", zap.Error(err))
		rec.log(ctx, domain.LogLevelError, domain.EventSyncCompleted, "sync completed but stats were not saved: "+err.Error(), summary)
		return run, fmt.Errorf("failed to save sync stats: %w", err)
	}
	syncLastSuccess.Set(float64(run.FinishedAt.Unix()))
	span.SetStatus(codes.Ok, "Sync completed")

	logger.Info("Sync completed",
		zap.Int("added", run.ProductsAdded),
		zap.Int("updated", run.ProductsUpdated),
		zap.Int("failed", run.ItemsFailed),
		zap.Int("skipped", run.ItemsSkipped),
		zap.Int("categories_created", run.CategoriesCreated),
		zap.Bool("stock_degraded", run.StockDegraded),
	)
	rec.log(ctx, domain.LogLevelInfo, domain.EventSyncCompleted, "sync completed", summary)
	rec.publish(ctx, domain.EventSyncCompleted, "", summary)

	return run, nil
}

func (s *Syncer) abort(ctx context.Context, run *domain.SyncRun, rec *recorder, logger *zap.Logger, cause error) (*domain.SyncRun, error) {
	run.Error = cause.Error()
	run.FinishedAt = s.now()
	s.transition(run, domain.RunStateAborted, logger)
	syncRunsTotal.WithLabelValues(string(run.State)).Inc()

	span := trace.SpanFromContext(ctx)
	span.RecordError(cause)
	span.SetStatus(codes.Error, "Sync aborted")

	logger.Error("Sync aborted", zap.Error(cause))
	rec.log(ctx, domain.LogLevelError, domain.EventSyncAborted, cause.Error(), nil)
	rec.publish(ctx, domain.EventSyncAborted, "", map[string]interface{}{"error": cause.Error()})
	return run, cause
}

func (s *Syncer) transition(run *domain.SyncRun, next domain.RunState, logger *zap.Logger) {
	if !run.State.CanTransitionTo(next) {
		// Programming error; keep the run moving but make it visible
		logger.Error("Invalid run state transition", zap.String("from", string(run.State)), zap.String("to", string(next)))
	}
	logger.Debug("Run state", zap.String("from", string(run.State)), zap.String("to", string(next)))
	run.State = next
}

func runSummary(run *domain.SyncRun) map[string]interface{} {
	return map[string]interface{}{
		"products_added":     run.ProductsAdded,
		"products_updated":   run.ProductsUpdated,
		"categories_created": run.CategoriesCreated,
		"items_failed":       run.ItemsFailed,
		"items_skipped":      run.ItemsSkipped,
		"stock_degraded":     run.StockDegraded,
	}
}
