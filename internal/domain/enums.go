package domain

// RunState is a state of the sync orchestrator
type RunState string

const (
	RunStateIdle            RunState = "idle"
	RunStateFetchingCatalog RunState = "fetching_catalog"
	RunStateFetchingStock   RunState = "fetching_stock"
	RunStateReconciling     RunState = "reconciling"
	RunStateDone            RunState = "done"
	RunStateAborted         RunState = "aborted"
)

// IsTerminal reports whether no further transition is possible
func (s RunState) IsTerminal() bool {
	return s == RunStateDone || s == RunStateAborted
}

// CanTransitionTo checks if a state transition is valid
func (s RunState) CanTransitionTo(next RunState) bool {
	switch s {
	case RunStateIdle:
		return next == RunStateFetchingCatalog
	case RunStateFetchingCatalog:
		return next == RunStateFetchingStock || next == RunStateAborted
	case RunStateFetchingStock:
		// stock failures degrade instead of aborting
		return next == RunStateReconciling || next == RunStateAborted
	case RunStateReconciling:
		return next == RunStateDone
	default:
		return false // Terminal states
	}
}

// StockStatus mirrors the storefront stock status values
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// StockStatusFor returns instock iff available > 0
func StockStatusFor(available float64) StockStatus {
	if available > 0 {
		return StockStatusInStock
	}
	return StockStatusOutOfStock
}

// ItemStatus is the publication status of a storefront item
type ItemStatus string

const (
	ItemStatusPublish ItemStatus = "publish"
	ItemStatusDraft   ItemStatus = "draft"
	ItemStatusTrash   ItemStatus = "trash"
)

// ItemType is the storefront product type; the sync only creates simple products
type ItemType string

const (
	ItemTypeSimple   ItemType = "simple"
	ItemTypeVariable ItemType = "variable"
)

// LogLevel of a sync log entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LedgerMetaPrefix marks storefront metadata owned by the sync; other keys belong to the shop
const LedgerMetaPrefix = "_ledger_"

// Sync log event types
const (
	EventSyncStarted   = "sync.started"
	EventSyncCompleted = "sync.completed"
	EventSyncAborted   = "sync.aborted"
	EventStockDegraded = "sync.stock_degraded"
	EventItemFailed    = "item.failed"
	EventItemCreated   = "product.created"
	EventItemUpdated   = "product.updated"
	EventCategoryAdded = "category.created"
)
