package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccessToken is the cached ledger bearer credential
type AccessToken struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the token can still be used at t
func (t *AccessToken) ValidAt(now time.Time) bool {
	return t != nil && t.Value != "" && t.ExpiresAt.After(now)
}

// LedgerItem is one product record from GET /Items
type LedgerItem struct {
	ID            LedgerID   `json:"Id"`
	Code          string     `json:"Code"`
	Name          string     `json:"Name"`
	Description   string     `json:"Description"`
	DefaultGroup  string     `json:"DefaultGroup"`
	Type          LedgerText `json:"Type"`
	Height        float64    `json:"Height"`
	Width         float64    `json:"Width"`
	Length        float64    `json:"Length"`
	Prices        PriceList  `json:"Prices"`
	VatRate       LedgerText `json:"VatRate"`
	Unit          LedgerText `json:"Unit"`
	Barcode       LedgerText `json:"Barcode"`
	CatalogNumber LedgerText `json:"CatalogNumber"`
	SalesCategory LedgerText `json:"SalesCategory"`
}

// PriceEntry is one entry of a ledger item's price list. Type 2 is the retail price.
type PriceEntry struct {
	Number int             `json:"Number"`
	Name   string          `json:"Name"`
	Value  decimal.Decimal `json:"Value"`
	Type   int             `json:"Type"`
}

// StockWarehouseRecord is one warehouse row of GET /Stocks
type StockWarehouseRecord struct {
	ItemCode    string   `json:"ItemCode"`
	Quantity    float64  `json:"Quantity"`
	Reservation float64  `json:"Reservation"`
	Unit        string   `json:"Unit"`
	WarehouseID LedgerID `json:"WarehouseId"`
}

// StockFeed maps ledger item id to its raw list of warehouse records.
// Entries stay raw so one malformed entry does not fail the whole feed.
type StockFeed map[string]json.RawMessage

// NormalizedStock is the per-SKU stock view used by the reconciler
type NormalizedStock struct {
	Quantity    float64 `json:"quantity"`
	Reservation float64 `json:"reservation"`
	Available   float64 `json:"available"`
	Unit        string  `json:"unit"`
	WarehouseID string  `json:"warehouse_id"`
}

// Dimensions of a storefront item; zero means unset
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StorefrontItem is the catalog entity kept in sync with the ledger
type StorefrontItem struct {
	ID            string
	SKU           string
	Name          string
	Description   string
	Status        ItemStatus
	Type          ItemType
	RegularPrice  decimal.Decimal
	ManageStock   bool
	StockQuantity float64
	StockStatus   StockStatus
	Dimensions    Dimensions
	CategoryIDs   []string
	Metadata      map[string]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category is a storefront product category, looked up by exact name
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
}

// SyncRun is the outcome of one orchestrator invocation
type SyncRun struct {
	ID                uuid.UUID `json:"id"`
	State             RunState  `json:"state"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	ProductsAdded     int       `json:"products_added"`
	ProductsUpdated   int       `json:"products_updated"`
	CategoriesCreated int       `json:"categories_created"`
	ItemsFailed       int       `json:"items_failed"`
	ItemsSkipped      int       `json:"items_skipped"`
	StockDegraded     bool      `json:"stock_degraded"`
	Error             string    `json:"error,omitempty"`
}

// SyncStats is the persisted statistics record shown to operators
type SyncStats struct {
	LastSyncAt        *time.Time `json:"last_sync_at"`
	ProductsAdded     int        `json:"products_added"`
	ProductsUpdated   int        `json:"products_updated"`
	CategoriesCreated int        `json:"categories_created"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SyncLogEntry is one row of the sync log table
type SyncLogEntry struct {
	ID        uuid.UUID              `json:"id"`
	RunID     uuid.UUID              `json:"run_id"`
	Level     LogLevel               `json:"level"`
	EventType string                 `json:"event_type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"` // JSONB
	CreatedAt time.Time              `json:"created_at"`
}
