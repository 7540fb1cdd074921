package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/events"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/internal/repository/memory"
)

type fakeSource struct {
	items        []domain.LedgerItem
	stock        domain.StockFeed
	catalogErr   error
	stockErr     error
	catalogCalls int32
}

func (f *fakeSource) FetchCatalog(context.Context) ([]domain.LedgerItem, error) {
	atomic.AddInt32(&f.catalogCalls, 1)
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.items, nil
}

func (f *fakeSource) FetchStock(context.Context) (domain.StockFeed, error) {
	if f.stockErr != nil {
		return nil, f.stockErr
	}
	return f.stock, nil
}

func (f *fakeSource) calls() int32 {
	return atomic.LoadInt32(&f.catalogCalls)
}

// flakyCatalog fails writes for selected SKUs and can fail the SKU index
type flakyCatalog struct {
	repository.CatalogRepository
	failSKUs map[string]bool
	indexErr error
}

func (c *flakyCatalog) SKUIndex(ctx context.Context) (map[string]string, error) {
	if c.indexErr != nil {
		return nil, c.indexErr
	}
	return c.CatalogRepository.SKUIndex(ctx)
}

func (c *flakyCatalog) CreateItem(ctx context.Context, item *domain.StorefrontItem) error {
	if c.failSKUs[item.SKU] {
		return errors.New("storefront rejected item")
	}
	return c.CatalogRepository.CreateItem(ctx, item)
}

func (c *flakyCatalog) UpdateItem(ctx context.Context, item *domain.StorefrontItem) error {
	if c.failSKUs[item.SKU] {
		return errors.New("storefront rejected item")
	}
	return c.CatalogRepository.UpdateItem(ctx, item)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type memoryCatalog interface {
	repository.CatalogRepository
	Items() []*domain.StorefrontItem
	Categories() []*domain.Category
}

type testEnv struct {
	catalog   memoryCatalog
	repos     *repository.Repositories
	publisher *recordingPublisher
}

func newTestEnv() *testEnv {
	catalog := memory.NewCatalogRepository()
	return &testEnv{
		catalog: catalog,
		repos: &repository.Repositories{
			Catalog: catalog,
			Stats:   memory.NewStatsRepository(),
			SyncLog: memory.NewSyncLogRepository(),
		},
		publisher: &recordingPublisher{},
	}
}

func (e *testEnv) itemBySKU(sku string) *domain.StorefrontItem {
	for _, item := range e.catalog.Items() {
		if item.SKU == sku {
			return item
		}
	}
	return nil
}

func ledgerItem(code, name, group string, retail string) domain.LedgerItem {
	return domain.LedgerItem{
		ID:           domain.LedgerID("id-" + code),
		Code:         code,
		Name:         name,
		Description:  name + " description",
		DefaultGroup: group,
		Type:         "Goods",
		Unit:         "pcs",
		VatRate:      "20",
		Prices: domain.PriceList{
			{Number: 1, Name: "Wholesale", Type: 1, Value: decimal.RequireFromString("1.00")},
			{Number: 2, Name: "Retail Price", Type: 2, Value: decimal.RequireFromString(retail)},
		},
	}
}

func stockFeed(records map[string]string) domain.StockFeed {
	feed := domain.StockFeed{}
	for id, raw := range records {
		feed[id] = json.RawMessage(raw)
	}
	return feed
}
