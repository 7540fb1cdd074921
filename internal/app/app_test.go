package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/events"
)

func newLedgerServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Token":
			fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
		case "/api/Items":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			fmt.Fprint(w, `[
				{"Id":1,"Code":"SKU-1","Name":"Hammer","DefaultGroup":"Tools","Length":30,
				 "Prices":[{"Number":1,"Name":"Wholesale","Value":8,"Type":1},{"Number":2,"Name":"Retail","Value":12.5,"Type":2}]},
				{"Id":"2","Code":"","Name":"No code"}
			]`)
		case "/api/Stocks":
			fmt.Fprint(w, `{"1":[{"ItemCode":"SKU-1","Quantity":5,"Reservation":2,"Unit":"pcs","WarehouseId":1}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func memoryConfig(ledgerURL string) *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "debug",
		Ledger: config.LedgerConfig{
			BaseURL:   ledgerURL,
			Username:  "sync",
			Password:  "secret",
			Transport: config.TransportBasic,
		},
		Storefront: config.StorefrontConfig{Driver: config.StorefrontMemory},
		Sync:       config.SyncConfig{Interval: time.Hour},
	}
}

func TestNew_MemoryDriverEndToEnd(t *testing.T) {
	ledgerSrv := newLedgerServer(t)
	ctx := context.Background()

	a, err := New(ctx, memoryConfig(ledgerSrv.URL+"/api"), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.IsType(t, events.NopPublisher{}, a.Publisher)

	run, err := a.Syncer.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDone, run.State)
	assert.Equal(t, 1, run.ProductsAdded)
	assert.Equal(t, 1, run.ItemsSkipped)
	assert.Equal(t, 1, run.CategoriesCreated)

	index, err := a.Repos.Catalog.SKUIndex(ctx)
	require.NoError(t, err)
	require.Contains(t, index, "SKU-1")

	item, err := a.Repos.Catalog.GetItem(ctx, index["SKU-1"])
	require.NoError(t, err)
	assert.Equal(t, "12.5", item.RegularPrice.String())
	assert.Equal(t, 3.0, item.StockQuantity)
	assert.Equal(t, domain.StockStatusInStock, item.StockStatus)
	assert.Equal(t, 30.0, item.Dimensions.Length)
	assert.Len(t, item.CategoryIDs, 1)

	stats, err := a.Repos.Stats.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProductsAdded)
	assert.Equal(t, 1, stats.CategoriesCreated)

	run, err = a.Syncer.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, run.ProductsAdded)
	assert.Equal(t, 1, run.ProductsUpdated)
	assert.Equal(t, 0, run.CategoriesCreated)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	cfg := memoryConfig("http://ledger.invalid")
	cfg.Storefront.Driver = "magento"

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported storefront driver")
}

func TestNew_UnknownTransport(t *testing.T) {
	cfg := memoryConfig("http://ledger.invalid")
	cfg.Ledger.Transport = "carrier-pigeon"

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&config.Config{Environment: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	logger, err = NewLogger(&config.Config{Environment: "development", LogLevel: "bogus"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
