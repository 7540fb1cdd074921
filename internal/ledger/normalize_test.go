package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/ledgersync/internal/domain"
)

func price(typ int, name, value string) domain.PriceEntry {
	return domain.PriceEntry{Name: name, Type: typ, Value: decimal.RequireFromString(value)}
}

func TestRetailPrice(t *testing.T) {
	tests := []struct {
		name   string
		prices []domain.PriceEntry
		want   string
	}{
		{"empty list", nil, "0"},
		{"retail entry wins", []domain.PriceEntry{price(1, "Wholesale", "80"), price(2, "Retail", "100")}, "100"},
		{"first retail entry wins", []domain.PriceEntry{price(2, "Retail", "100"), price(2, "Promo", "90")}, "100"},
		{"falls back to first entry", []domain.PriceEntry{price(1, "Wholesale", "80"), price(3, "Other", "70")}, "80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetailPrice(tt.prices)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRetailPrice_DecodedPriceList(t *testing.T) {
	var item domain.LedgerItem
	require.NoError(t, json.Unmarshal([]byte(`{"Code":"A","Prices":[{"Type":1,"Value":5},{"Type":2,"Value":"12.50"}]}`), &item))
	assert.Equal(t, "12.5", RetailPrice(item.Prices).String())

	require.NoError(t, json.Unmarshal([]byte(`{"Code":"B","Prices":"n/a"}`), &item))
	assert.True(t, RetailPrice(item.Prices).IsZero())
}

func TestNormalizeStock(t *testing.T) {
	feed := domain.StockFeed{
		"101": json.RawMessage(`[
			{"ItemCode":"SKU-1","Quantity":10,"Reservation":3,"Unit":"pcs","WarehouseId":1},
			{"ItemCode":"SKU-1","Quantity":99,"Reservation":0,"Unit":"pcs","WarehouseId":2}
		]`),
		"102": json.RawMessage(`[{"ItemCode":"SKU-2","Quantity":2,"Reservation":5,"Unit":"kg","WarehouseId":"W-7"}]`),
		"103": json.RawMessage(`[{"ItemCode":"","Quantity":4}]`),
		"104": json.RawMessage(`"broken"`),
		"105": json.RawMessage(`[]`),
	}

	stock := NormalizeStock(feed)
	require.Len(t, stock, 2)

	s1 := stock["SKU-1"]
	assert.Equal(t, 10.0, s1.Quantity)
	assert.Equal(t, 3.0, s1.Reservation)
	assert.Equal(t, 7.0, s1.Available)
	assert.Equal(t, "pcs", s1.Unit)
	assert.Equal(t, "1", s1.WarehouseID)

	s2 := stock["SKU-2"]
	assert.Equal(t, -3.0, s2.Available)
	assert.Equal(t, "W-7", s2.WarehouseID)
}

func TestNormalizeStock_Empty(t *testing.T) {
	assert.Empty(t, NormalizeStock(nil))
	assert.Empty(t, NormalizeStock(domain.StockFeed{}))
}

func TestNormalizeStock_CollisionIsDeterministic(t *testing.T) {
	feed := domain.StockFeed{
		"2": json.RawMessage(`[{"ItemCode":"DUP","Quantity":2}]`),
		"1": json.RawMessage(`[{"ItemCode":"DUP","Quantity":1}]`),
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, 2.0, NormalizeStock(feed)["DUP"].Quantity)
	}
}
