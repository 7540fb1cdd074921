package ledger

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/ledgersync/internal/domain"
)

// RetailPriceType marks the retail entry of a ledger price list
const RetailPriceType = 2

// RetailPrice returns the first retail (type 2) price, else the first price, else zero
func RetailPrice(prices []domain.PriceEntry) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	for _, p := range prices {
		if p.Type == RetailPriceType {
			return p.Value
		}
	}
	return prices[0].Value
}

// NormalizeStock turns the per-warehouse stock feed into a lookup by item code.
// Only the first warehouse record of each item is honored; malformed entries and
// records without an item code are skipped.
func NormalizeStock(feed domain.StockFeed) map[string]domain.NormalizedStock {
	out := make(map[string]domain.NormalizedStock, len(feed))

	ids := make([]string, 0, len(feed))
	for id := range feed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		var records []domain.StockWarehouseRecord
		if err := json.Unmarshal(feed[id], &records); err != nil || len(records) == 0 {
			continue
		}
		first := records[0]
		if first.ItemCode == "" {
			continue
		}
		out[first.ItemCode] = domain.NormalizedStock{
			Quantity:    first.Quantity,
			Reservation: first.Reservation,
			Available:   first.Quantity - first.Reservation,
			Unit:        first.Unit,
			WarehouseID: first.WarehouseID.String(),
		}
	}
	return out
}
