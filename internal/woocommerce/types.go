package woocommerce

import (
	"encoding/json"
	"strconv"
	"strings"
)

// wcProduct is the subset of the WooCommerce v3 product resource the sync reads and writes.
// Woo sends prices and dimensions as strings.
type wcProduct struct {
	ID            int64         `json:"id,omitempty"`
	Name          string        `json:"name"`
	SKU           string        `json:"sku"`
	Status        string        `json:"status,omitempty"` // "publish","draft","trash"
	Type          string        `json:"type,omitempty"`   // "simple","variable", etc.
	Description   string        `json:"description"`
	RegularPrice  string        `json:"regular_price"`
	ManageStock   bool          `json:"manage_stock"`
	StockQuantity *float64      `json:"stock_quantity"`
	StockStatus   string        `json:"stock_status,omitempty"`
	Dimensions    wcDimensions  `json:"dimensions"`
	Categories    []wcRef       `json:"categories,omitempty"`
	MetaData      []wcMetaEntry `json:"meta_data,omitempty"`
	DateCreated   string        `json:"date_created_gmt,omitempty"`
	DateModified  string        `json:"date_modified_gmt,omitempty"`
}

type wcDimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type wcRef struct {
	ID int64 `json:"id"`
}

type wcMetaEntry struct {
	ID    int64           `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type wcCategory struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// wcProductInput is the create/update body; Woo only accepts integer stock
type wcProductInput struct {
	Name          string        `json:"name"`
	SKU           string        `json:"sku"`
	Status        string        `json:"status,omitempty"`
	Type          string        `json:"type,omitempty"`
	Description   string        `json:"description"`
	RegularPrice  string        `json:"regular_price"`
	ManageStock   bool          `json:"manage_stock"`
	StockQuantity int64         `json:"stock_quantity"`
	StockStatus   string        `json:"stock_status"`
	Dimensions    wcDimensions  `json:"dimensions"`
	Categories    []wcRef       `json:"categories,omitempty"`
	MetaData      []wcMetaInput `json:"meta_data,omitempty"`
}

type wcMetaInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// metaString renders a meta value as text; non-string values keep their JSON form
func metaString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func parseDimension(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func formatDimension(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
