package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

func newTestClient(t *testing.T, pageSize int, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(config.WooCommerceConfig{
		URL:            srv.URL + "/",
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		PageSize:       pageSize,
	}, zap.NewNop())
}

func TestSKUIndex_PaginatesAndSkipsTrash(t *testing.T) {
	pages := map[string]string{
		"1": `[{"id":1,"sku":"A","status":"publish"},{"id":2,"sku":"B","status":"trash"}]`,
		"2": `[{"id":3,"sku":"","status":"publish"},{"id":4,"sku":"C","status":"draft"}]`,
		"3": `[{"id":5,"sku":"D","status":"private"}]`,
	}
	var requested []string
	client := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		page := r.URL.Query().Get("page")
		requested = append(requested, page)
		w.Header().Set("X-WP-TotalPages", "3")
		fmt.Fprint(w, pages[page])
	})

	index, err := client.SKUIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "C": "4", "D": "5"}, index)
	assert.Equal(t, []string{"1", "2", "3"}, requested)
}

func TestSKUIndex_StopsOnShortPageWithoutHeader(t *testing.T) {
	calls := 0
	client := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[{"id":1,"sku":"A","status":"publish"}]`)
	})

	index, err := client.SKUIndex(context.Background())
	require.NoError(t, err)
	assert.Len(t, index, 1)
	assert.Equal(t, 1, calls)
}

func TestSKUIndex_Error(t *testing.T) {
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":"internal"}`)
	})

	_, err := client.SKUIndex(context.Background())
	assert.ErrorContains(t, err, "woocommerce returned 500")
}

func TestCreateItem(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":321,"sku":"SKU-1"}`)
	})

	item := &domain.StorefrontItem{
		SKU:           "SKU-1",
		Name:          "Hammer",
		Description:   "Steel",
		Status:        domain.ItemStatusPublish,
		Type:          domain.ItemTypeSimple,
		RegularPrice:  decimal.RequireFromString("12.50"),
		ManageStock:   true,
		StockQuantity: 6.7,
		StockStatus:   domain.StockStatusInStock,
		Dimensions:    domain.Dimensions{Length: 30.5, Width: 0, Height: 8},
		CategoryIDs:   []string{"15"},
		Metadata:      map[string]string{"_ledger_unit": "pcs", "_ledger_id": "101", "_edit_lock": "1"},
	}
	require.NoError(t, client.CreateItem(context.Background(), item))
	assert.Equal(t, "321", item.ID)

	assert.Equal(t, "SKU-1", body["sku"])
	assert.Equal(t, "12.5", body["regular_price"])
	assert.Equal(t, "publish", body["status"])
	assert.Equal(t, "simple", body["type"])
	assert.Equal(t, true, body["manage_stock"])
	assert.Equal(t, float64(6), body["stock_quantity"])
	assert.Equal(t, "instock", body["stock_status"])
	assert.Equal(t, map[string]interface{}{"length": "30.5", "width": "", "height": "8"}, body["dimensions"])
	assert.Equal(t, []interface{}{map[string]interface{}{"id": float64(15)}}, body["categories"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"key": "_ledger_id", "value": "101"},
		map[string]interface{}{"key": "_ledger_unit", "value": "pcs"},
	}, body["meta_data"])
}

func TestGetItemAndUpdateItem(t *testing.T) {
	var updated map[string]interface{}
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/wp-json/wc/v3/products/42":
			fmt.Fprint(w, `{
				"id":42,"sku":"SKU-1","name":"Hammer","status":"draft","type":"simple",
				"regular_price":"9.99","manage_stock":true,"stock_quantity":null,"stock_status":"outofstock",
				"dimensions":{"length":"10","width":"","height":"2.5"},
				"categories":[{"id":7}],
				"meta_data":[{"id":1,"key":"_ledger_id","value":"101"},{"id":2,"key":"_other_plugin","value":{"a":1}}]
			}`)
		case r.Method == http.MethodPut && r.URL.Path == "/wp-json/wc/v3/products/42":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			fmt.Fprint(w, `{"id":42}`)
		case r.URL.Path == "/wp-json/wc/v3/products/404":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":"woocommerce_rest_product_invalid_id"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	item, err := client.GetItem(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", item.SKU)
	assert.Equal(t, domain.ItemStatusDraft, item.Status)
	assert.Equal(t, "9.99", item.RegularPrice.String())
	assert.Equal(t, 0.0, item.StockQuantity)
	assert.Equal(t, domain.Dimensions{Length: 10, Width: 0, Height: 2.5}, item.Dimensions)
	assert.Equal(t, []string{"7"}, item.CategoryIDs)
	assert.Equal(t, "101", item.Metadata["_ledger_id"])
	assert.Equal(t, `{"a":1}`, item.Metadata["_other_plugin"])

	item.StockQuantity = 3
	require.NoError(t, client.UpdateItem(ctx, item))
	assert.Equal(t, float64(3), updated["stock_quantity"])
	assert.Equal(t, "draft", updated["status"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"key": "_ledger_id", "value": "101"},
	}, updated["meta_data"])

	_, err = client.GetItem(ctx, "404")
	assert.True(t, errors.IsNotFound(err))

	err = client.UpdateItem(ctx, &domain.StorefrontItem{ID: "not-a-number"})
	assert.Error(t, err)
}

func TestFindCategoryByName(t *testing.T) {
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/products/categories", r.URL.Path)
		switch r.URL.Query().Get("search") {
		case "Paint & Supplies":
			fmt.Fprint(w, `[{"id":3,"name":"Paint &amp; Supplies Extra"},{"id":4,"name":"Paint &amp; Supplies","slug":"paint-supplies"}]`)
		default:
			fmt.Fprint(w, `[{"id":9,"name":"Tools Extra"}]`)
		}
	})
	ctx := context.Background()

	c, err := client.FindCategoryByName(ctx, "Paint & Supplies")
	require.NoError(t, err)
	assert.Equal(t, "4", c.ID)
	assert.Equal(t, "paint-supplies", c.Slug)

	_, err = client.FindCategoryByName(ctx, "Tools")
	assert.True(t, errors.IsNotFound(err))
}

func TestFindCategoryByName_PagesAndUnescapes(t *testing.T) {
	var pages []string
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tools", r.URL.Query().Get("search"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		w.Header().Set("X-WP-TotalPages", "2")

		if page == "1" {
			fuzzy := make([]wcCategory, 0, 100)
			for i := 0; i < 100; i++ {
				fuzzy = append(fuzzy, wcCategory{ID: int64(i + 1), Name: fmt.Sprintf("Power Tools %d", i)})
			}
			assert.NoError(t, json.NewEncoder(w).Encode(fuzzy))
			return
		}
		fmt.Fprint(w, `[{"id":500,"name":"Tools","slug":"tools"}]`)
	})

	c, err := client.FindCategoryByName(context.Background(), "Tools")
	require.NoError(t, err)
	assert.Equal(t, "500", c.ID)
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestFindCategoryByName_HTMLEntities(t *testing.T) {
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":8,"name":"Garden &#8211; Outdoor"},{"id":9,"name":"Kids&#039; Toys"}]`)
	})
	ctx := context.Background()

	c, err := client.FindCategoryByName(ctx, "Kids' Toys")
	require.NoError(t, err)
	assert.Equal(t, "9", c.ID)

	c, err = client.FindCategoryByName(ctx, "Garden \u2013 Outdoor")
	require.NoError(t, err)
	assert.Equal(t, "8", c.ID)
}

func TestCreateCategory(t *testing.T) {
	client := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body wcCategory
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Tools", body.Name)
		assert.Equal(t, "tools", body.Slug)
		assert.Equal(t, "Ledger group: Tools", body.Description)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":`+strconv.Itoa(55)+`,"name":"Tools"}`)
	})

	c := &domain.Category{Name: "Tools", Slug: "tools", Description: "Ledger group: Tools"}
	require.NoError(t, client.CreateCategory(context.Background(), c))
	assert.Equal(t, "55", c.ID)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(config.WooCommerceConfig{}, nil)
	_, err := client.SKUIndex(context.Background())

	var cfgErr *errors.ErrConfiguration
	assert.ErrorAs(t, err, &cfgErr)
}
