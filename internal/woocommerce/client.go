// Package woocommerce implements the storefront catalog over the WooCommerce REST API (v3).
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

const (
	apiPrefix       = "/wp-json/wc/v3"
	defaultPageSize = 100
	maxPageSize     = 100
)

// Client is a CatalogRepository backed by a WooCommerce shop
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	pageSize       int
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewClient creates a WooCommerce REST client
func NewClient(cfg config.WooCommerceConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.URL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		pageSize:       pageSize,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		logger:         logger,
	}
}

// SKUIndex pages through every product and maps non-trashed SKUs to product ids
func (c *Client) SKUIndex(ctx context.Context) (map[string]string, error) {
	index := make(map[string]string)

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("status", "any")
		q.Set("per_page", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		var products []wcProduct
		header, err := c.do(ctx, http.MethodGet, "/products", q, nil, &products)
		if err != nil {
			return nil, fmt.Errorf("failed to list products page %d: %w", page, err)
		}

		for _, p := range products {
			if p.SKU == "" || p.Status == string(domain.ItemStatusTrash) {
				continue
			}
			index[p.SKU] = formatID(p.ID)
		}

		totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if len(products) < c.pageSize || (totalPages > 0 && page >= totalPages) {
			break
		}
	}

	c.logger.Debug("Loaded WooCommerce SKU index", zap.Int("skus", len(index)))
	return index, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*domain.StorefrontItem, error) {
	var p wcProduct
	if _, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, &errors.ErrNotFound{Resource: "storefront_item", ID: id}
		}
		return nil, err
	}
	return toDomain(&p), nil
}

func (c *Client) CreateItem(ctx context.Context, item *domain.StorefrontItem) error {
	var created wcProduct
	if _, err := c.do(ctx, http.MethodPost, "/products", nil, toInput(item), &created); err != nil {
		return err
	}

	now := time.Now()
	item.ID = formatID(created.ID)
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (c *Client) UpdateItem(ctx context.Context, item *domain.StorefrontItem) error {
	if _, err := parseID(item.ID); err != nil {
		return fmt.Errorf("invalid WooCommerce product id %q: %w", item.ID, err)
	}

	var updated wcProduct
	if _, err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(item.ID), nil, toInput(item), &updated); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return &errors.ErrNotFound{Resource: "storefront_item", ID: item.ID}
		}
		return err
	}

	item.UpdatedAt = time.Now()
	return nil
}

// FindCategoryByName pages through the category search and returns the first exact name match
func (c *Client) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("search", name)
		q.Set("per_page", strconv.Itoa(maxPageSize))
		q.Set("page", strconv.Itoa(page))

		var categories []wcCategory
		header, err := c.do(ctx, http.MethodGet, "/products/categories", q, nil, &categories)
		if err != nil {
			return nil, err
		}

		for _, wc := range categories {
			// WordPress stores names HTML-escaped
			if wc.Name == name || html.UnescapeString(wc.Name) == name {
				return &domain.Category{
					ID:          formatID(wc.ID),
					Name:        name,
					Slug:        wc.Slug,
					Description: wc.Description,
				}, nil
			}
		}

		totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if len(categories) < maxPageSize || (totalPages > 0 && page >= totalPages) {
			break
		}
	}

	return nil, &errors.ErrNotFound{Resource: "category", ID: name}
}

func (c *Client) CreateCategory(ctx context.Context, category *domain.Category) error {
	body := wcCategory{
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
	}

	var created wcCategory
	if _, err := c.do(ctx, http.MethodPost, "/products/categories", nil, body, &created); err != nil {
		return err
	}

	category.ID = formatID(created.ID)
	return nil
}

// statusError is returned for non-2xx WooCommerce responses
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("woocommerce returned %d: %s", e.StatusCode, e.Body)
}

func isStatus(err error, code int) bool {
	se, ok := err.(*statusError)
	return ok && se.StatusCode == code
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (http.Header, error) {
	if c.baseURL == "" || c.consumerKey == "" || c.consumerSecret == "" {
		return nil, &errors.ErrConfiguration{Message: "woocommerce client not configured: URL, consumer key and secret required"}
	}

	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("WooCommerce request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return resp.Header, nil
}

func toInput(item *domain.StorefrontItem) wcProductInput {
	in := wcProductInput{
		Name:          item.Name,
		SKU:           item.SKU,
		Status:        string(item.Status),
		Type:          string(item.Type),
		Description:   item.Description,
		RegularPrice:  item.RegularPrice.String(),
		ManageStock:   item.ManageStock,
		StockQuantity: int64(math.Floor(item.StockQuantity)),
		StockStatus:   string(item.StockStatus),
		Dimensions: wcDimensions{
			Length: formatDimension(item.Dimensions.Length),
			Width:  formatDimension(item.Dimensions.Width),
			Height: formatDimension(item.Dimensions.Height),
		},
	}

	for _, id := range item.CategoryIDs {
		n, err := parseID(id)
		if err != nil {
			continue
		}
		in.Categories = append(in.Categories, wcRef{ID: n})
	}

	// Only ledger-owned keys are sent; Woo leaves unlisted meta untouched
	keys := make([]string, 0, len(item.Metadata))
	for k := range item.Metadata {
		if strings.HasPrefix(k, domain.LedgerMetaPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		in.MetaData = append(in.MetaData, wcMetaInput{Key: k, Value: item.Metadata[k]})
	}

	return in
}

func toDomain(p *wcProduct) *domain.StorefrontItem {
	item := &domain.StorefrontItem{
		ID:          formatID(p.ID),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Status:      domain.ItemStatus(p.Status),
		Type:        domain.ItemType(p.Type),
		ManageStock: p.ManageStock,
		StockStatus: domain.StockStatus(p.StockStatus),
		Dimensions: domain.Dimensions{
			Length: parseDimension(p.Dimensions.Length),
			Width:  parseDimension(p.Dimensions.Width),
			Height: parseDimension(p.Dimensions.Height),
		},
	}

	if price, err := decimal.NewFromString(p.RegularPrice); err == nil {
		item.RegularPrice = price
	}
	if p.StockQuantity != nil {
		item.StockQuantity = *p.StockQuantity
	}
	for _, cat := range p.Categories {
		item.CategoryIDs = append(item.CategoryIDs, formatID(cat.ID))
	}
	if len(p.MetaData) > 0 {
		item.Metadata = make(map[string]string, len(p.MetaData))
		for _, m := range p.MetaData {
			item.Metadata[m.Key] = metaString(m.Value)
		}
	}
	if t, err := time.Parse("2006-01-02T15:04:05", p.DateCreated); err == nil {
		item.CreatedAt = t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", p.DateModified); err == nil {
		item.UpdatedAt = t
	}

	return item
}
