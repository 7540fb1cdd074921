package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	apperrors "github.com/jafarshop/ledgersync/pkg/errors"
)

// TokenSource yields a bearer token for ledger calls
type TokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// Client fetches the catalog and stock feeds from the ledger API
type Client struct {
	transport Transport
	tokens    TokenSource
	logger    *zap.Logger
}

// NewClient creates a ledger feed client
func NewClient(transport Transport, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		transport: transport,
		tokens:    tokens,
		logger:    logger,
	}
}

// FetchCatalog returns every ledger item from GET /Items
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.LedgerItem, error) {
	body, err := c.get(ctx, "/Items")
	if err != nil {
		return nil, err
	}

	var items []domain.LedgerItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &apperrors.ErrTransport{Op: "GET /Items", Err: fmt.Errorf("failed to decode catalog: %w", err)}
	}
	c.logger.Debug("Fetched ledger catalog", zap.Int("items", len(items)))
	return items, nil
}

// FetchStock returns the raw stock snapshot from GET /Stocks
func (c *Client) FetchStock(ctx context.Context) (domain.StockFeed, error) {
	body, err := c.get(ctx, "/Stocks")
	if err != nil {
		return nil, err
	}

	var feed domain.StockFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, &apperrors.ErrTransport{Op: "GET /Stocks", Err: fmt.Errorf("failed to decode stock feed: %w", err)}
	}
	c.logger.Debug("Fetched ledger stock", zap.Int("items", len(feed)))
	return feed, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	token, err := c.tokens.GetAccessToken(ctx)
	if err != nil {
		c.logger.Warn("Ledger token unavailable", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	resp, err := c.transport.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Header: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		c.logger.Warn("Ledger request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	if !resp.OK() {
		return nil, &apperrors.ErrTransport{Op: "GET " + path, StatusCode: resp.StatusCode, Body: truncate(resp.Body)}
	}
	return resp.Body, nil
}
