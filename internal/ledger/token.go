package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/domain"
	apperrors "github.com/jafarshop/ledgersync/pkg/errors"
)

// TokenCacheKey is where the access token lives in the shared cache
const TokenCacheKey = "ledger:access_token"

// DefaultSafetyBuffer is subtracted from expires_in so a token is never used at its edge
const DefaultSafetyBuffer = 300 * time.Second

// TokenCache stores the access token across runs.
// Get returns errors.ErrCacheMiss when nothing is stored.
type TokenCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TokenManager acquires and caches the ledger bearer token
type TokenManager struct {
	cfg          config.LedgerConfig
	transport    Transport
	cache        TokenCache
	safetyBuffer time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// NewTokenManager creates a token manager. safetyBuffer <= 0 uses DefaultSafetyBuffer.
func NewTokenManager(cfg config.LedgerConfig, transport Transport, cache TokenCache, safetyBuffer time.Duration, logger *zap.Logger) *TokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if safetyBuffer <= 0 {
		safetyBuffer = DefaultSafetyBuffer
	}
	return &TokenManager{
		cfg:          cfg,
		transport:    transport,
		cache:        cache,
		safetyBuffer: safetyBuffer,
		now:          time.Now,
		logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetAccessToken returns a cached token when still valid, otherwise requests a new one
func (m *TokenManager) GetAccessToken(ctx context.Context) (string, error) {
	if m.cfg.BaseURL == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return "", &apperrors.ErrConfiguration{Message: "ledger API URL, username and password are required"}
	}

	if tok := m.cached(ctx); tok != nil {
		return tok.Value, nil
	}

	form := url.Values{}
	form.Set("username", m.cfg.Username)
	form.Set("password", m.cfg.Password)
	form.Set("grant_type", "password")

	resp, err := m.transport.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/Token",
		Header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		Body:   []byte(form.Encode()),
	})
	if err != nil {
		return "", &apperrors.ErrAuth{Message: "token request failed", Err: err}
	}
	if !resp.OK() {
		return "", &apperrors.ErrAuth{Message: fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, truncate(resp.Body))}
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return "", &apperrors.ErrAuth{Message: "malformed token response", Err: err}
	}
	if tr.AccessToken == "" {
		return "", &apperrors.ErrAuth{Message: "token response has no access_token"}
	}

	now := m.now()
	tok := domain.AccessToken{
		Value:     tr.AccessToken,
		ExpiresAt: now.Add(time.Duration(tr.ExpiresIn)*time.Second - m.safetyBuffer),
	}
	m.store(ctx, tok, now)

	m.logger.Info("Obtained ledger access token", zap.Time("expires_at", tok.ExpiresAt))
	return tok.Value, nil
}

// Invalidate drops the cached token so the next call re-authenticates
func (m *TokenManager) Invalidate(ctx context.Context) error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Delete(ctx, TokenCacheKey)
}

func (m *TokenManager) cached(ctx context.Context) *domain.AccessToken {
	if m.cache == nil {
		return nil
	}
	raw, err := m.cache.Get(ctx, TokenCacheKey)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			m.logger.Warn("Token cache read failed, re-authenticating", zap.Error(err))
		}
		return nil
	}
	var tok domain.AccessToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		m.logger.Warn("Discarding corrupt cached token", zap.Error(err))
		return nil
	}
	if !tok.ValidAt(m.now()) {
		return nil
	}
	return &tok
}

func (m *TokenManager) store(ctx context.Context, tok domain.AccessToken, now time.Time) {
	if m.cache == nil {
		return
	}
	ttl := tok.ExpiresAt.Sub(now)
	if ttl <= 0 {
		// expires_in shorter than the buffer: usable for this run only
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, TokenCacheKey, raw, ttl); err != nil {
		m.logger.Warn("Failed to cache ledger token", zap.Error(err))
	}
}

func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
