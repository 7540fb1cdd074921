package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
	apperrors "github.com/jafarshop/ledgersync/pkg/errors"
)

const (
	defaultTimeout      = 45 * time.Second
	defaultMaxRedirects = 5
)

// Request is a single call against the ledger API; Path is relative to the base URL
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response is a fully read ledger response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs HTTP calls against the ledger. Implementations share the same
// timeout discipline and return *errors.ErrTransport for connection-level failures;
// HTTP statuses are returned as responses, not errors.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
	Name() string
}

type httpTransport struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewPrimaryTransport creates the pooled, instrumented ledger transport
func NewPrimaryTransport(cfg config.LedgerConfig) Transport {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &httpTransport{
		name:    config.TransportPrimary,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client: &http.Client{
			Transport:     otelhttp.NewTransport(base),
			Timeout:       timeoutOrDefault(cfg.Timeout),
			CheckRedirect: limitRedirects(cfg.MaxRedirects),
		},
	}
}

// NewBasicTransport creates the plain fallback transport
func NewBasicTransport(cfg config.LedgerConfig) Transport {
	return &httpTransport{
		name:    config.TransportBasic,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:       timeoutOrDefault(cfg.Timeout),
			CheckRedirect: limitRedirects(cfg.MaxRedirects),
		},
	}
}

func (t *httpTransport) Name() string {
	return t.name
}

func (t *httpTransport) Do(ctx context.Context, r Request) (*Response, error) {
	op := r.Method + " " + r.Path

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, t.baseURL+r.Path, body)
	if err != nil {
		return nil, &apperrors.ErrTransport{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, vals := range r.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &apperrors.ErrTransport{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ErrTransport{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

type failoverTransport struct {
	primary  Transport
	fallback Transport
	logger   *zap.Logger
}

// NewFailoverTransport tries primary and, when it fails before any response arrives,
// repeats the call once on fallback
func NewFailoverTransport(primary, fallback Transport, logger *zap.Logger) Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &failoverTransport{primary: primary, fallback: fallback, logger: logger}
}

func (t *failoverTransport) Name() string {
	return t.primary.Name() + "+" + t.fallback.Name()
}

func (t *failoverTransport) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := t.primary.Do(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	var te *apperrors.ErrTransport
	if !errors.As(err, &te) || te.StatusCode != 0 {
		return nil, err
	}

	t.logger.Warn("Primary ledger transport failed, retrying on fallback",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Error(err),
	)
	return t.fallback.Do(ctx, req)
}

// NewTransport picks the transport for the configured mode
func NewTransport(cfg config.LedgerConfig, logger *zap.Logger) (Transport, error) {
	switch cfg.Transport {
	case "", config.TransportAuto:
		return NewFailoverTransport(NewPrimaryTransport(cfg), NewBasicTransport(cfg), logger), nil
	case config.TransportPrimary:
		return NewPrimaryTransport(cfg), nil
	case config.TransportBasic:
		return NewBasicTransport(cfg), nil
	default:
		return nil, &apperrors.ErrConfiguration{Message: fmt.Sprintf("unknown ledger transport %q", cfg.Transport)}
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

func limitRedirects(max int) func(*http.Request, []*http.Request) error {
	if max <= 0 {
		max = defaultMaxRedirects
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}
