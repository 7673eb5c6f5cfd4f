// Package client implements the API call pipeline every feature goes through:
// bearer attachment, offline fast-fail for writes, and cache-first/cache-
// fallback handling for allow-listed GET endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citasmart/citasmart-go/internal/cache"
	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/netmon"
	"github.com/citasmart/citasmart-go/internal/notify"
	"github.com/citasmart/citasmart-go/internal/session"
	"github.com/citasmart/citasmart-go/internal/storage"
)

// DefaultCacheablePrefixes lists the GET endpoints whose responses are safe to
// serve from the offline cache.
var DefaultCacheablePrefixes = []string{
	"/appointments",
	"/profile",
	"/services",
	"/professionals",
}

// APIError is a non-2xx HTTP response. Auth failures and validation errors
// reach the caller in this form, body untouched.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.Status, e.Body)
}

// Client executes API requests against a base URL.
type Client struct {
	http     *http.Client
	baseURL  string
	store    storage.Store
	cache    *cache.Cache
	monitor  *netmon.Monitor
	notifier *notify.Notifier
	log      *zap.Logger

	prefixes []string
	maxAge   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCacheablePrefixes replaces the cacheable-endpoint allow list.
func WithCacheablePrefixes(prefixes []string) Option {
	return func(c *Client) { c.prefixes = prefixes }
}

// WithCacheMaxAge sets the freshness window for served cache entries.
func WithCacheMaxAge(d time.Duration) Option {
	return func(c *Client) { c.maxAge = d }
}

// New constructs a Client. store is read for the bearer token; respCache,
// monitor and notifier drive the offline policy.
func New(baseURL string, store storage.Store, respCache *cache.Cache, monitor *netmon.Monitor, notifier *notify.Notifier, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		store:    store,
		cache:    respCache,
		monitor:  monitor,
		notifier: notifier,
		log:      log,
		prefixes: DefaultCacheablePrefixes,
		maxAge:   cache.DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ session.Transport = (*Client)(nil)

// Execute runs one request through the interception pipeline and returns the
// raw response body. body, when non-nil, is JSON-encoded.
func (c *Client) Execute(ctx context.Context, method, path string, body any) ([]byte, error) {
	// Normalized before the allow-list check so "services" and "/services"
	// share one cache identity.
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.cacheable(method, path) {
		return c.executeCacheable(ctx, method, path, body)
	}
	// Passthrough: connectivity is checked once, before dispatch. A request
	// already on the wire is not retroactively failed by a later transition.
	if !c.monitor.IsOnline() {
		c.notify(notify.Warning, "Sin conexión. La acción se realizará cuando vuelva la conexión.")
		return nil, errs.ErrOffline
	}
	return c.dispatch(ctx, method, path, body)
}

func (c *Client) cacheable(method, path string) bool {
	if method != http.MethodGet {
		return false
	}
	for _, p := range c.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (c *Client) executeCacheable(ctx context.Context, method, path string, body any) ([]byte, error) {
	key := cache.Key(path)

	if !c.monitor.IsOnline() {
		if payload, ok := c.cache.Get(key, c.maxAge); ok {
			c.log.Debug("serving from cache (offline)", zap.String("key", key))
			c.notify(notify.Info, "Mostrando datos almacenados (sin conexión)")
			return payload, nil
		}
		c.notify(notify.Error, "No hay datos disponibles sin conexión")
		return nil, errs.ErrNoCachedData
	}

	resp, err := c.dispatch(ctx, method, path, body)
	if err == nil {
		// Best-effort: the cache write never fails the request, and it runs
		// even if the caller has stopped listening.
		c.cache.Put(key, resp)
		return resp, nil
	}

	// Network failed: fresh cached data beats a transient error.
	if payload, ok := c.cache.Get(key, c.maxAge); ok {
		c.log.Debug("network failed, serving from cache", zap.String("key", key), zap.Error(err))
		c.notify(notify.Info, "Mostrando datos almacenados (fallo de red)")
		return payload, nil
	}
	return nil, err
}

// dispatch performs the actual HTTP exchange, attaching the bearer token when
// a session is active. A missing token just omits the header; authorization is
// the backend's call.
func (c *Client) dispatch(ctx context.Context, method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok, err := c.store.Get(session.KeyAccessToken); err == nil && ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Body: raw}
	}
	return raw, nil
}

func (c *Client) notify(sev notify.Severity, msg string) {
	if c.notifier != nil {
		c.notifier.Publish(sev, msg)
	}
}
