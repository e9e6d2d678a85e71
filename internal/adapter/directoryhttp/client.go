// Package directoryhttp implements the directory port against the external
// client/user directory REST API. Lookups go through a circuit breaker and
// results are cached in-process; the board rendering path hits this on every
// request, the directory must never become the bottleneck.
package directoryhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/soladex/dealdesk/internal/config"
	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/port/cache"
	"github.com/soladex/dealdesk/internal/port/directory"
)

// Client implements directory.Directory over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// New creates a directory client. The cache may be nil to disable caching.
func New(cfg config.Directory, breaker config.Breaker, c cache.Cache) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: cfg.URL,
		token:   cfg.Token,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "directory",
			Timeout: breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breaker.MaxFailures
			},
			// A missing record is an answer, not an outage; it must not
			// trip the breaker.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, domain.ErrNotFound)
			},
		}),
		cache:    c,
		cacheTTL: cfg.CacheTTL,
	}
}

// GetClient resolves a client record by id.
func (c *Client) GetClient(ctx context.Context, id string) (*directory.Client, error) {
	var out directory.Client
	if err := c.fetch(ctx, "client:"+id, "/api/v1/clients/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser resolves a user record by id.
func (c *Client) GetUser(ctx context.Context, id string) (*directory.User, error) {
	var out directory.User
	if err := c.fetch(ctx, "user:"+id, "/api/v1/users/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetch resolves one record, consulting the cache first. Only successful
// lookups are cached; misses and failures always retry upstream.
func (c *Client) fetch(ctx context.Context, cacheKey, path string, out any) error {
	if c.cache != nil {
		if data, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
			return json.Unmarshal(data, out)
		}
	}

	body, err := c.cb.Execute(func() (any, error) {
		return c.get(ctx, path)
	})
	if err != nil {
		return mapBreakerErr(path, err)
	}

	data := body.([]byte)
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("directory decode %s: %w", path, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, data, c.cacheTTL); err != nil {
			slog.Debug("directory cache set failed", "key", cacheKey, "error", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// mapBreakerErr folds breaker and transport failures into the domain error
// taxonomy. Not-found answers pass through untouched.
func mapBreakerErr(path string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("directory %s: %w", path, domain.ErrNotFound)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("directory %s: circuit open: %w", path, domain.ErrUnavailable)
	}
	return fmt.Errorf("directory %s: %w", path, domain.ErrUnavailable)
}
