// Package invoicehttp implements the invoicing port against the external
// invoicing subsystem's REST API.
package invoicehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/soladex/dealdesk/internal/config"
	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/port/invoicing"
)

// Client implements invoicing.Issuer over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
}

// New creates an invoicing client.
func New(cfg config.Invoicing, breaker config.Breaker) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: cfg.URL,
		token:   cfg.Token,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "invoicing",
			Timeout: breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breaker.MaxFailures
			},
			// Rejected drafts are the caller's problem, not an outage.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, domain.ErrValidation)
			},
		}),
	}
}

// CreateDraft asks the invoicing subsystem for a new draft invoice.
func (c *Client) CreateDraft(ctx context.Context, req invoicing.DraftRequest) (*invoicing.Draft, error) {
	result, err := c.cb.Execute(func() (any, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("invoicing: circuit open: %w", domain.ErrUnavailable)
		}
		return nil, fmt.Errorf("invoicing: %w", domain.ErrUnavailable)
	}
	return result.(*invoicing.Draft), nil
}

func (c *Client) post(ctx context.Context, draftReq invoicing.DraftRequest) (*invoicing.Draft, error) {
	body, err := json.Marshal(draftReq)
	if err != nil {
		return nil, fmt.Errorf("marshal draft request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/invoices/draft", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("invoicing rejected draft: %w", domain.ErrValidation)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return nil, fmt.Errorf("invoicing returned status %d", resp.StatusCode)
	}

	var draft invoicing.Draft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}
