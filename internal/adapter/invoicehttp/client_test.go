package invoicehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soladex/dealdesk/internal/config"
	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/port/invoicing"
)

func newTestClient(url string) *Client {
	return New(
		config.Invoicing{URL: url, Token: "secret", VATRate: 23},
		config.Breaker{MaxFailures: 3, Timeout: time.Second},
	)
}

func TestCreateDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/invoices/draft" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req invoicing.DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Items) != 1 || req.Items[0].VATRate != 23 {
			t.Errorf("unexpected draft request: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"inv-1","number":"FV/2026/08/042"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	draft, err := c.CreateDraft(context.Background(), invoicing.DraftRequest{
		ClientID: "c-1",
		Currency: "PLN",
		Items: []invoicing.LineItem{
			{Description: "Acme rollout", Quantity: 1, UnitPrice: 5000, VATRate: 23},
		},
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if draft.ID != "inv-1" || draft.Number != "FV/2026/08/042" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}

func TestCreateDraftRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateDraft(context.Background(), invoicing.DraftRequest{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateDraftUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateDraft(context.Background(), invoicing.DraftRequest{})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
