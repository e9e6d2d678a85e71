package service

import (
	"context"
	"fmt"

	"github.com/soladex/dealdesk/internal/adapter/otel"
	"github.com/soladex/dealdesk/internal/adapter/ws"
	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/port/broadcast"
	"github.com/soladex/dealdesk/internal/port/database"
	"github.com/soladex/dealdesk/internal/port/invoicing"
	"github.com/soladex/dealdesk/internal/port/messagequeue"
)

// ConvertService turns won deals into draft invoices in the external
// invoicing subsystem. Conversion is one-shot per deal: the invoice
// reference is write-once, so a second attempt conflicts.
type ConvertService struct {
	store   database.Store
	issuer  invoicing.Issuer
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
	vatRate float64
}

// NewConvertService creates a new ConvertService.
func NewConvertService(store database.Store, issuer invoicing.Issuer, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *otel.Metrics, vatRate float64) *ConvertService {
	return &ConvertService{
		store: store, issuer: issuer, queue: queue, hub: hub,
		metrics: metrics, vatRate: vatRate,
	}
}

// ConvertResult is the outcome of a successful conversion.
type ConvertResult struct {
	Deal    *deal.Deal       `json:"deal"`
	Invoice *invoicing.Draft `json:"invoice"`
}

// Convert creates a draft invoice from a won deal and links it. If the
// upstream call succeeds but the link fails, the draft stays orphaned in the
// invoicing subsystem; the deal remains convertible and the operator
// resolves the duplicate there.
func (s *ConvertService) Convert(ctx context.Context, dealID, actor string) (*ConvertResult, error) {
	ctx, span := otel.StartConversionSpan(ctx, dealID)
	defer span.End()

	d, err := s.store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d.Status != deal.StatusWon {
		return nil, fmt.Errorf("deal %s is %s, only won deals convert: %w", dealID, d.Status, domain.ErrConflict)
	}
	if d.WonInvoiceID != "" {
		return nil, fmt.Errorf("deal %s already converted to invoice %s: %w", dealID, d.WonInvoiceID, domain.ErrConflict)
	}
	if d.ClientID == "" {
		return nil, fmt.Errorf("deal %s has no client to invoice: %w", dealID, domain.ErrConflict)
	}

	draft, err := s.issuer.CreateDraft(ctx, invoicing.DraftRequest{
		ClientID: d.ClientID,
		Currency: d.Currency,
		Items: []invoicing.LineItem{{
			Description: d.Title,
			Quantity:    1,
			UnitPrice:   d.Value,
			VATRate:     s.vatRate,
		}},
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.LinkDealInvoice(ctx, d.ID, draft.ID, draft.Number, actor); err != nil {
		return nil, fmt.Errorf("invoice %s created but not linked: %w", draft.Number, err)
	}
	d.WonInvoiceID = draft.ID

	if s.metrics != nil {
		s.metrics.DealsConverted.Add(ctx, 1)
	}
	publishDealEvent(ctx, s.queue, messagequeue.SubjectDealConverted, dealEvent{
		DealID: d.ID, PipelineID: d.PipelineID, StageID: d.StageID,
		Status: string(d.Status), Actor: actor,
		Details: map[string]any{
			"invoice_id":     draft.ID,
			"invoice_number": draft.Number,
		},
	})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventDealConverted, ws.DealConvertedEvent{
			DealID:        d.ID,
			InvoiceID:     draft.ID,
			InvoiceNumber: draft.Number,
		})
	}

	return &ConvertResult{Deal: d, Invoice: draft}, nil
}
