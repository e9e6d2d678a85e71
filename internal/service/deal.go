package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soladex/dealdesk/internal/adapter/otel"
	"github.com/soladex/dealdesk/internal/adapter/ws"
	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/port/broadcast"
	"github.com/soladex/dealdesk/internal/port/database"
	"github.com/soladex/dealdesk/internal/port/messagequeue"
)

// DealService handles deal business logic: board queries, moves, status
// overrides and lifecycle events. Mutations commit in the store first; queue
// publishes, broadcasts and metrics happen after, and their failures are
// logged but never roll a committed change back.
type DealService struct {
	store    database.Store
	queue    messagequeue.Queue
	hub      broadcast.Broadcaster
	metrics  *otel.Metrics
	resolver *Resolver
}

// NewDealService creates a new DealService. queue, hub, metrics and resolver
// may be nil; the corresponding side effects are skipped.
func NewDealService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *otel.Metrics, resolver *Resolver) *DealService {
	return &DealService{store: store, queue: queue, hub: hub, metrics: metrics, resolver: resolver}
}

// dealEvent is the envelope for deal lifecycle messages on the queue.
type dealEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	DealID     string    `json:"deal_id"`
	PipelineID string    `json:"pipeline_id"`
	StageID    string    `json:"stage_id"`
	Status     string    `json:"status"`
	Actor      string    `json:"actor,omitempty"`
	Details    any       `json:"details,omitempty"`
}

// Get returns a deal with directory references resolved.
func (s *DealService) Get(ctx context.Context, id string) (*deal.Deal, error) {
	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.resolver != nil {
		s.resolver.ResolveDeal(ctx, d)
	}
	return d, nil
}

// List returns deals, optionally scoped to one pipeline.
func (s *DealService) List(ctx context.Context, pipelineID string) ([]deal.Deal, error) {
	return s.store.ListDeals(ctx, pipelineID)
}

// ListForClient returns all deals referencing the given directory client.
func (s *DealService) ListForClient(ctx context.Context, clientID string) ([]deal.Deal, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client_id is required: %w", domain.ErrValidation)
	}
	return s.store.ListDealsForClient(ctx, clientID)
}

// Board returns the kanban view of a pipeline: its active stages in order,
// each with its deals ordered by position and directory references resolved.
func (s *DealService) Board(ctx context.Context, pipelineID string, f deal.Filter) ([]deal.Column, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	p, err := s.store.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	deals, err := s.store.ListDealsByPipeline(ctx, pipelineID, f)
	if err != nil {
		return nil, err
	}
	if s.resolver != nil {
		s.resolver.ResolveDeals(ctx, deals)
	}

	byStage := make(map[string][]deal.Deal, len(p.Stages))
	for _, d := range deals {
		byStage[d.StageID] = append(byStage[d.StageID], d)
	}

	columns := make([]deal.Column, 0, len(p.Stages))
	for _, st := range p.Stages {
		if !st.IsActive {
			continue
		}
		column := deal.Column{Stage: st, Deals: byStage[st.ID]}
		if column.Deals == nil {
			column.Deals = []deal.Deal{}
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// Create validates the request, persists the deal at the end of its stage
// and emits the created event.
func (s *DealService) Create(ctx context.Context, req deal.CreateRequest, actor string) (*deal.Deal, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("deal title is required: %w", domain.ErrValidation)
	}
	if req.PipelineID == "" || req.StageID == "" {
		return nil, fmt.Errorf("pipeline_id and stage_id are required: %w", domain.ErrValidation)
	}
	if req.Value < 0 {
		return nil, fmt.Errorf("deal value cannot be negative: %w", domain.ErrValidation)
	}
	if req.Currency == "" {
		req.Currency = "PLN"
	}
	if req.Priority == "" {
		req.Priority = deal.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, fmt.Errorf("unknown priority %q: %w", req.Priority, domain.ErrValidation)
	}

	d, err := s.store.CreateDeal(ctx, req, actor)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DealsCreated.Add(ctx, 1)
	}
	s.publish(ctx, messagequeue.SubjectDealCreated, dealEvent{
		DealID: d.ID, PipelineID: d.PipelineID, StageID: d.StageID,
		Status: string(d.Status), Actor: actor,
	})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventDealCreated, ws.DealCreatedEvent{
			DealID:     d.ID,
			PipelineID: d.PipelineID,
			StageID:    d.StageID,
			Title:      d.Title,
		})
	}
	return d, nil
}

// Update applies partial field edits. Stage, position and status never
// change here.
func (s *DealService) Update(ctx context.Context, id string, req deal.UpdateRequest) (*deal.Deal, error) {
	if req.Title != nil && *req.Title == "" {
		return nil, fmt.Errorf("deal title cannot be empty: %w", domain.ErrValidation)
	}
	if req.Value != nil && *req.Value < 0 {
		return nil, fmt.Errorf("deal value cannot be negative: %w", domain.ErrValidation)
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, fmt.Errorf("unknown priority %q: %w", *req.Priority, domain.ErrValidation)
	}
	return s.store.UpdateDeal(ctx, id, req)
}

// Move places a deal at a position inside a target stage and emits the
// moved event.
func (s *DealService) Move(ctx context.Context, id string, req deal.MoveRequest, actor string) (*deal.Deal, error) {
	if req.StageID == "" {
		return nil, fmt.Errorf("stage_id is required: %w", domain.ErrValidation)
	}

	ctx, span := otel.StartMoveSpan(ctx, id, req.StageID, req.Position)
	defer span.End()

	prev, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	d, err := s.store.MoveDeal(ctx, id, req.StageID, req.Position, actor)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DealsMoved.Add(ctx, 1)
		s.metrics.MoveDuration.Record(ctx, time.Since(start).Seconds())
		s.countStatusChange(ctx, prev.Status, d.Status)
	}
	s.publish(ctx, messagequeue.SubjectDealMoved, dealEvent{
		DealID: d.ID, PipelineID: d.PipelineID, StageID: d.StageID,
		Status: string(d.Status), Actor: actor,
		Details: map[string]any{"from_stage_id": prev.StageID, "position": d.Position},
	})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventDealMoved, ws.DealMovedEvent{
			DealID:      d.ID,
			PipelineID:  d.PipelineID,
			FromStageID: prev.StageID,
			ToStageID:   d.StageID,
			Position:    d.Position,
			Status:      string(d.Status),
		})
	}
	return d, nil
}

// UpdateStatus overrides a deal's status without moving it.
func (s *DealService) UpdateStatus(ctx context.Context, id string, req deal.StatusRequest, actor string) (*deal.Deal, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", req.Status, domain.ErrValidation)
	}
	if req.LostReason != "" && req.Status != deal.StatusLost {
		return nil, fmt.Errorf("lost_reason is only valid for lost deals: %w", domain.ErrValidation)
	}

	prev, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return nil, err
	}

	d, err := s.store.UpdateDealStatus(ctx, id, req.Status, req.LostReason, actor)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.countStatusChange(ctx, prev.Status, d.Status)
	}
	s.publish(ctx, messagequeue.SubjectDealStatus, dealEvent{
		DealID: d.ID, PipelineID: d.PipelineID, StageID: d.StageID,
		Status: string(d.Status), Actor: actor,
	})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventDealStatus, ws.DealStatusEvent{
			DealID:     d.ID,
			PipelineID: d.PipelineID,
			Status:     string(d.Status),
			LostReason: d.LostReason,
		})
	}
	return d, nil
}

// Delete removes a deal; siblings in its stage are compacted.
func (s *DealService) Delete(ctx context.Context, id string, actor string) error {
	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDeal(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, messagequeue.SubjectDealDeleted, dealEvent{
		DealID: d.ID, PipelineID: d.PipelineID, StageID: d.StageID,
		Status: string(d.Status), Actor: actor,
	})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventDealDeleted, ws.DealDeletedEvent{
			DealID:     d.ID,
			PipelineID: d.PipelineID,
			StageID:    d.StageID,
		})
	}
	return nil
}

func (s *DealService) countStatusChange(ctx context.Context, old, now deal.Status) {
	if old == now {
		return
	}
	switch now {
	case deal.StatusWon:
		s.metrics.DealsWon.Add(ctx, 1)
	case deal.StatusLost:
		s.metrics.DealsLost.Add(ctx, 1)
	}
}

func (s *DealService) publish(ctx context.Context, subject string, ev dealEvent) {
	publishDealEvent(ctx, s.queue, subject, ev)
}

// publishDealEvent sends a deal lifecycle event to the queue. Publish
// failures are logged, never propagated; the mutation already committed.
func publishDealEvent(ctx context.Context, queue messagequeue.Queue, subject string, ev dealEvent) {
	if queue == nil {
		return
	}
	ev.EventID = uuid.New().String()
	ev.OccurredAt = time.Now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal deal event", "subject", subject, "error", err)
		return
	}
	if err := queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish deal event", "subject", subject, "deal_id", ev.DealID, "error", err)
	}
}

func validateFilter(f deal.Filter) error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("unknown status filter %q: %w", f.Status, domain.ErrValidation)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return fmt.Errorf("unknown priority filter %q: %w", f.Priority, domain.ErrValidation)
	}
	return nil
}
