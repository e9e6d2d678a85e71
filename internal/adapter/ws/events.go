package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventDealCreated   = "deal.created"
	EventDealMoved     = "deal.moved"
	EventDealStatus    = "deal.status"
	EventDealDeleted   = "deal.deleted"
	EventDealConverted = "deal.converted"
)

// DealCreatedEvent is broadcast when a new deal lands on a board.
type DealCreatedEvent struct {
	DealID     string `json:"deal_id"`
	PipelineID string `json:"pipeline_id"`
	StageID    string `json:"stage_id"`
	Title      string `json:"title"`
}

// DealMovedEvent is broadcast when a deal changes stage or position.
type DealMovedEvent struct {
	DealID      string `json:"deal_id"`
	PipelineID  string `json:"pipeline_id"`
	FromStageID string `json:"from_stage_id"`
	ToStageID   string `json:"to_stage_id"`
	Position    int    `json:"position"`
	Status      string `json:"status"`
}

// DealStatusEvent is broadcast when a deal's status changes without a move.
type DealStatusEvent struct {
	DealID     string `json:"deal_id"`
	PipelineID string `json:"pipeline_id"`
	Status     string `json:"status"`
	LostReason string `json:"lost_reason,omitempty"`
}

// DealDeletedEvent is broadcast when a deal is removed from a board.
type DealDeletedEvent struct {
	DealID     string `json:"deal_id"`
	PipelineID string `json:"pipeline_id"`
	StageID    string `json:"stage_id"`
}

// DealConvertedEvent is broadcast when an invoice draft is created from
// a won deal.
type DealConvertedEvent struct {
	DealID        string `json:"deal_id"`
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
}

// BroadcastEvent marshals a typed event and broadcasts it to every client.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
