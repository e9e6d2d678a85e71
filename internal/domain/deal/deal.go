// Package deal defines the Deal domain entity and the pure rules governing
// stage movement and status transitions.
package deal

import (
	"time"

	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// Status represents the lifecycle state of a deal.
type Status string

const (
	StatusOpen Status = "open"
	StatusWon  Status = "won"
	StatusLost Status = "lost"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusWon, StatusLost:
		return true
	}
	return false
}

// Priority represents the urgency of a deal.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Party is a resolved external directory reference (client or assignee).
// Populated at the API boundary; never stored.
type Party struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Deal is a sales opportunity tracked through pipeline stages. Position is
// the zero-based rank of the deal within its current stage; positions inside
// a stage always form a contiguous 0..n-1 range.
type Deal struct {
	ID                string     `json:"id"`
	PipelineID        string     `json:"pipeline_id"`
	StageID           string     `json:"stage_id"`
	ClientID          string     `json:"client_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	ContactPerson     string     `json:"contact_person,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	ContactPhone      string     `json:"contact_phone,omitempty"`
	Value             float64    `json:"value"`
	Currency          string     `json:"currency"`
	Status            Status     `json:"status"`
	Priority          Priority   `json:"priority"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	ActualCloseDate   *time.Time `json:"actual_close_date,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	LostReason        string     `json:"lost_reason,omitempty"`
	WonInvoiceID      string     `json:"won_invoice_id,omitempty"`
	Position          int        `json:"position"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Resolved relations, populated at the API boundary.
	Client   *Party `json:"client,omitempty"`
	Assignee *Party `json:"assignee,omitempty"`
}

// CreateRequest holds the fields needed to create a deal.
type CreateRequest struct {
	PipelineID        string     `json:"pipeline_id"`
	StageID           string     `json:"stage_id"`
	ClientID          string     `json:"client_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	ContactPerson     string     `json:"contact_person,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	ContactPhone      string     `json:"contact_phone,omitempty"`
	Value             float64    `json:"value"`
	Currency          string     `json:"currency,omitempty"`
	Priority          Priority   `json:"priority,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
}

// UpdateRequest holds optional deal field edits. Stage, position and status
// are never changed here; those go through Move and UpdateStatus.
type UpdateRequest struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	ClientID          *string    `json:"client_id,omitempty"`
	ContactPerson     *string    `json:"contact_person,omitempty"`
	ContactEmail      *string    `json:"contact_email,omitempty"`
	ContactPhone      *string    `json:"contact_phone,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	Currency          *string    `json:"currency,omitempty"`
	Priority          *Priority  `json:"priority,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	AssignedTo        *string    `json:"assigned_to,omitempty"`
}

// MoveRequest asks to place a deal at a position inside a target stage.
type MoveRequest struct {
	StageID  string `json:"stage_id"`
	Position int    `json:"position"`
}

// StatusRequest asks for a direct status override independent of stage
// membership.
type StatusRequest struct {
	Status     Status `json:"status"`
	LostReason string `json:"lost_reason,omitempty"`
}

// Filter narrows a pipeline board listing.
type Filter struct {
	Status     Status
	Priority   Priority
	AssignedTo string
	Search     string
}

// Column is one kanban board column: a stage plus its deals ordered by
// position ascending.
type Column struct {
	Stage pipeline.Stage `json:"stage"`
	Deals []Deal         `json:"deals"`
}

// ApplyStageFlags applies the status policy for a deal that has just landed
// in stage st. It mutates status, actual_close_date and nothing else, and
// reports whether the status changed. lost_reason is deliberately left
// untouched on reset; the next actual loss overwrites it.
func ApplyStageFlags(d *Deal, st *pipeline.Stage, now time.Time) bool {
	switch {
	case st.IsWonStage && d.Status != StatusWon:
		d.Status = StatusWon
		d.ActualCloseDate = &now
	case st.IsLostStage && d.Status != StatusLost:
		d.Status = StatusLost
		d.ActualCloseDate = &now
	case !st.IsWonStage && !st.IsLostStage && d.Status != StatusOpen:
		d.Status = StatusOpen
		d.ActualCloseDate = nil
	default:
		return false
	}
	return true
}
