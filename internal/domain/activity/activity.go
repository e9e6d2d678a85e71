// Package activity defines the per-deal activity timeline entities.
package activity

import "time"

// Type classifies a timeline entry. Stage and status changes are produced
// internally by deal mutations and cannot be created through the API.
type Type string

const (
	TypeNote         Type = "note"
	TypeCall         Type = "call"
	TypeMeeting      Type = "meeting"
	TypeEmail        Type = "email"
	TypeTask         Type = "task"
	TypeStageChange  Type = "stage_change"
	TypeStatusChange Type = "status_change"
)

// UserCreatable reports whether t may be supplied by an API caller.
func (t Type) UserCreatable() bool {
	switch t {
	case TypeNote, TypeCall, TypeMeeting, TypeEmail, TypeTask:
		return true
	}
	return false
}

// Valid reports whether t is a known activity type.
func (t Type) Valid() bool {
	return t.UserCreatable() || t == TypeStageChange || t == TypeStatusChange
}

// Metadata holds free-form key/value details attached to system-generated
// entries (from/to stage names, old/new status, invoice references).
type Metadata map[string]string

// Activity is one entry in a deal's append-only timeline.
type Activity struct {
	ID          string     `json:"id"`
	DealID      string     `json:"deal_id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateRequest holds the fields for a user-created timeline entry.
type CreateRequest struct {
	DealID      string     `json:"deal_id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// UpdateRequest holds optional activity field edits.
type UpdateRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}
