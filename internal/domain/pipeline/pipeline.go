// Package pipeline defines the sales pipeline and stage domain entities.
package pipeline

import "time"

// Pipeline is a named, ordered sales process containing stages.
type Pipeline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"is_active"`
	Stages      []Stage   `json:"stages,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stage is an ordered step within a pipeline. At most one won and one lost
// stage per pipeline is conventional but not enforced.
type Stage struct {
	ID             string    `json:"id"`
	PipelineID     string    `json:"pipeline_id"`
	Name           string    `json:"name"`
	Color          string    `json:"color,omitempty"`
	Position       int       `json:"position"`
	WinProbability int       `json:"win_probability"`
	IsWonStage     bool      `json:"is_won_stage"`
	IsLostStage    bool      `json:"is_lost_stage"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a pipeline.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// UpdateRequest holds optional pipeline field updates. Nil fields are left
// unchanged.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateStageRequest holds the fields needed to create a stage. The new
// stage is appended at the next free position of its pipeline.
type CreateStageRequest struct {
	PipelineID     string `json:"pipeline_id"`
	Name           string `json:"name"`
	Color          string `json:"color,omitempty"`
	WinProbability int    `json:"win_probability"`
	IsWonStage     bool   `json:"is_won_stage"`
	IsLostStage    bool   `json:"is_lost_stage"`
}

// UpdateStageRequest holds optional stage field updates.
type UpdateStageRequest struct {
	Name           *string `json:"name,omitempty"`
	Color          *string `json:"color,omitempty"`
	WinProbability *int    `json:"win_probability,omitempty"`
	IsWonStage     *bool   `json:"is_won_stage,omitempty"`
	IsLostStage    *bool   `json:"is_lost_stage,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// StageSeed describes one of the canonical stages created with every new
// pipeline.
type StageSeed struct {
	Name           string
	Color          string
	WinProbability int
	IsWonStage     bool
	IsLostStage    bool
}

// SeedStages returns the six canonical stages seeded into a new pipeline,
// in position order 0..5.
func SeedStages() []StageSeed {
	return []StageSeed{
		{Name: "New Lead", Color: "#64748b", WinProbability: 10},
		{Name: "Contact", Color: "#0ea5e9", WinProbability: 20},
		{Name: "Proposal", Color: "#8b5cf6", WinProbability: 40},
		{Name: "Negotiation", Color: "#f59e0b", WinProbability: 60},
		{Name: "Won", Color: "#22c55e", WinProbability: 100, IsWonStage: true},
		{Name: "Lost", Color: "#ef4444", WinProbability: 0, IsLostStage: true},
	}
}
