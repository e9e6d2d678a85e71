// Package service implements business logic on top of ports.
package service

import (
	"context"
	"fmt"

	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
	"github.com/soladex/dealdesk/internal/port/database"
)

// PipelineService handles pipeline and stage business logic.
type PipelineService struct {
	store database.Store
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(store database.Store) *PipelineService {
	return &PipelineService{store: store}
}

// List returns all pipelines ordered by position.
func (s *PipelineService) List(ctx context.Context) ([]pipeline.Pipeline, error) {
	return s.store.ListPipelines(ctx)
}

// Get returns a pipeline with its stages loaded.
func (s *PipelineService) Get(ctx context.Context, id string) (*pipeline.Pipeline, error) {
	return s.store.GetPipeline(ctx, id)
}

// Create creates a pipeline seeded with the default stage set.
func (s *PipelineService) Create(ctx context.Context, req pipeline.CreateRequest) (*pipeline.Pipeline, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("pipeline name is required: %w", domain.ErrValidation)
	}
	return s.store.CreatePipeline(ctx, req)
}

// Update applies partial edits to a pipeline.
func (s *PipelineService) Update(ctx context.Context, id string, req pipeline.UpdateRequest) (*pipeline.Pipeline, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("pipeline name cannot be empty: %w", domain.ErrValidation)
	}
	return s.store.UpdatePipeline(ctx, id, req)
}

// Delete deactivates a pipeline. Deals and stages are kept for history.
func (s *PipelineService) Delete(ctx context.Context, id string) error {
	return s.store.DeletePipeline(ctx, id)
}

// Reorder reassigns pipeline positions following the given id order.
func (s *PipelineService) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("pipeline ids are required: %w", domain.ErrValidation)
	}
	return s.store.ReorderPipelines(ctx, ids)
}

// GetStage returns a single stage.
func (s *PipelineService) GetStage(ctx context.Context, id string) (*pipeline.Stage, error) {
	return s.store.GetStage(ctx, id)
}

// CreateStage appends a stage to a pipeline.
func (s *PipelineService) CreateStage(ctx context.Context, req pipeline.CreateStageRequest) (*pipeline.Stage, error) {
	if req.PipelineID == "" || req.Name == "" {
		return nil, fmt.Errorf("stage pipeline_id and name are required: %w", domain.ErrValidation)
	}
	if err := validateStageFlags(req.IsWonStage, req.IsLostStage, req.WinProbability); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPipeline(ctx, req.PipelineID); err != nil {
		return nil, err
	}
	return s.store.CreateStage(ctx, req)
}

// UpdateStage applies partial edits to a stage.
func (s *PipelineService) UpdateStage(ctx context.Context, id string, req pipeline.UpdateStageRequest) (*pipeline.Stage, error) {
	cur, err := s.store.GetStage(ctx, id)
	if err != nil {
		return nil, err
	}

	won, lost, prob := cur.IsWonStage, cur.IsLostStage, cur.WinProbability
	if req.IsWonStage != nil {
		won = *req.IsWonStage
	}
	if req.IsLostStage != nil {
		lost = *req.IsLostStage
	}
	if req.WinProbability != nil {
		prob = *req.WinProbability
	}
	if err := validateStageFlags(won, lost, prob); err != nil {
		return nil, err
	}

	return s.store.UpdateStage(ctx, id, req)
}

// DeleteStage deactivates a stage. When moveDealsTo is set, its deals are
// redirected there atomically.
func (s *PipelineService) DeleteStage(ctx context.Context, id, moveDealsTo string) error {
	if moveDealsTo == id {
		return fmt.Errorf("cannot redirect deals to the deleted stage: %w", domain.ErrValidation)
	}
	if moveDealsTo != "" {
		target, err := s.store.GetStage(ctx, moveDealsTo)
		if err != nil {
			return err
		}
		source, err := s.store.GetStage(ctx, id)
		if err != nil {
			return err
		}
		if target.PipelineID != source.PipelineID {
			return fmt.Errorf("redirect target belongs to another pipeline: %w", domain.ErrValidation)
		}
	}
	return s.store.DeleteStage(ctx, id, moveDealsTo)
}

// ReorderStages reassigns stage positions within a pipeline.
func (s *PipelineService) ReorderStages(ctx context.Context, pipelineID string, ids []string) error {
	if pipelineID == "" || len(ids) == 0 {
		return fmt.Errorf("pipeline_id and stage ids are required: %w", domain.ErrValidation)
	}
	return s.store.ReorderStages(ctx, pipelineID, ids)
}

func validateStageFlags(won, lost bool, winProbability int) error {
	if won && lost {
		return fmt.Errorf("stage cannot be both won and lost: %w", domain.ErrValidation)
	}
	if winProbability < 0 || winProbability > 100 {
		return fmt.Errorf("win_probability must be between 0 and 100: %w", domain.ErrValidation)
	}
	return nil
}
