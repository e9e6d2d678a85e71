package service

import (
	"context"
	"fmt"

	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/activity"
	"github.com/soladex/dealdesk/internal/port/database"
)

const (
	defaultScheduleWindow = 7  // days
	defaultScheduleLimit  = 50 // entries
	maxScheduleLimit      = 200
)

// ActivityService handles the per-deal activity timeline.
type ActivityService struct {
	store database.Store
}

// NewActivityService creates a new ActivityService.
func NewActivityService(store database.Store) *ActivityService {
	return &ActivityService{store: store}
}

// Get returns a single timeline entry.
func (s *ActivityService) Get(ctx context.Context, id string) (*activity.Activity, error) {
	return s.store.GetActivity(ctx, id)
}

// ListForDeal returns a deal's timeline, newest first.
func (s *ActivityService) ListForDeal(ctx context.Context, dealID string) ([]activity.Activity, error) {
	if _, err := s.store.GetDeal(ctx, dealID); err != nil {
		return nil, err
	}
	return s.store.ListDealActivities(ctx, dealID)
}

// Scheduled returns upcoming incomplete entries. Zero daysAhead and limit
// fall back to defaults; limit is capped.
func (s *ActivityService) Scheduled(ctx context.Context, actorID string, daysAhead, limit int) ([]activity.Activity, error) {
	if daysAhead <= 0 {
		daysAhead = defaultScheduleWindow
	}
	if limit <= 0 {
		limit = defaultScheduleLimit
	}
	if limit > maxScheduleLimit {
		limit = maxScheduleLimit
	}
	return s.store.ListScheduledActivities(ctx, actorID, daysAhead, limit)
}

// Create records a user-created timeline entry. System entry types
// (stage_change, status_change) are rejected; only deal mutations produce
// those.
func (s *ActivityService) Create(ctx context.Context, req activity.CreateRequest, actor string) (*activity.Activity, error) {
	if req.DealID == "" || req.Title == "" {
		return nil, fmt.Errorf("deal_id and title are required: %w", domain.ErrValidation)
	}
	if !req.Type.UserCreatable() {
		return nil, fmt.Errorf("activity type %q cannot be created directly: %w", req.Type, domain.ErrValidation)
	}
	if _, err := s.store.GetDeal(ctx, req.DealID); err != nil {
		return nil, err
	}
	return s.store.CreateActivity(ctx, req, actor)
}

// Update applies partial edits to a user-created entry. System entries are
// immutable.
func (s *ActivityService) Update(ctx context.Context, id string, req activity.UpdateRequest) (*activity.Activity, error) {
	cur, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.Type.UserCreatable() {
		return nil, fmt.Errorf("system activity %q cannot be edited: %w", cur.Type, domain.ErrValidation)
	}
	if req.Title != nil && *req.Title == "" {
		return nil, fmt.Errorf("activity title cannot be empty: %w", domain.ErrValidation)
	}
	return s.store.UpdateActivity(ctx, id, req)
}

// Complete marks an entry done. Completing twice is a no-op.
func (s *ActivityService) Complete(ctx context.Context, id string) (*activity.Activity, error) {
	return s.store.CompleteActivity(ctx, id)
}

// Delete removes a user-created entry. System entries are immutable.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	cur, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	if !cur.Type.UserCreatable() {
		return fmt.Errorf("system activity %q cannot be deleted: %w", cur.Type, domain.ErrValidation)
	}
	return s.store.DeleteActivity(ctx, id)
}
