package postgres

import (
	"context"
	"fmt"

	"github.com/soladex/dealdesk/internal/domain/activity"
)

// --- Activities ---

func (s *Store) GetActivity(ctx context.Context, id string) (*activity.Activity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+activityCols+` FROM activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, notFoundWrap(err, "get activity %s", id)
	}
	return &a, nil
}

// ListDealActivities returns the deal's timeline, newest first.
func (s *Store) ListDealActivities(ctx context.Context, dealID string) ([]activity.Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+activityCols+` FROM activities
		 WHERE deal_id = $1 ORDER BY created_at DESC`, dealID)
	if err != nil {
		return nil, fmt.Errorf("list deal activities: %w", transient(err))
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListScheduledActivities returns incomplete entries scheduled within the
// next daysAhead days, soonest first. An empty actorID matches everyone.
func (s *Store) ListScheduledActivities(ctx context.Context, actorID string, daysAhead, limit int) ([]activity.Activity, error) {
	query := `SELECT ` + activityCols + ` FROM activities
	 WHERE is_completed = FALSE
	   AND scheduled_at IS NOT NULL
	   AND scheduled_at >= now()
	   AND scheduled_at < now() + ($1 * INTERVAL '1 day')`
	args := []any{daysAhead}

	if actorID != "" {
		args = append(args, actorID)
		query += fmt.Sprintf(` AND created_by = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY scheduled_at ASC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scheduled activities: %w", transient(err))
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) CreateActivity(ctx context.Context, req activity.CreateRequest, actor string) (*activity.Activity, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO activities (deal_id, type, title, description, scheduled_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+activityCols,
		req.DealID, req.Type, req.Title, req.Description, req.ScheduledAt, actor)

	a, err := scanActivity(row)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", transient(err))
	}
	return &a, nil
}

func (s *Store) UpdateActivity(ctx context.Context, id string, req activity.UpdateRequest) (*activity.Activity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+activityCols+` FROM activities WHERE id = $1 FOR UPDATE`, id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, notFoundWrap(err, "update activity %s", id)
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.ScheduledAt != nil {
		a.ScheduledAt = req.ScheduledAt
	}

	_, err = tx.Exec(ctx,
		`UPDATE activities SET title = $2, description = $3, scheduled_at = $4
		 WHERE id = $1`,
		a.ID, a.Title, a.Description, a.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("update activity %s: %w", id, transient(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &a, nil
}

// CompleteActivity marks the entry done. Completing an already completed
// entry keeps the original completed_at.
func (s *Store) CompleteActivity(ctx context.Context, id string) (*activity.Activity, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE activities
		 SET is_completed = TRUE,
		     completed_at = COALESCE(completed_at, now())
		 WHERE id = $1
		 RETURNING `+activityCols, id)

	a, err := scanActivity(row)
	if err != nil {
		return nil, notFoundWrap(err, "complete activity %s", id)
	}
	return &a, nil
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete activity %s", id)
}
