package postgres

import (
	"context"
	"fmt"

	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// --- Pipelines ---

func (s *Store) ListPipelines(ctx context.Context) ([]pipeline.Pipeline, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pipelineCols+` FROM pipelines ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", transient(err))
	}
	defer rows.Close()

	var pipelines []pipeline.Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, rows.Err()
}

// GetPipeline returns the pipeline with its stages loaded in position order.
func (s *Store) GetPipeline(ctx context.Context, id string) (*pipeline.Pipeline, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pipelineCols+` FROM pipelines WHERE id = $1`, id)

	p, err := scanPipeline(row)
	if err != nil {
		return nil, notFoundWrap(err, "get pipeline %s", id)
	}

	stages, err := s.ListStages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Stages = stages
	return &p, nil
}

// CreatePipeline inserts the pipeline at the next free top-level position and
// seeds the six canonical stages, all in one transaction.
func (s *Store) CreatePipeline(ctx context.Context, req pipeline.CreateRequest) (*pipeline.Pipeline, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`INSERT INTO pipelines (name, description, color, position)
		 VALUES ($1, $2, $3,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM pipelines))
		 RETURNING `+pipelineCols,
		req.Name, req.Description, req.Color)

	p, err := scanPipeline(row)
	if err != nil {
		return nil, fmt.Errorf("insert pipeline: %w", transient(err))
	}

	for i, seed := range pipeline.SeedStages() {
		st := pipeline.Stage{}
		err = tx.QueryRow(ctx,
			`INSERT INTO stages (pipeline_id, name, color, position, win_probability, is_won_stage, is_lost_stage)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+stageCols,
			p.ID, seed.Name, seed.Color, i, seed.WinProbability, seed.IsWonStage, seed.IsLostStage,
		).Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.Position,
			&st.WinProbability, &st.IsWonStage, &st.IsLostStage, &st.IsActive,
			&st.CreatedAt, &st.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("seed stage %q: %w", seed.Name, transient(err))
		}
		p.Stages = append(p.Stages, st)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &p, nil
}

func (s *Store) UpdatePipeline(ctx context.Context, id string, req pipeline.UpdateRequest) (*pipeline.Pipeline, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+pipelineCols+` FROM pipelines WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPipeline(row)
	if err != nil {
		return nil, notFoundWrap(err, "update pipeline %s", id)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Color != nil {
		p.Color = *req.Color
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	err = tx.QueryRow(ctx,
		`UPDATE pipelines SET name = $2, description = $3, color = $4, is_active = $5, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.Name, p.Description, p.Color, p.IsActive).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update pipeline %s: %w", id, transient(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &p, nil
}

// DeletePipeline deactivates the pipeline. Its stages and deals are untouched.
func (s *Store) DeletePipeline(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pipelines SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete pipeline %s", id)
}

// ReorderPipelines assigns position = index in the given order. Stage order
// inside each pipeline is never touched here.
func (s *Store) ReorderPipelines(ctx context.Context, ids []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ids {
		tag, err := tx.Exec(ctx,
			`UPDATE pipelines SET position = $2, updated_at = now() WHERE id = $1`, id, i)
		if err := execExpectOne(tag, err, "reorder pipeline %s", id); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", transient(err))
	}
	return nil
}

// --- Stages ---

func (s *Store) GetStage(ctx context.Context, id string) (*pipeline.Stage, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+stageCols+` FROM stages WHERE id = $1`, id)
	st, err := scanStage(row)
	if err != nil {
		return nil, notFoundWrap(err, "get stage %s", id)
	}
	return &st, nil
}

func (s *Store) ListStages(ctx context.Context, pipelineID string) ([]pipeline.Stage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+stageCols+` FROM stages WHERE pipeline_id = $1 ORDER BY position ASC`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", transient(err))
	}
	defer rows.Close()

	var stages []pipeline.Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

func (s *Store) ListAllStages(ctx context.Context) ([]pipeline.Stage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+stageCols+` FROM stages ORDER BY pipeline_id, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all stages: %w", transient(err))
	}
	defer rows.Close()

	var stages []pipeline.Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// CreateStage appends the stage at the next free position of its pipeline.
func (s *Store) CreateStage(ctx context.Context, req pipeline.CreateStageRequest) (*pipeline.Stage, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO stages (pipeline_id, name, color, position, win_probability, is_won_stage, is_lost_stage)
		 VALUES ($1, $2, $3,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM stages WHERE pipeline_id = $1),
		         $4, $5, $6)
		 RETURNING `+stageCols,
		req.PipelineID, req.Name, req.Color, req.WinProbability, req.IsWonStage, req.IsLostStage)

	st, err := scanStage(row)
	if err != nil {
		return nil, fmt.Errorf("insert stage: %w", transient(err))
	}
	return &st, nil
}

func (s *Store) UpdateStage(ctx context.Context, id string, req pipeline.UpdateStageRequest) (*pipeline.Stage, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+stageCols+` FROM stages WHERE id = $1 FOR UPDATE`, id)
	st, err := scanStage(row)
	if err != nil {
		return nil, notFoundWrap(err, "update stage %s", id)
	}

	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.Color != nil {
		st.Color = *req.Color
	}
	if req.WinProbability != nil {
		st.WinProbability = *req.WinProbability
	}
	if req.IsWonStage != nil {
		st.IsWonStage = *req.IsWonStage
	}
	if req.IsLostStage != nil {
		st.IsLostStage = *req.IsLostStage
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}

	err = tx.QueryRow(ctx,
		`UPDATE stages SET name = $2, color = $3, win_probability = $4,
		        is_won_stage = $5, is_lost_stage = $6, is_active = $7, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		st.ID, st.Name, st.Color, st.WinProbability, st.IsWonStage, st.IsLostStage, st.IsActive,
	).Scan(&st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update stage %s: %w", id, transient(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &st, nil
}

// DeleteStage deactivates the stage. When moveDealsTo is non-empty, every
// deal currently in the stage is appended to the target stage inside the
// same transaction, with positions recomputed and status flags of the target
// stage applied.
func (s *Store) DeleteStage(ctx context.Context, id, moveDealsTo string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE stages SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err := execExpectOne(tag, err, "delete stage %s", id); err != nil {
		return err
	}

	if moveDealsTo != "" {
		if err := s.redirectDeals(ctx, tx, id, moveDealsTo); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", transient(err))
	}
	return nil
}

// ReorderStages reassigns contiguous positions within one pipeline following
// the given id order.
func (s *Store) ReorderStages(ctx context.Context, pipelineID string, ids []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ids {
		tag, err := tx.Exec(ctx,
			`UPDATE stages SET position = $3, updated_at = now()
			 WHERE id = $1 AND pipeline_id = $2`, id, pipelineID, i)
		if err := execExpectOne(tag, err, "reorder stage %s", id); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", transient(err))
	}
	return nil
}
