package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/activity"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// --- Deals ---

func (s *Store) GetDeal(ctx context.Context, id string) (*deal.Deal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+dealCols+` FROM deals WHERE id = $1`, id)
	d, err := scanDeal(row)
	if err != nil {
		return nil, notFoundWrap(err, "get deal %s", id)
	}
	return &d, nil
}

// ListDeals returns every deal, optionally scoped to one pipeline.
func (s *Store) ListDeals(ctx context.Context, pipelineID string) ([]deal.Deal, error) {
	query := `SELECT ` + dealCols + ` FROM deals`
	args := []any{}
	if pipelineID != "" {
		query += ` WHERE pipeline_id = $1`
		args = append(args, pipelineID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", transient(err))
	}
	defer rows.Close()
	return collectDeals(rows)
}

// ListDealsByPipeline returns the pipeline's deals, filtered, ordered by
// stage and position ascending.
func (s *Store) ListDealsByPipeline(ctx context.Context, pipelineID string, f deal.Filter) ([]deal.Deal, error) {
	query := `SELECT ` + dealCols + ` FROM deals WHERE pipeline_id = $1`
	args := []any{pipelineID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(` AND priority = $%d`, len(args))
	}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		query += fmt.Sprintf(` AND assigned_to = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(` AND (title ILIKE $%d OR contact_person ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY stage_id, position ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals by pipeline: %w", transient(err))
	}
	defer rows.Close()
	return collectDeals(rows)
}

func (s *Store) ListDealsForClient(ctx context.Context, clientID string) ([]deal.Deal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+dealCols+` FROM deals WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list deals for client: %w", transient(err))
	}
	defer rows.Close()
	return collectDeals(rows)
}

func collectDeals(rows pgx.Rows) ([]deal.Deal, error) {
	var deals []deal.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// CreateDeal validates the stage, appends the deal at the end of it and
// records the creation on the deal's timeline, all in one transaction.
func (s *Store) CreateDeal(ctx context.Context, req deal.CreateRequest, actor string) (*deal.Deal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the stage row so a concurrent create or move cannot hand out the
	// same position.
	row := tx.QueryRow(ctx,
		`SELECT `+stageCols+` FROM stages WHERE id = $1 FOR UPDATE`, req.StageID)
	st, err := scanStage(row)
	if err != nil {
		return nil, notFoundWrap(err, "create deal: stage %s", req.StageID)
	}
	if st.PipelineID != req.PipelineID {
		return nil, fmt.Errorf("create deal: stage %s does not belong to pipeline %s: %w",
			req.StageID, req.PipelineID, domain.ErrValidation)
	}

	row = tx.QueryRow(ctx,
		`INSERT INTO deals (pipeline_id, stage_id, client_id, title, description,
		                    contact_person, contact_email, contact_phone, value,
		                    currency, priority, expected_close_date, assigned_to,
		                    position, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM deals WHERE stage_id = $2),
		         $14)
		 RETURNING `+dealCols,
		req.PipelineID, req.StageID, nullIfEmpty(req.ClientID), req.Title,
		req.Description, req.ContactPerson, req.ContactEmail, req.ContactPhone,
		req.Value, req.Currency, req.Priority, req.ExpectedCloseDate,
		nullIfEmpty(req.AssignedTo), actor)

	d, err := scanDeal(row)
	if err != nil {
		return nil, fmt.Errorf("insert deal: %w", transient(err))
	}

	if err := insertActivity(ctx, tx, d.ID, activity.TypeNote, "Deal created", nil, actor); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &d, nil
}

func (s *Store) UpdateDeal(ctx context.Context, id string, req deal.UpdateRequest) (*deal.Deal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+dealCols+` FROM deals WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDeal(row)
	if err != nil {
		return nil, notFoundWrap(err, "update deal %s", id)
	}

	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.ClientID != nil {
		d.ClientID = *req.ClientID
	}
	if req.ContactPerson != nil {
		d.ContactPerson = *req.ContactPerson
	}
	if req.ContactEmail != nil {
		d.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		d.ContactPhone = *req.ContactPhone
	}
	if req.Value != nil {
		d.Value = *req.Value
	}
	if req.Currency != nil {
		d.Currency = *req.Currency
	}
	if req.Priority != nil {
		d.Priority = *req.Priority
	}
	if req.ExpectedCloseDate != nil {
		d.ExpectedCloseDate = req.ExpectedCloseDate
	}
	if req.AssignedTo != nil {
		d.AssignedTo = *req.AssignedTo
	}

	err = tx.QueryRow(ctx,
		`UPDATE deals SET title = $2, description = $3, client_id = $4,
		        contact_person = $5, contact_email = $6, contact_phone = $7,
		        value = $8, currency = $9, priority = $10,
		        expected_close_date = $11, assigned_to = $12, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		d.ID, d.Title, d.Description, nullIfEmpty(d.ClientID), d.ContactPerson,
		d.ContactEmail, d.ContactPhone, d.Value, d.Currency, d.Priority,
		d.ExpectedCloseDate, nullIfEmpty(d.AssignedTo)).Scan(&d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update deal %s: %w", id, transient(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &d, nil
}

// MoveDeal places a deal at a position inside a target stage. The source
// gap close, the target slot open, the reassignment, the status policy and
// the stage_change timeline entry commit as one unit; on any failure the
// whole shuffle rolls back. Both stage rows are locked in id order so two
// concurrent moves touching the same stages cannot deadlock or interleave.
func (s *Store) MoveDeal(ctx context.Context, id, stageID string, position int, actor string) (*deal.Deal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+dealCols+` FROM deals WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDeal(row)
	if err != nil {
		return nil, notFoundWrap(err, "move deal %s", id)
	}

	stages, err := lockStages(ctx, tx, d.StageID, stageID)
	if err != nil {
		return nil, err
	}
	target, ok := stages[stageID]
	if !ok {
		return nil, fmt.Errorf("move deal %s: stage %s: %w", id, stageID, domain.ErrNotFound)
	}

	if d.StageID == target.ID && d.Position == position {
		return &d, nil // no-op
	}

	// Clamp the requested position into the valid contiguous range of the
	// target stage so a stale client cannot punch a gap into the board.
	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM deals WHERE stage_id = $1`, target.ID).Scan(&count); err != nil {
		return nil, fmt.Errorf("count target deals: %w", transient(err))
	}
	maxPos := count
	if d.StageID == target.ID {
		maxPos = count - 1
	}
	if position < 0 {
		position = 0
	}
	if position > maxPos {
		position = maxPos
	}

	// Close the gap in the source stage.
	if _, err := tx.Exec(ctx,
		`UPDATE deals SET position = position - 1, updated_at = now()
		 WHERE stage_id = $1 AND position > $2 AND id <> $3`,
		d.StageID, d.Position, d.ID); err != nil {
		return nil, fmt.Errorf("shift source stage: %w", transient(err))
	}

	// Open a slot in the target stage.
	if _, err := tx.Exec(ctx,
		`UPDATE deals SET position = position + 1, updated_at = now()
		 WHERE stage_id = $1 AND position >= $2 AND id <> $3`,
		target.ID, position, d.ID); err != nil {
		return nil, fmt.Errorf("shift target stage: %w", transient(err))
	}

	source := stages[d.StageID]
	oldStatus := d.Status
	stageChanged := d.StageID != target.ID

	deal.ApplyStageFlags(&d, &target, time.Now())
	d.StageID = target.ID
	d.PipelineID = target.PipelineID
	d.Position = position

	err = tx.QueryRow(ctx,
		`UPDATE deals SET stage_id = $2, pipeline_id = $3, position = $4,
		        status = $5, actual_close_date = $6, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		d.ID, d.StageID, d.PipelineID, d.Position, d.Status, d.ActualCloseDate,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reassign deal %s: %w", id, transient(err))
	}

	if stageChanged {
		meta := activity.Metadata{
			"from_stage_id": source.ID,
			"from_stage":    source.Name,
			"to_stage_id":   target.ID,
			"to_stage":      target.Name,
		}
		if d.Status != oldStatus {
			meta["old_status"] = string(oldStatus)
			meta["new_status"] = string(d.Status)
		}
		title := fmt.Sprintf("Moved from %s to %s", source.Name, target.Name)
		if err := insertActivity(ctx, tx, d.ID, activity.TypeStageChange, title, meta, actor); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &d, nil
}

// UpdateDealStatus overrides a deal's status without moving it between
// stages. A status_change timeline entry is recorded only when the value
// actually changed.
func (s *Store) UpdateDealStatus(ctx context.Context, id string, status deal.Status, lostReason, actor string) (*deal.Deal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+dealCols+` FROM deals WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDeal(row)
	if err != nil {
		return nil, notFoundWrap(err, "update deal status %s", id)
	}

	oldStatus := d.Status
	d.Status = status
	switch status {
	case deal.StatusWon, deal.StatusLost:
		if oldStatus != status {
			now := time.Now()
			d.ActualCloseDate = &now
		}
	case deal.StatusOpen:
		d.ActualCloseDate = nil
	}
	if status == deal.StatusLost && lostReason != "" {
		d.LostReason = lostReason
	}

	err = tx.QueryRow(ctx,
		`UPDATE deals SET status = $2, actual_close_date = $3, lost_reason = $4, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		d.ID, d.Status, d.ActualCloseDate, d.LostReason).Scan(&d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update deal status %s: %w", id, transient(err))
	}

	if oldStatus != status {
		meta := activity.Metadata{
			"old_status": string(oldStatus),
			"new_status": string(status),
		}
		if status == deal.StatusLost && lostReason != "" {
			meta["lost_reason"] = lostReason
		}
		title := fmt.Sprintf("Status changed from %s to %s", oldStatus, status)
		if err := insertActivity(ctx, tx, d.ID, activity.TypeStatusChange, title, meta, actor); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", transient(err))
	}
	return &d, nil
}

// DeleteDeal removes the deal and compacts the positions of its former
// stage siblings in the same transaction, keeping the contiguous range.
func (s *Store) DeleteDeal(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stageID string
	var position int
	err = tx.QueryRow(ctx,
		`SELECT stage_id, position FROM deals WHERE id = $1 FOR UPDATE`, id,
	).Scan(&stageID, &position)
	if err != nil {
		return notFoundWrap(err, "delete deal %s", id)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM deals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete deal %s: %w", id, transient(err))
	}

	if _, err := tx.Exec(ctx,
		`UPDATE deals SET position = position - 1, updated_at = now()
		 WHERE stage_id = $1 AND position > $2`, stageID, position); err != nil {
		return fmt.Errorf("compact stage %s: %w", stageID, transient(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", transient(err))
	}
	return nil
}

// LinkDealInvoice stores the invoice reference on the deal. The column is
// write-once: a second link attempt fails with ErrConflict.
func (s *Store) LinkDealInvoice(ctx context.Context, id, invoiceID, invoiceNumber, actor string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", transient(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE deals SET won_invoice_id = $2, updated_at = now()
		 WHERE id = $1 AND won_invoice_id IS NULL`, id, invoiceID)
	if err != nil {
		return fmt.Errorf("link invoice to deal %s: %w", id, transient(err))
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM deals WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("link invoice to deal %s: %w", id, transient(err))
		}
		if exists {
			return fmt.Errorf("deal %s already converted: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("link invoice to deal %s: %w", id, domain.ErrNotFound)
	}

	meta := activity.Metadata{"invoice_id": invoiceID, "invoice_number": invoiceNumber}
	title := fmt.Sprintf("Invoice %s created from deal", invoiceNumber)
	if err := insertActivity(ctx, tx, id, activity.TypeNote, title, meta, actor); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", transient(err))
	}
	return nil
}

// redirectDeals appends every deal of the deleted stage to the target stage
// and applies the target's status flags. Runs inside the DeleteStage
// transaction.
func (s *Store) redirectDeals(ctx context.Context, tx pgx.Tx, fromStageID, toStageID string) error {
	stages, err := lockStages(ctx, tx, fromStageID, toStageID)
	if err != nil {
		return err
	}
	target, ok := stages[toStageID]
	if !ok {
		return fmt.Errorf("redirect deals: stage %s: %w", toStageID, domain.ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`WITH moved AS (
		     SELECT id, row_number() OVER (ORDER BY position) - 1 AS rn
		     FROM deals WHERE stage_id = $1
		 )
		 UPDATE deals d
		 SET stage_id = $2, pipeline_id = $3,
		     position = (SELECT COALESCE(MAX(position) + 1, 0) FROM deals WHERE stage_id = $2) + m.rn,
		     updated_at = now()
		 FROM moved m WHERE d.id = m.id`,
		fromStageID, target.ID, target.PipelineID)
	if err != nil {
		return fmt.Errorf("redirect deals %s -> %s: %w", fromStageID, toStageID, transient(err))
	}

	// Re-align status with the target stage's flags.
	switch {
	case target.IsWonStage:
		_, err = tx.Exec(ctx,
			`UPDATE deals SET status = 'won', actual_close_date = now(), updated_at = now()
			 WHERE stage_id = $1 AND status <> 'won'`, target.ID)
	case target.IsLostStage:
		_, err = tx.Exec(ctx,
			`UPDATE deals SET status = 'lost', actual_close_date = now(), updated_at = now()
			 WHERE stage_id = $1 AND status <> 'lost'`, target.ID)
	default:
		_, err = tx.Exec(ctx,
			`UPDATE deals SET status = 'open', actual_close_date = NULL, updated_at = now()
			 WHERE stage_id = $1 AND status <> 'open'`, target.ID)
	}
	if err != nil {
		return fmt.Errorf("redirect status policy: %w", transient(err))
	}
	return nil
}

// lockStages locks the given stage rows FOR UPDATE in id order (stable lock
// ordering prevents deadlocks between concurrent moves) and returns them
// keyed by id. Missing stages are simply absent from the map.
func lockStages(ctx context.Context, tx pgx.Tx, ids ...string) (map[string]pipeline.Stage, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	rows, err := tx.Query(ctx,
		`SELECT `+stageCols+` FROM stages WHERE id = ANY($1) ORDER BY id FOR UPDATE`, unique)
	if err != nil {
		return nil, fmt.Errorf("lock stages: %w", transient(err))
	}
	defer rows.Close()

	stages := make(map[string]pipeline.Stage, len(unique))
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked stage: %w", err)
		}
		stages[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock stages: %w", transient(err))
	}
	return stages, nil
}

// insertActivity appends a timeline entry inside the caller's transaction.
func insertActivity(ctx context.Context, tx pgx.Tx, dealID string, typ activity.Type, title string, meta activity.Metadata, actor string) error {
	if meta == nil {
		meta = activity.Metadata{}
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO activities (deal_id, type, title, metadata, created_by)
		 VALUES ($1, $2, $3, $4, $5)`,
		dealID, typ, title, meta, actor)
	if err != nil {
		return fmt.Errorf("insert %s activity: %w", typ, transient(err))
	}
	return nil
}
