package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soladex/dealdesk/internal/domain/activity"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const pipelineCols = `id, name, description, color, position, is_active, created_at, updated_at`

func scanPipeline(s scannable) (pipeline.Pipeline, error) {
	var p pipeline.Pipeline
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.Position,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const stageCols = `id, pipeline_id, name, color, position, win_probability,
	is_won_stage, is_lost_stage, is_active, created_at, updated_at`

func scanStage(s scannable) (pipeline.Stage, error) {
	var st pipeline.Stage
	err := s.Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.Position,
		&st.WinProbability, &st.IsWonStage, &st.IsLostStage, &st.IsActive,
		&st.CreatedAt, &st.UpdatedAt)
	return st, err
}

const dealCols = `id, pipeline_id, stage_id, client_id, title, description,
	contact_person, contact_email, contact_phone, value, currency, status,
	priority, expected_close_date, actual_close_date, assigned_to,
	lost_reason, won_invoice_id, position, created_by, created_at, updated_at`

func scanDeal(s scannable) (deal.Deal, error) {
	var (
		d            deal.Deal
		clientID     *string
		assignedTo   *string
		wonInvoiceID *string
	)
	err := s.Scan(&d.ID, &d.PipelineID, &d.StageID, &clientID, &d.Title,
		&d.Description, &d.ContactPerson, &d.ContactEmail, &d.ContactPhone,
		&d.Value, &d.Currency, &d.Status, &d.Priority, &d.ExpectedCloseDate,
		&d.ActualCloseDate, &assignedTo, &d.LostReason, &wonInvoiceID,
		&d.Position, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return d, err
	}
	d.ClientID = orEmpty(clientID)
	d.AssignedTo = orEmpty(assignedTo)
	d.WonInvoiceID = orEmpty(wonInvoiceID)
	return d, nil
}

const activityCols = `id, deal_id, type, title, description, metadata,
	scheduled_at, completed_at, is_completed, created_by, created_at`

func scanActivity(s scannable) (activity.Activity, error) {
	var a activity.Activity
	err := s.Scan(&a.ID, &a.DealID, &a.Type, &a.Title, &a.Description,
		&a.Metadata, &a.ScheduledAt, &a.CompletedAt, &a.IsCompleted,
		&a.CreatedBy, &a.CreatedAt)
	return a, err
}
