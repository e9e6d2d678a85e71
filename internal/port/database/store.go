// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/soladex/dealdesk/internal/domain/activity"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// Store is the port interface for all persistence operations. Mutations that
// touch deal positions (create, move, delete, stage redirect) are atomic: the
// implementation either commits the full position shuffle together with its
// system activity entry, or rolls everything back.
type Store interface {
	// Pipelines
	ListPipelines(ctx context.Context) ([]pipeline.Pipeline, error)
	GetPipeline(ctx context.Context, id string) (*pipeline.Pipeline, error)
	CreatePipeline(ctx context.Context, req pipeline.CreateRequest) (*pipeline.Pipeline, error)
	UpdatePipeline(ctx context.Context, id string, req pipeline.UpdateRequest) (*pipeline.Pipeline, error)
	DeletePipeline(ctx context.Context, id string) error
	ReorderPipelines(ctx context.Context, ids []string) error

	// Stages
	GetStage(ctx context.Context, id string) (*pipeline.Stage, error)
	ListStages(ctx context.Context, pipelineID string) ([]pipeline.Stage, error)
	ListAllStages(ctx context.Context) ([]pipeline.Stage, error)
	CreateStage(ctx context.Context, req pipeline.CreateStageRequest) (*pipeline.Stage, error)
	UpdateStage(ctx context.Context, id string, req pipeline.UpdateStageRequest) (*pipeline.Stage, error)
	DeleteStage(ctx context.Context, id, moveDealsTo string) error
	ReorderStages(ctx context.Context, pipelineID string, ids []string) error

	// Deals
	GetDeal(ctx context.Context, id string) (*deal.Deal, error)
	ListDeals(ctx context.Context, pipelineID string) ([]deal.Deal, error)
	ListDealsByPipeline(ctx context.Context, pipelineID string, f deal.Filter) ([]deal.Deal, error)
	ListDealsForClient(ctx context.Context, clientID string) ([]deal.Deal, error)
	CreateDeal(ctx context.Context, req deal.CreateRequest, actor string) (*deal.Deal, error)
	UpdateDeal(ctx context.Context, id string, req deal.UpdateRequest) (*deal.Deal, error)
	MoveDeal(ctx context.Context, id, stageID string, position int, actor string) (*deal.Deal, error)
	UpdateDealStatus(ctx context.Context, id string, status deal.Status, lostReason, actor string) (*deal.Deal, error)
	DeleteDeal(ctx context.Context, id string) error
	LinkDealInvoice(ctx context.Context, id, invoiceID, invoiceNumber, actor string) error

	// Activities
	GetActivity(ctx context.Context, id string) (*activity.Activity, error)
	ListDealActivities(ctx context.Context, dealID string) ([]activity.Activity, error)
	ListScheduledActivities(ctx context.Context, actorID string, daysAhead, limit int) ([]activity.Activity, error)
	CreateActivity(ctx context.Context, req activity.CreateRequest, actor string) (*activity.Activity, error)
	UpdateActivity(ctx context.Context, id string, req activity.UpdateRequest) (*activity.Activity, error)
	CompleteActivity(ctx context.Context, id string) (*activity.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
}
