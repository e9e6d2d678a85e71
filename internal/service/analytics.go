package service

import (
	"context"

	"github.com/soladex/dealdesk/internal/domain/analytics"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
	"github.com/soladex/dealdesk/internal/port/database"
)

// AnalyticsService computes statistics, forecast and conversion rates from
// store snapshots. The math lives in domain/analytics; this layer only reads
// the right scope.
type AnalyticsService struct {
	store database.Store
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(store database.Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Statistics returns an aggregate snapshot. An empty pipelineID covers all
// pipelines.
func (s *AnalyticsService) Statistics(ctx context.Context, pipelineID string) (*analytics.Statistics, error) {
	stages, deals, err := s.snapshot(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	stats := analytics.Compute(stages, deals)
	return &stats, nil
}

// Forecast projects monthly revenue from open deals, weighted by their
// current stage's win probability.
func (s *AnalyticsService) Forecast(ctx context.Context, pipelineID string) ([]analytics.ForecastMonth, error) {
	stages, deals, err := s.snapshot(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	probByStage := make(map[string]int, len(stages))
	for _, st := range stages {
		probByStage[st.ID] = st.WinProbability
	}
	return analytics.Forecast(deals, probByStage), nil
}

// Conversion computes the funnel rates for one pipeline.
func (s *AnalyticsService) Conversion(ctx context.Context, pipelineID string) ([]analytics.StageConversion, error) {
	p, err := s.store.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	deals, err := s.store.ListDealsByPipeline(ctx, pipelineID, deal.Filter{})
	if err != nil {
		return nil, err
	}
	return analytics.ConversionRates(p.Stages, deals), nil
}

// snapshot loads the stage and deal scope for a statistics or forecast
// query. A pipeline that does not exist surfaces as ErrNotFound.
func (s *AnalyticsService) snapshot(ctx context.Context, pipelineID string) ([]pipeline.Stage, []deal.Deal, error) {
	var (
		stages []pipeline.Stage
		err    error
	)
	if pipelineID == "" {
		stages, err = s.store.ListAllStages(ctx)
	} else {
		if _, err := s.store.GetPipeline(ctx, pipelineID); err != nil {
			return nil, nil, err
		}
		stages, err = s.store.ListStages(ctx, pipelineID)
	}
	if err != nil {
		return nil, nil, err
	}

	deals, err := s.store.ListDeals(ctx, pipelineID)
	if err != nil {
		return nil, nil, err
	}
	return stages, deals, nil
}
