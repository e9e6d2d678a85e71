// Package analytics computes derived pipeline metrics: aggregate statistics,
// weighted monthly forecast and funnel conversion rates. All functions are
// pure; callers feed them snapshots read from the store.
package analytics

import (
	"math"
	"sort"

	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// StageBreakdown aggregates the deals currently sitting in one stage.
type StageBreakdown struct {
	StageID string  `json:"stage_id"`
	Name    string  `json:"name"`
	Color   string  `json:"color,omitempty"`
	Count   int     `json:"count"`
	Value   float64 `json:"value"`
}

// Statistics is an aggregate snapshot over a deal scope.
type Statistics struct {
	TotalDeals   int              `json:"total_deals"`
	OpenDeals    int              `json:"open_deals"`
	WonDeals     int              `json:"won_deals"`
	LostDeals    int              `json:"lost_deals"`
	TotalValue   float64          `json:"total_value"`
	WonValue     float64          `json:"won_value"`
	AvgDealSize  float64          `json:"avg_deal_size"`
	DealsByStage []StageBreakdown `json:"deals_by_stage"`
}

// ForecastMonth is the projected revenue for one calendar month.
type ForecastMonth struct {
	Month         string  `json:"month"` // "2026-08"
	TotalValue    float64 `json:"total_value"`
	WeightedValue float64 `json:"weighted_value"`
	DealCount     int     `json:"deal_count"`
}

// StageConversion is the funnel rate for one stage relative to the first.
type StageConversion struct {
	StageID        string `json:"stage_id"`
	Name           string `json:"name"`
	Position       int    `json:"position"`
	Reached        int    `json:"reached"`
	ConversionRate int    `json:"conversion_rate"`
}

// Compute builds a statistics snapshot. stages must be ordered by position;
// the stage breakdown preserves that order. Empty input yields a zero-valued
// snapshot, never an error.
func Compute(stages []pipeline.Stage, deals []deal.Deal) Statistics {
	stats := Statistics{DealsByStage: make([]StageBreakdown, 0, len(stages))}

	byStage := make(map[string]*StageBreakdown, len(stages))
	for _, st := range stages {
		stats.DealsByStage = append(stats.DealsByStage, StageBreakdown{
			StageID: st.ID,
			Name:    st.Name,
			Color:   st.Color,
		})
		byStage[st.ID] = &stats.DealsByStage[len(stats.DealsByStage)-1]
	}

	for _, d := range deals {
		stats.TotalDeals++
		stats.TotalValue += d.Value
		switch d.Status {
		case deal.StatusOpen:
			stats.OpenDeals++
		case deal.StatusWon:
			stats.WonDeals++
			stats.WonValue += d.Value
		case deal.StatusLost:
			stats.LostDeals++
		}
		if b, ok := byStage[d.StageID]; ok {
			b.Count++
			b.Value += d.Value
		}
	}

	if stats.TotalDeals > 0 {
		stats.AvgDealSize = stats.TotalValue / float64(stats.TotalDeals)
	}
	return stats
}

// Forecast projects monthly revenue from open deals that carry an expected
// close date. probByStage maps stage id to win probability (0-100); the
// weighting uses each deal's current stage. Months without open deals are
// omitted; output is sorted ascending by month key.
func Forecast(deals []deal.Deal, probByStage map[string]int) []ForecastMonth {
	buckets := make(map[string]*ForecastMonth)

	for _, d := range deals {
		if d.Status != deal.StatusOpen || d.ExpectedCloseDate == nil {
			continue
		}
		key := d.ExpectedCloseDate.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &ForecastMonth{Month: key}
			buckets[key] = b
		}
		b.TotalValue += d.Value
		b.WeightedValue += d.Value * float64(probByStage[d.StageID]) / 100
		b.DealCount++
	}

	months := make([]ForecastMonth, 0, len(buckets))
	for _, b := range buckets {
		months = append(months, *b)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// ConversionRates computes the funnel rate per active stage. stages must be
// the pipeline's full stage list ordered by position; inactive stages are
// skipped in the output but still anchor deal positions.
//
// A deal counts as having "reached" a stage when its current stage position
// is >= that stage's position. This infers funnel history from current
// placement only, so deals that regressed to an earlier stage are
// undercounted; true stage visit history is not tracked.
func ConversionRates(stages []pipeline.Stage, deals []deal.Deal) []StageConversion {
	posByStage := make(map[string]int, len(stages))
	for _, st := range stages {
		posByStage[st.ID] = st.Position
	}

	rates := make([]StageConversion, 0, len(stages))
	base := 0
	for _, st := range stages {
		if !st.IsActive {
			continue
		}
		reached := 0
		for _, d := range deals {
			if p, ok := posByStage[d.StageID]; ok && p >= st.Position {
				reached++
			}
		}
		if len(rates) == 0 {
			// Floor the funnel entry count at 1 so an empty pipeline
			// yields rate 0 instead of dividing by zero.
			base = reached
			if base < 1 {
				base = 1
			}
		}
		rates = append(rates, StageConversion{
			StageID:        st.ID,
			Name:           st.Name,
			Position:       st.Position,
			Reached:        reached,
			ConversionRate: int(math.Round(100 * float64(reached) / float64(base))),
		})
	}
	return rates
}
