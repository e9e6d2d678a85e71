package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dealdesk"

// Metrics holds all DealDesk metric instruments.
type Metrics struct {
	DealsCreated   metric.Int64Counter
	DealsMoved     metric.Int64Counter
	DealsWon       metric.Int64Counter
	DealsLost      metric.Int64Counter
	DealsConverted metric.Int64Counter
	MoveDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DealsCreated, err = meter.Int64Counter("dealdesk.deals.created",
		metric.WithDescription("Number of deals created"))
	if err != nil {
		return nil, err
	}

	m.DealsMoved, err = meter.Int64Counter("dealdesk.deals.moved",
		metric.WithDescription("Number of deal moves across the board"))
	if err != nil {
		return nil, err
	}

	m.DealsWon, err = meter.Int64Counter("dealdesk.deals.won",
		metric.WithDescription("Number of deals marked won"))
	if err != nil {
		return nil, err
	}

	m.DealsLost, err = meter.Int64Counter("dealdesk.deals.lost",
		metric.WithDescription("Number of deals marked lost"))
	if err != nil {
		return nil, err
	}

	m.DealsConverted, err = meter.Int64Counter("dealdesk.deals.converted",
		metric.WithDescription("Number of deals converted to invoice drafts"))
	if err != nil {
		return nil, err
	}

	m.MoveDuration, err = meter.Float64Histogram("dealdesk.move.duration_seconds",
		metric.WithDescription("Deal move transaction duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
