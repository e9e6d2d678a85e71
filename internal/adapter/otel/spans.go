package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dealdesk"

// StartMoveSpan starts a span for a deal move.
func StartMoveSpan(ctx context.Context, dealID, stageID string, position int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "deal.move",
		trace.WithAttributes(
			attribute.String("deal.id", dealID),
			attribute.String("stage.id", stageID),
			attribute.Int("deal.position", position),
		),
	)
}

// StartConversionSpan starts a span for a deal-to-invoice conversion.
func StartConversionSpan(ctx context.Context, dealID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "deal.convert",
		trace.WithAttributes(
			attribute.String("deal.id", dealID),
		),
	)
}
