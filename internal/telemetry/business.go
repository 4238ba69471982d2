package telemetry

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// InvocationTracer wraps prediction invocations in Sentry spans
type InvocationTracer struct{}

// NewInvocationTracer creates a new instance of InvocationTracer.
func NewInvocationTracer() *InvocationTracer {
	return &InvocationTracer{}
}

// TracePrediction starts a span for one prediction invocation.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - kind: The prediction kind, "cluster" or "forecast".
//   - ranchID: The ranch being processed.
//   - animalID: The focal animal.
//
// Returns:
//   - A context carrying the new span.
//   - The created Sentry span.
func (it *InvocationTracer) TracePrediction(ctx context.Context, kind, ranchID, animalID string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, opPredictionPrefix+kind)
	span.SetTag("prediction_kind", kind)
	span.SetTag("ranch_id", ranchID)
	span.SetTag("animal_id", animalID)
	return span.Context(), span
}

// TraceRanchRefresh starts a span covering a whole-ranch clustering pass.
func (it *InvocationTracer) TraceRanchRefresh(ctx context.Context, ranchID string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, opRanchRefresh)
	span.SetTag("ranch_id", ranchID)
	return span.Context(), span
}

// RecordOutcome adds the result of an invocation to its span.
//
// Parameters:
//   - span: The Sentry span to update.
//   - outcome: The invocation result summary.
//   - err: Any error that ended the invocation.
func (it *InvocationTracer) RecordOutcome(span *sentry.Span, outcome PredictionOutcome, err error) {
	span.SetTag("label", outcome.Label)
	span.SetTag("severity", outcome.Severity)
	span.SetData("confidence", outcome.Confidence)
	if outcome.Reason != "" {
		span.SetTag("degraded_reason", outcome.Reason)
	}
	if outcome.CohortSize > 0 {
		span.SetData("cohort_size", outcome.CohortSize)
	}
	if outcome.Silhouette != nil {
		span.SetData("silhouette", *outcome.Silhouette)
	}
	if err != nil {
		span.SetTag("error", err.Error())
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
}

// PredictionOutcome is the telemetry summary of one invocation
type PredictionOutcome struct {
	Label      string
	Severity   string
	Confidence float64
	Reason     string
	CohortSize int
	Silhouette *float64
}
