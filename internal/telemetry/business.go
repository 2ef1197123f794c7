package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer records spans for domain operations: discovery runs, persistence and
// notifications.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a tracer bound to the global provider
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// NewBusinessTracerWith creates a tracer from an explicit provider
func NewBusinessTracerWith(tp trace.TracerProvider) *BusinessTracer {
	return &BusinessTracer{tracer: tp.Tracer(BusinessTracerName)}
}

// DiscoveryMetrics summarizes one discovery run
type DiscoveryMetrics struct {
	ClusterCount    int
	CandidateCount  int
	PersistedCount  int
	DuplicateCount  int
	TopCandidateKey string
}

// TraceDiscovery starts a span around a discovery run over a batch of signals
func (bt *BusinessTracer) TraceDiscovery(ctx context.Context, trigger string, signalCount int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "opportunity_discovery",
		trace.WithAttributes(
			attribute.String("discovery.trigger", trigger),
			attribute.Int("discovery.signal_count", signalCount),
		),
	)
}

// RecordDiscoveryResult adds run totals to the span
func (bt *BusinessTracer) RecordDiscoveryResult(span trace.Span, metrics DiscoveryMetrics) {
	span.SetAttributes(
		attribute.Int("discovery.cluster_count", metrics.ClusterCount),
		attribute.Int("discovery.candidate_count", metrics.CandidateCount),
		attribute.Int("discovery.persisted_count", metrics.PersistedCount),
		attribute.Int("discovery.duplicate_count", metrics.DuplicateCount),
	)
	if metrics.TopCandidateKey != "" {
		span.SetAttributes(attribute.String("discovery.top_candidate", metrics.TopCandidateKey))
	}
}

// TraceNotification starts a span for an outgoing notification
func (bt *BusinessTracer) TraceNotification(ctx context.Context, channel string, opportunityID string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "opportunity_notification",
		trace.WithAttributes(
			attribute.String("notification.channel", channel),
			attribute.String("opportunity.id", opportunityID),
		),
	)
}

// RecordError marks the span as failed
func RecordError(span trace.Span, err error, description string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}
