package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// otelRecorder mirrors the JSONL system of record as OpenTelemetry
// counters, cached per instrument the way the teacher's
// telemetry.MetricInstruments does, so dashboards can watch the control
// plane live instead of tailing daily files.
type otelRecorder struct {
	meter               metric.Meter
	agentEvents         metric.Int64Counter
	routingRecs         metric.Int64Counter
	complianceStatuses  metric.Int64Counter
	orchestrations      metric.Int64Counter
}

func newOtelRecorder(cfg *core.Config) (*otelRecorder, error) {
	if !cfg.Telemetry.Enabled {
		return nil, nil
	}

	provider := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(provider)
	meter := provider.Meter(cfg.Telemetry.ServiceName)

	agentEvents, err := meter.Int64Counter("router.agent.events")
	if err != nil {
		return nil, core.NewRouterError("metrics.newOtelRecorder", "telemetry", err)
	}
	routingRecs, err := meter.Int64Counter("router.routing.recommendations")
	if err != nil {
		return nil, core.NewRouterError("metrics.newOtelRecorder", "telemetry", err)
	}
	complianceStatuses, err := meter.Int64Counter("router.routing.compliance")
	if err != nil {
		return nil, core.NewRouterError("metrics.newOtelRecorder", "telemetry", err)
	}
	orchestrations, err := meter.Int64Counter("router.orchestration.decisions")
	if err != nil {
		return nil, core.NewRouterError("metrics.newOtelRecorder", "telemetry", err)
	}

	return &otelRecorder{
		meter:              meter,
		agentEvents:        agentEvents,
		routingRecs:        routingRecs,
		complianceStatuses: complianceStatuses,
		orchestrations:     orchestrations,
	}, nil
}

func (o *otelRecorder) recordAgentEvent(ctx context.Context, event string) {
	o.agentEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

func (o *otelRecorder) recordRoutingRecommendation(ctx context.Context, decision, agent string) {
	o.routingRecs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("agent", agent),
	))
}

func (o *otelRecorder) recordComplianceStatus(ctx context.Context, status string) {
	o.complianceStatuses.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (o *otelRecorder) recordOrchestration(ctx context.Context, level, mode string) {
	o.orchestrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("level", level),
		attribute.String("mode", mode),
	))
}
