// Package metrics implements C8: MetricsSink and ComplianceAnalyzer. Every
// event is appended as one JSON line to a per-UTC-day file, the append-only
// system of record the compliance analyzer later joins against. When
// telemetry is enabled, an OpenTelemetry meter also counts agent events,
// routing recommendations, compliance statuses and orchestration decisions
// (see otel.go); solution metrics are not counted there, and no histograms
// are recorded.
package metrics

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

// RecordType tags each JSONL line with the schema the compliance
// analyzer and CLI reporting tools expect.
type RecordType string

const (
	RecordAgentEvent            RecordType = "agent_event"
	RecordSolutionMetric        RecordType = "solution_metric"
	RecordRoutingRecommendation RecordType = "routing_recommendation"
	RecordRequestTracking       RecordType = "request_tracking"
)

const metricsDirName = "metrics"

// Sink appends events to <state_dir>/metrics/<date>.jsonl, one file per
// UTC day, and prunes files older than RetentionDays.
type Sink struct {
	dir           string
	retentionDays int
	otel          *otelRecorder // nil when telemetry is disabled
	now           func() time.Time
}

func NewSink(cfg *core.Config) (*Sink, error) {
	dir := filepath.Join(cfg.StateDir, metricsDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, core.NewRouterError("metrics.NewSink", "io", err)
	}
	rec, err := newOtelRecorder(cfg)
	if err != nil {
		return nil, err
	}
	return &Sink{dir: dir, retentionDays: cfg.Metrics.RetentionDays, otel: rec, now: time.Now}, nil
}

func (s *Sink) pathFor(t time.Time) string {
	return filepath.Join(s.dir, t.UTC().Format("2006-01-02")+".jsonl")
}

// append writes one line, merging timestamp/record_type into fields.
func (s *Sink) append(recordType RecordType, fields map[string]any) error {
	now := s.now().UTC()
	line := map[string]any{"timestamp": now.Format(time.RFC3339), "record_type": string(recordType)}
	for k, v := range fields {
		line[k] = v
	}
	b, err := json.Marshal(line)
	if err != nil {
		return core.NewRouterError("metrics.Sink.append", "io", err)
	}
	b = append(b, '\n')

	f, err := os.OpenFile(s.pathFor(now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return core.NewRouterError("metrics.Sink.append", "io", err)
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return core.NewRouterError("metrics.Sink.append", "io", err)
	}
	return nil
}

// RecordAgentEvent logs a raw agent lifecycle event (start/stop, tool
// invocations), as forwarded by pkg/hook.
func (s *Sink) RecordAgentEvent(ctx context.Context, event string, fields map[string]any) error {
	merged := map[string]any{"event": event}
	for k, v := range fields {
		merged[k] = v
	}
	if s.otel != nil {
		s.otel.recordAgentEvent(ctx, event)
	}
	return s.append(RecordAgentEvent, merged)
}

// RecordRoutingRecommendation logs the recommendation RoutingCore or
// ProbabilisticRouter issued for a request, keyed by requestHash so
// ComplianceAnalyzer can later join it against a RecordRequestTracking line.
func (s *Sink) RecordRoutingRecommendation(ctx context.Context, requestHash string, result domain.RoutingResult, fullAnalysis map[string]any) error {
	if s.otel != nil {
		s.otel.recordRoutingRecommendation(ctx, string(result.Decision), result.Agent)
	}
	return s.append(RecordRoutingRecommendation, map[string]any{
		"request_hash": requestHash,
		"recommendation": map[string]any{
			"decision":   string(result.Decision),
			"agent":      result.Agent,
			"confidence": result.Confidence,
			"reason":     result.Reason,
		},
		"full_analysis": fullAnalysis,
	})
}

// RecordRequestTracking logs what actually happened for requestHash:
// which agent (if any) was invoked and whether that followed the
// recommendation. complianceStatus is one of followed/ignored/no_directive/unknown.
func (s *Sink) RecordRequestTracking(ctx context.Context, requestHash, complianceStatus, agentInvoked string) error {
	if s.otel != nil {
		s.otel.recordComplianceStatus(ctx, complianceStatus)
	}
	return s.append(RecordRequestTracking, map[string]any{
		"request_hash":      requestHash,
		"compliance_status": complianceStatus,
		"agent_invoked":     agentInvoked,
	})
}

// RecordOrchestration satisfies orchestration.MetricsRecorder: every
// Orchestrate() call logs its classification and chosen pipeline mode as
// a solution_metric line.
func (s *Sink) RecordOrchestration(ctx context.Context, analysis domain.ComplexityAnalysis, mode domain.OrchestrationMode) error {
	if s.otel != nil {
		s.otel.recordOrchestration(ctx, string(analysis.Level), string(mode))
	}
	return s.append(RecordSolutionMetric, map[string]any{
		"complexity": map[string]any{
			"level":      string(analysis.Level),
			"confidence": analysis.Confidence,
			"indicators": analysis.Indicators,
		},
		"mode": string(mode),
	})
}

// RecordSolutionMetric logs an arbitrary solution outcome (e.g. a --value
// score from the CLI), for callers outside the orchestrator pipeline.
func (s *Sink) RecordSolutionMetric(ctx context.Context, name string, value float64, fields map[string]any) error {
	merged := map[string]any{"name": name, "value": value}
	for k, v := range fields {
		merged[k] = v
	}
	return s.append(RecordSolutionMetric, merged)
}

// ReadRange returns every line of the given record type between
// start and end (inclusive), scanning one file per UTC day.
func (s *Sink) ReadRange(recordType RecordType, start, end time.Time) ([]map[string]any, error) {
	var out []map[string]any
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end); d = d.Add(24 * time.Hour) {
		path := s.pathFor(d)
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, core.NewRouterError("metrics.Sink.ReadRange", "io", err)
		}
		for _, line := range strings.Split(string(b), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			var rec map[string]any
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				continue // malformed line: skip rather than fail the whole scan
			}
			if rec["record_type"] == string(recordType) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

// Cleanup removes daily files older than RetentionDays.
func (s *Sink) Cleanup() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return core.NewRouterError("metrics.Sink.Cleanup", "io", err)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		date := strings.TrimSuffix(name, ".jsonl")
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		if t.Before(cutoff) {
			_ = os.Remove(filepath.Join(s.dir, name))
		}
	}
	return nil
}
