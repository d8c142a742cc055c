package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	sink, err := NewSink(cfg)
	require.NoError(t, err)
	return sink
}

func TestRecordAndReadRange_RoundTrips(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	err := sink.RecordRoutingRecommendation(ctx, "hash1", domain.RoutingResult{
		Decision: domain.Escalate, Agent: "mid-general", Confidence: 0.7, Reason: "test",
	}, map[string]any{"decision": "escalate"})
	require.NoError(t, err)

	now := time.Now().UTC()
	recs, err := sink.ReadRange(RecordRoutingRecommendation, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "hash1", recs[0]["request_hash"])
}

func TestCleanup_RemovesFilesOlderThanRetention(t *testing.T) {
	sink := newTestSink(t)
	sink.retentionDays = 1

	old := time.Now().UTC().AddDate(0, 0, -5)
	sink.now = func() time.Time { return old }
	require.NoError(t, sink.RecordAgentEvent(context.Background(), "agent_start", nil))

	sink.now = time.Now
	require.NoError(t, sink.RecordAgentEvent(context.Background(), "agent_start", nil))

	require.NoError(t, sink.Cleanup())

	events, err := sink.ReadRange(RecordAgentEvent, old.AddDate(0, 0, -1), time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestComplianceAnalyzer_ClassifiesFollowedIgnoredAndNoDirective(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.RecordRoutingRecommendation(ctx, "followed-hash", domain.RoutingResult{Decision: domain.Escalate, Agent: "mid-general"}, map[string]any{"decision": "escalate"}))
	require.NoError(t, sink.RecordRequestTracking(ctx, "followed-hash", "followed", "mid-general"))

	require.NoError(t, sink.RecordRoutingRecommendation(ctx, "ignored-hash", domain.RoutingResult{Decision: domain.Escalate, Agent: "strong-general"}, map[string]any{"decision": "escalate"}))
	require.NoError(t, sink.RecordRequestTracking(ctx, "ignored-hash", "ignored", "none"))

	require.NoError(t, sink.RecordRoutingRecommendation(ctx, "direct-hash", domain.RoutingResult{Decision: domain.Direct, Agent: "cheap-general"}, map[string]any{"decision": "direct"}))

	analyzer := NewComplianceAnalyzer(sink)
	now := time.Now().UTC()
	report, err := analyzer.Analyze(now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRecommendations)
	assert.Equal(t, 1, report.Followed)
	assert.Equal(t, 1, report.Ignored)
	assert.Equal(t, 1, report.NoDirective)
	require.Len(t, report.IgnoredExamples, 1)
	assert.InDelta(t, 100.0/3.0, report.ComplianceRate, 0.01)
}

func TestRecordOrchestration_SatisfiesMetricsRecorderInterface(t *testing.T) {
	sink := newTestSink(t)
	err := sink.RecordOrchestration(context.Background(), domain.ComplexityAnalysis{Level: domain.ComplexitySimple, Recommendation: domain.ModeSingleStage}, domain.ModeSingleStage)
	require.NoError(t, err)
}
