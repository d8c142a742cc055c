package orchestration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

func TestClassify_SimpleWithExplicitPath(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	a := c.Classify("fix typo in README.md")
	assert.Equal(t, domain.ComplexitySimple, a.Level)
	assert.Equal(t, domain.ModeSingleStage, a.Recommendation)
}

func TestClassify_ComplexOnDesignVerb(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	a := c.Classify("design a new caching architecture")
	assert.Equal(t, domain.ComplexityComplex, a.Level)
	assert.Equal(t, domain.ModeMultiStage, a.Recommendation)
}

func TestClassify_ComplexOnManyObjectives(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	a := c.Classify("do this; then that; then another thing; then a fourth")
	assert.Equal(t, domain.ComplexityComplex, a.Level)
}

func TestClassify_ModerateDefault(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	a := c.Classify("look into the caching behavior sometime")
	assert.Equal(t, domain.ComplexityModerate, a.Level)
	assert.Equal(t, domain.ModeSingleStageMonitored, a.Recommendation)
}

type stubRouter struct {
	lastRequest string
}

func (s *stubRouter) Route(_ context.Context, request string) (domain.RoutingResult, error) {
	s.lastRequest = request
	return domain.RoutingResult{Decision: domain.Direct, Agent: "mid-general", Confidence: 0.8}, nil
}

type stubMetrics struct{ calls int }

func (s *stubMetrics) RecordOrchestration(_ context.Context, _ domain.ComplexityAnalysis, _ domain.OrchestrationMode) error {
	s.calls++
	return nil
}

func TestOrchestrate_SingleStageForSimpleRequest(t *testing.T) {
	router := &stubRouter{}
	metrics := &stubMetrics{}
	o := NewOrchestrator(NewClassifier(DefaultClassifierConfig()), router, metrics)

	outcome, err := o.Orchestrate(context.Background(), "fix typo in README.md")
	require.NoError(t, err)
	assert.Equal(t, "single_stage", outcome.Strategy)
	assert.Len(t, outcome.Stages, 1)
	assert.Equal(t, 1, metrics.calls)
}

func TestOrchestrate_MultiStageAppendsClarificationMarker(t *testing.T) {
	router := &stubRouter{}
	o := NewOrchestrator(NewClassifier(DefaultClassifierConfig()), router, nil)

	outcome, err := o.Orchestrate(context.Background(), "which design should I use for the entire architecture?")
	require.NoError(t, err)
	assert.Equal(t, "multi_stage", outcome.Strategy)
	assert.Contains(t, router.lastRequest, "[REQUIRES CLARIFICATION]")
}

func TestOrchestrate_EmptyRequestIsNormalized(t *testing.T) {
	o := NewOrchestrator(NewClassifier(DefaultClassifierConfig()), &stubRouter{}, nil)
	outcome, err := o.Orchestrate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "empty_request", outcome.Strategy)
	assert.Equal(t, "empty_request", outcome.Error)
}

func TestOrchestrate_ForcedModeOverridesClassifier(t *testing.T) {
	router := &stubRouter{}
	o := NewOrchestrator(NewClassifier(DefaultClassifierConfig()), router, nil).WithForcedMode(domain.ModeMultiStage)
	outcome, err := o.Orchestrate(context.Background(), "fix typo in README.md")
	require.NoError(t, err)
	assert.Equal(t, "multi_stage", outcome.Strategy)
}
