package probabilistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	return NewRouter(cfg)
}

func TestRoute_MechanicalPattern(t *testing.T) {
	r := newTestRouter(t)
	d, err := r.Route("fix typo in comment")
	require.NoError(t, err)
	assert.Equal(t, string(core.TierCheap), d.RecommendedModel)
	assert.Equal(t, []string{string(core.TierMid), string(core.TierStrong)}, d.FallbackChain)
	assert.Contains(t, d.ValidationCriteria, "syntax_valid")
}

func TestRoute_ComplexReasoningHasNoFallback(t *testing.T) {
	r := newTestRouter(t)
	d, err := r.Route("prove this theorem formally")
	require.NoError(t, err)
	assert.Equal(t, string(core.TierStrong), d.RecommendedModel)
	assert.Empty(t, d.FallbackChain)
}

func TestRoute_TransformUsesLearnedSuccessRate(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 9; i++ {
		require.NoError(t, r.RecordOutcome(core.TierCheap, TaskTransform, true))
	}
	require.NoError(t, r.RecordOutcome(core.TierCheap, TaskTransform, false))

	d, err := r.Route("convert this yaml to json")
	require.NoError(t, err)
	assert.Equal(t, string(core.TierCheap), d.RecommendedModel)
	assert.Equal(t, domain.ConfidenceMedium, d.Confidence)
}

func TestShouldSkipTier_NeverSkipsStrongest(t *testing.T) {
	assert.False(t, ShouldSkipTier("fundamental misunderstanding", "strong"))
}

func TestShouldSkipTier_MechanicalIndicatorNeverSkips(t *testing.T) {
	assert.False(t, ShouldSkipTier("syntax error in file", "mid"))
}

func TestShouldSkipTier_ReasoningFailureSkips(t *testing.T) {
	assert.True(t, ShouldSkipTier("Assertion error: incorrect logic in algorithm", "mid"))
}

func TestValidator_ResultsFound(t *testing.T) {
	v := NewValidator()
	verdict := v.Validate(context.Background(), "results_found", Result{Output: []interface{}{}})
	assert.False(t, verdict.Pass)

	verdict = v.Validate(context.Background(), "results_found", Result{Output: []interface{}{"a"}})
	assert.True(t, verdict.Pass)
}

func TestValidator_OutputValidDetectsErrorMarkers(t *testing.T) {
	v := NewValidator()
	verdict := v.Validate(context.Background(), "output_valid", Result{Output: "Traceback: boom"})
	assert.False(t, verdict.Pass)
}

func TestValidator_NoLogicChangePassesWithoutTestCommand(t *testing.T) {
	v := NewValidator()
	verdict := v.Validate(context.Background(), "no_logic_change", Result{})
	assert.True(t, verdict.Pass)
}

func TestExecutor_EscalatesOnMechanicalFailureThenPasses(t *testing.T) {
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	router := NewRouter(cfg)
	validator := NewValidator()
	exec := NewExecutor(router, validator)

	calls := 0
	outcome, _, err := exec.Execute(context.Background(), "fix typo in comment", func(ctx context.Context, tier core.Tier, request string) (Result, error) {
		calls++
		if tier == core.TierCheap {
			return Result{TestCommand: "false"}, nil
		}
		return Result{Output: "ok"}, nil
	})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, []core.Tier{core.TierCheap, core.TierMid}, outcome.TiersAttempted)
	assert.Equal(t, 2, calls)
}

func TestExecutor_SkipsTierOnReasoningFailure(t *testing.T) {
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	router := NewRouter(cfg)
	validator := NewValidator()
	exec := NewExecutor(router, validator)

	outcome, _, err := exec.Execute(context.Background(), "fix typo in comment", func(ctx context.Context, tier core.Tier, request string) (Result, error) {
		if tier == core.TierCheap {
			return Result{TestCommand: "echo 'Assertion error: incorrect logic in algorithm' >&2; exit 1"}, nil
		}
		return Result{Output: "ok"}, nil
	})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, []core.Tier{core.TierCheap, core.TierStrong}, outcome.TiersAttempted)
}

func TestExecutor_ExecErrorIsTreatedAsFailure(t *testing.T) {
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	router := NewRouter(cfg)
	validator := NewValidator()
	exec := NewExecutor(router, validator)

	outcome, _, err := exec.Execute(context.Background(), "fix typo", func(ctx context.Context, tier core.Tier, request string) (Result, error) {
		if tier == core.TierCheap {
			return Result{}, errors.New("agent crashed")
		}
		return Result{Output: "ok"}, nil
	})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
}
