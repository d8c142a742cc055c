package routingcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	return New(NewKeywordMatcher(), cfg)
}

func TestRoute_EmptyRequestIsInvalid(t *testing.T) {
	c := newTestCore(t)
	_, err := c.Route(context.Background(), "   \t\n ")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestRoute_OverLongRequestIsInvalid(t *testing.T) {
	c := newTestCore(t)
	huge := make([]byte, 10001)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := c.Route(context.Background(), string(huge))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestRoute_CheapPathFix(t *testing.T) {
	c := newTestCore(t)
	result, err := c.Route(context.Background(), "Fix typo in README.md")
	require.NoError(t, err)
	assert.Equal(t, domain.Direct, result.Decision)
	assert.Equal(t, "cheap-general", result.Agent)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)
}

func TestRoute_EscalatesOnMultipleObjectives(t *testing.T) {
	c := newTestCore(t)
	// "show" is a mechanical (non-mutating) verb so rule 3 does not fire
	// first; this isolates rule 5's >= 2 separator count.
	result, err := c.Route(context.Background(), "show status and show logs and show errors")
	require.NoError(t, err)
	assert.Equal(t, domain.Escalate, result.Decision)
	assert.Contains(t, result.Reason, "multiple objectives")
}

func TestRoute_MutatingVerbRuleTakesPrecedenceOverMultiObjective(t *testing.T) {
	// Rules are checked in order (first match wins): a mutating verb
	// without an explicit file token (rule 3) escalates before the
	// multi-objective separator count (rule 5) is ever evaluated, even
	// when the request also has >= 2 separators.
	c := newTestCore(t)
	result, err := c.Route(context.Background(), "Fix bug and add tests and update docs")
	require.NoError(t, err)
	assert.Equal(t, domain.Escalate, result.Decision)
	assert.Contains(t, result.Reason, "mutating verb")
}

func TestRoute_EscalatesOnComplexitySignal(t *testing.T) {
	c := newTestCore(t)
	result, err := c.Route(context.Background(), "What's the best approach for this design?")
	require.NoError(t, err)
	assert.Equal(t, domain.Escalate, result.Decision)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestRoute_EscalatesOnDestructiveBulk(t *testing.T) {
	c := newTestCore(t)
	result, err := c.Route(context.Background(), "delete all temp files")
	require.NoError(t, err)
	assert.Equal(t, domain.Escalate, result.Decision)
}

func TestRoute_MutatingVerbWithoutTargetEscalates(t *testing.T) {
	c := newTestCore(t)
	result, err := c.Route(context.Background(), "update the config")
	require.NoError(t, err)
	assert.Equal(t, domain.Escalate, result.Decision)
}

func TestRoute_NoMatchEscalates(t *testing.T) {
	c := newTestCore(t)
	result, err := c.Route(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, domain.Escalate, result.Decision)
	assert.Contains(t, result.Reason, "no agent match")
}

func TestExplicitFileMentioned(t *testing.T) {
	assert.True(t, explicitFileMentioned("see main.go"))
	assert.True(t, explicitFileMentioned("check ./src/app"))
	assert.True(t, explicitFileMentioned("look at pkg/routingcore"))
	assert.False(t, explicitFileMentioned("just think about it"))
}
