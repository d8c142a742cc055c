package work

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

func newTestCoordinator(t *testing.T, wip int) *Coordinator {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()), core.WithWIPLimit(wip))
	require.NoError(t, err)
	return New(cfg)
}

func TestAdd_StartsUpToWIPLimit(t *testing.T) {
	c := newTestCoordinator(t, 2)

	started, err := c.Add(domain.WorkItem{ID: "a", Priority: 5})
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, domain.StatusActive, started[0].Status)

	started, err = c.Add(domain.WorkItem{ID: "b", Priority: 3})
	require.NoError(t, err)
	require.Len(t, started, 1)

	started, err = c.Add(domain.WorkItem{ID: "c", Priority: 9})
	require.NoError(t, err)
	assert.Len(t, started, 0) // WIP already at 2
}

func TestSchedule_DependentStartsWhenDependencyCompletes(t *testing.T) {
	// {A:p5, B:p8 deps [A], C:p5}, W=2, added in that order: A starts on
	// its own Add, B stays queued despite its higher priority because its
	// dep A is not complete, and C takes the second slot. Completing A
	// frees a slot and makes B eligible, so B starts.
	c := newTestCoordinator(t, 2)

	_, err := c.Add(domain.WorkItem{ID: "A", Priority: 5})
	require.NoError(t, err)
	_, err = c.Add(domain.WorkItem{ID: "B", Priority: 8, Dependencies: []string{"A"}})
	require.NoError(t, err)
	started, err := c.Add(domain.WorkItem{ID: "C", Priority: 5})
	require.NoError(t, err)

	items, err := c.StatusSummary()
	require.NoError(t, err)
	active := map[string]bool{}
	for _, it := range items {
		if it.Status == domain.StatusActive {
			active[it.ID] = true
		}
	}
	assert.True(t, active["A"])
	assert.True(t, active["C"])
	assert.False(t, active["B"])
	_ = started

	started, err = c.Complete("A")
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, "B", started[0].ID)
}

func TestSchedule_CyclicDependenciesYieldNoDeadlock(t *testing.T) {
	c := newTestCoordinator(t, 2)

	_, err := c.Add(domain.WorkItem{ID: "X", Priority: 5, Dependencies: []string{"Y"}})
	require.NoError(t, err)
	started, err := c.Add(domain.WorkItem{ID: "Y", Priority: 5, Dependencies: []string{"X"}})
	require.NoError(t, err)
	assert.Len(t, started, 0)

	items, err := c.StatusSummary()
	require.NoError(t, err)
	for _, it := range items {
		assert.Equal(t, domain.StatusQueued, it.Status)
	}
}

func TestFail_IsTerminalAndDoesNotSatisfyDependents(t *testing.T) {
	c := newTestCoordinator(t, 1)

	_, err := c.Add(domain.WorkItem{ID: "A", Priority: 5})
	require.NoError(t, err)
	_, err = c.Add(domain.WorkItem{ID: "B", Priority: 5, Dependencies: []string{"A"}})
	require.NoError(t, err)

	started, err := c.Fail("A", "boom")
	require.NoError(t, err)
	assert.Len(t, started, 0)

	items, err := c.StatusSummary()
	require.NoError(t, err)
	for _, it := range items {
		if it.ID == "B" {
			assert.Equal(t, domain.StatusQueued, it.Status)
		}
		if it.ID == "A" {
			assert.Equal(t, domain.StatusFailed, it.Status)
			assert.Equal(t, "boom", it.Error)
		}
	}
}

func TestCompleteUnknownID_ReturnsNotFound(t *testing.T) {
	c := newTestCoordinator(t, 1)
	_, err := c.Complete("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrWorkNotFound)
}
