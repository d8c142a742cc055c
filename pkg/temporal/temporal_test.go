package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

type stubQuota struct{ allow bool }

func (s stubQuota) CanUse(_ core.Tier) (bool, error) { return s.allow, nil }

func newTestScheduler(t *testing.T, q QuotaChecker) *Scheduler {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	s, err := New(cfg, q)
	require.NoError(t, err)
	return s
}

func TestClassifyTiming_DestructiveVerbForcesSync(t *testing.T) {
	assert.Equal(t, domain.TimingSync, ClassifyTiming("delete the staging database", Context{}))
}

func TestClassifyTiming_BatchOverridesForcesAsync(t *testing.T) {
	assert.Equal(t, domain.TimingAsync, ClassifyTiming("which approach should I take?", Context{BatchMode: true}))
}

func TestClassifyTiming_ApprovalOverrideForcesSync(t *testing.T) {
	assert.Equal(t, domain.TimingSync, ClassifyTiming("search for dead code overnight", Context{RequiresApproval: true}))
}

func TestAddWork_SyncItemGoesToSyncQueue(t *testing.T) {
	s := newTestScheduler(t, stubQuota{allow: true})
	item := domain.TimedWorkItem{WorkItem: domain.WorkItem{ID: "w1", Description: "help me decide which library to use", Status: domain.StatusQueued}}
	require.NoError(t, s.AddWork(item, Context{}))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.SyncQueue, 1)
	assert.Equal(t, "w1", snap.SyncQueue[0].ID)
	assert.Empty(t, snap.AsyncQueue)
}

func TestAddWork_AsyncItemGoesToAsyncQueue(t *testing.T) {
	s := newTestScheduler(t, stubQuota{allow: true})
	item := domain.TimedWorkItem{WorkItem: domain.WorkItem{ID: "w1", Description: "search for unused imports across the repo", Status: domain.StatusQueued}}
	require.NoError(t, s.AddWork(item, Context{}))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.AsyncQueue, 1)
	assert.Empty(t, snap.SyncQueue)
}

func TestScheduleOvernightWork_RespectsDependenciesAndQuota(t *testing.T) {
	s := newTestScheduler(t, stubQuota{allow: true})

	// B depends on A, which hasn't completed-overnight yet: B stays put,
	// A is eligible and promoted to scheduled_async.
	a := domain.TimedWorkItem{WorkItem: domain.WorkItem{ID: "a", Description: "analyze module boundaries", Priority: 5, Status: domain.StatusQueued}, EstimatedDurationMinutes: 30}
	b := domain.TimedWorkItem{WorkItem: domain.WorkItem{ID: "b", Description: "generate report on results", Dependencies: []string{"a"}, Priority: 8, Status: domain.StatusQueued}, EstimatedDurationMinutes: 30}
	require.NoError(t, s.AddWork(a, Context{}))
	require.NoError(t, s.AddWork(b, Context{}))

	scheduled, err := s.ScheduleOvernightWork()
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "a", scheduled[0].ID)
	assert.Equal(t, domain.StatusScheduled, scheduled[0].Status)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.AsyncQueue, 1)
	assert.Equal(t, "b", snap.AsyncQueue[0].ID)
}

func TestScheduleOvernightWork_QuotaExhaustedLeavesItemQueued(t *testing.T) {
	s := newTestScheduler(t, stubQuota{allow: false})
	a := domain.TimedWorkItem{WorkItem: domain.WorkItem{ID: "a", Description: "batch cleanup", Priority: 5, Status: domain.StatusQueued}, EstimatedDurationMinutes: 10}
	require.NoError(t, s.AddWork(a, Context{}))

	scheduled, err := s.ScheduleOvernightWork()
	require.NoError(t, err)
	assert.Empty(t, scheduled)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.AsyncQueue, 1)
}

func TestMarkCompleted_MovesItemToCompletedOvernight(t *testing.T) {
	s := newTestScheduler(t, stubQuota{allow: true})
	a := domain.TimedWorkItem{WorkItem: domain.WorkItem{ID: "a", Description: "index the codebase", Priority: 5, Status: domain.StatusQueued}, EstimatedDurationMinutes: 10}
	require.NoError(t, s.AddWork(a, Context{}))
	_, err := s.ScheduleOvernightWork()
	require.NoError(t, err)

	require.NoError(t, s.MarkCompleted("a", "done"))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.ScheduledAsync)
	require.Len(t, snap.CompletedOvernight, 1)
	assert.Equal(t, domain.StatusCompleted, snap.CompletedOvernight[0].Status)
}

func TestExecutor_CyclicDependenciesFailBothAsBlocked(t *testing.T) {
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()), core.WithOvernightConcurrency(2))
	require.NoError(t, err)
	exec := NewExecutor(cfg)

	items := []domain.TimedWorkItem{
		{WorkItem: domain.WorkItem{ID: "x", Description: "do x", Dependencies: []string{"y"}, Status: domain.StatusScheduled}},
		{WorkItem: domain.WorkItem{ID: "y", Description: "do y", Dependencies: []string{"x"}, Status: domain.StatusScheduled}},
	}

	agentExec := func(_ context.Context, item domain.TimedWorkItem, _ core.Tier) (string, error) {
		return "should not run: " + item.ID, nil
	}

	report, err := exec.Run(context.Background(), items, agentExec, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	for _, outcome := range report.Results {
		assert.Empty(t, outcome.Result)
		assert.Contains(t, outcome.Error, "Blocked by:")
	}
}

func TestExecutor_RunsDependencyChainInOrder(t *testing.T) {
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()), core.WithOvernightConcurrency(3))
	require.NoError(t, err)
	exec := NewExecutor(cfg)

	items := []domain.TimedWorkItem{
		{WorkItem: domain.WorkItem{ID: "first", Description: "prep", Status: domain.StatusScheduled}},
		{WorkItem: domain.WorkItem{ID: "second", Description: "build on prep", Dependencies: []string{"first"}, Status: domain.StatusScheduled}},
	}

	var order []string
	agentExec := func(_ context.Context, item domain.TimedWorkItem, _ core.Tier) (string, error) {
		order = append(order, item.ID)
		return "ok", nil
	}

	report, err := exec.Run(context.Background(), items, agentExec, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.Equal(t, []string{"first", "second"}, order)
	for _, outcome := range report.Results {
		assert.Empty(t, outcome.Error)
	}
}

func TestExecutor_TimesOutWithinOverallDeadline(t *testing.T) {
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()), core.WithOvernightConcurrency(1))
	require.NoError(t, err)
	cfg.Temporal.OvernightTimeout = 50 * time.Millisecond
	exec := NewExecutor(cfg)

	items := []domain.TimedWorkItem{
		{WorkItem: domain.WorkItem{ID: "slow", Description: "slow task", Status: domain.StatusScheduled}},
	}

	agentExec := func(ctx context.Context, item domain.TimedWorkItem, _ core.Tier) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "finished", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	done := make(chan struct{})
	go func() {
		_, _ = exec.Run(context.Background(), items, agentExec, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not respect overall timeout")
	}
}
