package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg, err := core.NewConfig(core.WithStateDir(t.TempDir()))
	require.NoError(t, err)
	return New(cfg)
}

func TestSaveAndLoadState_RoundTrips(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SaveState("refactor quota tracker", []string{"mid-general"}, "working on C2"))

	s, err := m.LoadState()
	require.NoError(t, err)
	assert.Equal(t, "refactor quota tracker", s.CurrentFocus)
	assert.Equal(t, []string{"mid-general"}, s.ActiveAgents)
}

func TestRecordSearch_DeduplicatesExactQuery(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.RecordSearch("TODO markers", "cheap-general", []string{"a.go"}))
	require.NoError(t, m.RecordSearch("TODO markers", "cheap-general", []string{"a.go", "b.go"}))

	recent, err := m.RecentSearches(24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 2, recent[0].ResultCount)
}

func TestRecordSearch_DistinctQueriesBothKept(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.RecordSearch("query one", "a", nil))
	require.NoError(t, m.RecordSearch("query two", "a", nil))

	recent, err := m.RecentSearches(24 * time.Hour)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestRecordDecision_PrunesEntriesOlderThanTTL(t *testing.T) {
	m := newTestManager(t)
	m.ttl = 1 * time.Hour

	past := time.Now().UTC().Add(-2 * time.Hour)
	m.now = func() time.Time { return past }
	require.NoError(t, m.RecordDecision("use flock", "cross-process safety", []string{"advisory lock"}))

	m.now = time.Now
	require.NoError(t, m.RecordDecision("use exclusive lock for quota writes", "avoid races", nil))

	recent, err := m.RecentDecisions(24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "use exclusive lock for quota writes", recent[0].Decision)
}
