// Package session implements C10: SessionStateManager. It persists
// current focus, the active agent set, search records, and decision
// records across restarts, each through statefile so every write is
// safe across processes; every write prunes entries older than TTL.
package session

import (
	"path/filepath"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/statefile"
)

const (
	sessionStateFileName = "session-state.json"
	searchHistoryFileName = "search-history.json"
	decisionsFileName     = "decisions.json"
)

// State is the current-session document.
type State struct {
	CurrentFocus   string    `json:"current_focus"`
	ActiveAgents   []string  `json:"active_agents"`
	LastUpdated    time.Time `json:"last_updated"`
	ContextSummary string    `json:"context_summary"`
}

// SearchRecord is one recorded search.
type SearchRecord struct {
	Query       string    `json:"query"`
	Timestamp   time.Time `json:"timestamp"`
	Agent       string    `json:"agent"`
	ResultCount int       `json:"result_count"`
	FilesFound  []string  `json:"files_found"`
}

type searchHistory struct {
	Searches []SearchRecord `json:"searches"`
}

// DecisionRecord is one recorded decision.
type DecisionRecord struct {
	Decision     string    `json:"decision"`
	Rationale    string    `json:"rationale"`
	Alternatives []string  `json:"alternatives"`
	Timestamp    time.Time `json:"timestamp"`
}

type decisionLog struct {
	Decisions []DecisionRecord `json:"decisions"`
}

// Manager is SessionStateManager.
type Manager struct {
	stateDir    string
	lockTimeout time.Duration
	lockPoll    time.Duration
	ttl         time.Duration
	now         func() time.Time
}

func New(cfg *core.Config) *Manager {
	return &Manager{
		stateDir:    cfg.StateDir,
		lockTimeout: cfg.Lock.Timeout,
		lockPoll:    cfg.Lock.PollInterval,
		ttl:         cfg.Session.TTL,
		now:         time.Now,
	}
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.stateDir, name)
}

// SaveState overwrites the current session-state document.
func (m *Manager) SaveState(focus string, activeAgents []string, contextSummary string) error {
	return statefile.UpdateJSON(m.path(sessionStateFileName), m.lockTimeout, m.lockPoll, func(s *State) error {
		s.CurrentFocus = focus
		s.ActiveAgents = activeAgents
		s.ContextSummary = contextSummary
		s.LastUpdated = m.now().UTC()
		return nil
	})
}

// LoadState returns the persisted session state, or the zero value if
// none exists yet.
func (m *Manager) LoadState() (State, error) {
	var s State
	err := statefile.LoadJSON(m.path(sessionStateFileName), m.lockTimeout, m.lockPoll, &s)
	return s, err
}

// RecordSearch appends a search record, deduplicating on an exact query
// match (the existing record is refreshed rather than duplicated; semantic
// near-duplicate matching is delegated to the external semantic cache),
// then prunes entries older than TTL.
func (m *Manager) RecordSearch(query, agent string, results []string) error {
	now := m.now().UTC()
	record := SearchRecord{Query: query, Timestamp: now, Agent: agent, ResultCount: len(results), FilesFound: results}

	return statefile.UpdateJSON(m.path(searchHistoryFileName), m.lockTimeout, m.lockPoll, func(h *searchHistory) error {
		replaced := false
		for i, existing := range h.Searches {
			if existing.Query == query {
				h.Searches[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			h.Searches = append(h.Searches, record)
		}
		h.Searches = pruneSearches(h.Searches, now, m.ttl)
		return nil
	})
}

// RecentSearches returns searches within the last `since` duration.
func (m *Manager) RecentSearches(since time.Duration) ([]SearchRecord, error) {
	var h searchHistory
	if err := statefile.LoadJSON(m.path(searchHistoryFileName), m.lockTimeout, m.lockPoll, &h); err != nil {
		return nil, err
	}
	cutoff := m.now().UTC().Add(-since)
	var out []SearchRecord
	for _, s := range h.Searches {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

// RecordDecision appends a decision record, pruning entries older than TTL.
func (m *Manager) RecordDecision(decision, rationale string, alternatives []string) error {
	now := m.now().UTC()
	record := DecisionRecord{Decision: decision, Rationale: rationale, Alternatives: alternatives, Timestamp: now}

	return statefile.UpdateJSON(m.path(decisionsFileName), m.lockTimeout, m.lockPoll, func(d *decisionLog) error {
		d.Decisions = append(d.Decisions, record)
		d.Decisions = pruneDecisions(d.Decisions, now, m.ttl)
		return nil
	})
}

// RecentDecisions returns decisions within the last `since` duration.
func (m *Manager) RecentDecisions(since time.Duration) ([]DecisionRecord, error) {
	var d decisionLog
	if err := statefile.LoadJSON(m.path(decisionsFileName), m.lockTimeout, m.lockPoll, &d); err != nil {
		return nil, err
	}
	cutoff := m.now().UTC().Add(-since)
	var out []DecisionRecord
	for _, rec := range d.Decisions {
		if !rec.Timestamp.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func pruneSearches(records []SearchRecord, now time.Time, ttl time.Duration) []SearchRecord {
	cutoff := now.Add(-ttl)
	var kept []SearchRecord
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

func pruneDecisions(records []DecisionRecord, now time.Time, ttl time.Duration) []DecisionRecord {
	cutoff := now.Add(-ttl)
	var kept []DecisionRecord
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}
