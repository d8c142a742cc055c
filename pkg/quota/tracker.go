// Package quota implements QuotaTracker (C2): per-tier daily message
// counters enforced with a reserve buffer, persisted through
// statefile.LockedStateFile so increments are atomic across processes.
package quota

import (
	"path/filepath"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/logger"
	"github.com/yannickloth/claude-router-system-sub000/pkg/statefile"
)

const stateFileName = "quota-tracking.json"

// Unlimited marks a tier with no daily cap (cheap, by default).
const Unlimited = 0

// Tracker tracks per-tier daily consumption against configured limits.
type Tracker struct {
	statePath     string
	lockTimeout   time.Duration
	lockPoll      time.Duration
	limit         map[core.Tier]int
	reserveBuffer map[core.Tier]float64
	log           logger.Logger
	now           func() time.Time
}

// New builds a Tracker backed by <cfg.StateDir>/quota-tracking.json.
func New(cfg *core.Config) *Tracker {
	return &Tracker{
		statePath:     filepath.Join(cfg.StateDir, stateFileName),
		lockTimeout:   cfg.Lock.Timeout,
		lockPoll:      cfg.Lock.PollInterval,
		limit:         cfg.Quota.Limit,
		reserveBuffer: cfg.Quota.ReserveBuffer,
		log:           cfg.Logger().With(logger.Field{Key: "component", Value: "quota"}),
		now:           time.Now,
	}
}

// Summary is the per-tier usage snapshot returned by Summary().
type Summary struct {
	Date string                   `json:"date"`
	Tier map[core.Tier]TierUsage `json:"tier"`
}

type TierUsage struct {
	Used          int     `json:"used"`
	Limit         int     `json:"limit"`
	EffectiveLimit float64 `json:"effective_limit"`
	Remaining     float64 `json:"remaining"`
	Percent       float64 `json:"percent"`
}

func (t *Tracker) today() string {
	return t.now().UTC().Format("2006-01-02")
}

// resetIfStale zeroes Used when the persisted date is not today, matching
// the read-time reset invariant in spec §3/§8: "on read, if state.date !=
// today then reset used to 0 before returning."
func (t *Tracker) resetIfStale(s *domain.QuotaState) {
	today := t.today()
	if s.Date != today {
		s.Date = today
		s.Used = map[string]int{}
	}
	if s.Used == nil {
		s.Used = map[string]int{}
	}
}

// CanUse reports whether tier has remaining quota below its reserve
// buffer. Unlimited tiers always return true.
func (t *Tracker) CanUse(tier core.Tier) (bool, error) {
	var s domain.QuotaState
	if err := statefile.LoadJSON(t.statePath, t.lockTimeout, t.lockPoll, &s); err != nil {
		return false, err
	}
	t.resetIfStale(&s)

	limit := t.limit[tier]
	if limit == Unlimited {
		return true, nil
	}
	buffer := t.reserveBuffer[tier]
	effective := float64(limit) * (1 - buffer)
	return float64(s.Used[string(tier)]) < effective, nil
}

// Increment adds n (callers pass 1 for a single request) to tier's daily
// usage under an exclusive lock and returns the new total. It never
// fails on quota exhaustion — ErrQuotaExhausted only ever surfaces from
// CanUse or the scheduler's DEFER_TO_TOMORROW sentinel, per §7.
func (t *Tracker) Increment(tier core.Tier, n int) (int, error) {
	var newTotal int
	err := statefile.UpdateJSON(t.statePath, t.lockTimeout, t.lockPoll, func(s *domain.QuotaState) error {
		t.resetIfStale(s)
		s.Used[string(tier)] += n
		s.LastUpdated = t.now().UTC()
		newTotal = s.Used[string(tier)]
		return nil
	})
	if err != nil {
		return 0, err
	}
	t.log.Debug("quota incremented", "tier", string(tier), "n", n, "total", newTotal)
	return newTotal, nil
}

// Summary returns a per-tier usage snapshot for observability and CLI
// reporting.
func (t *Tracker) Summary() (Summary, error) {
	var s domain.QuotaState
	if err := statefile.LoadJSON(t.statePath, t.lockTimeout, t.lockPoll, &s); err != nil {
		return Summary{}, err
	}
	t.resetIfStale(&s)

	out := Summary{Date: s.Date, Tier: map[core.Tier]TierUsage{}}
	for _, tier := range core.Tiers {
		limit := t.limit[tier]
		used := s.Used[string(tier)]
		if limit == Unlimited {
			out.Tier[tier] = TierUsage{Used: used, Limit: 0, EffectiveLimit: -1, Remaining: -1, Percent: 0}
			continue
		}
		buffer := t.reserveBuffer[tier]
		effective := float64(limit) * (1 - buffer)
		remaining := effective - float64(used)
		percent := 0.0
		if limit > 0 {
			percent = float64(used) / float64(limit) * 100
		}
		out.Tier[tier] = TierUsage{
			Used:           used,
			Limit:          limit,
			EffectiveLimit: effective,
			Remaining:      remaining,
			Percent:        percent,
		}
	}
	return out, nil
}
