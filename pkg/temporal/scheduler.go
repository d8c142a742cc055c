package temporal

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/statefile"
)

const stateFileName = "temporal-queue.json"

type queueDoc struct {
	SyncQueue          []domain.TimedWorkItem `json:"sync_queue"`
	AsyncQueue         []domain.TimedWorkItem `json:"async_queue"`
	ScheduledAsync     []domain.TimedWorkItem `json:"scheduled_async"`
	CompletedOvernight []domain.TimedWorkItem `json:"completed_overnight"`
	FailedWork         []domain.TimedWorkItem `json:"failed_work"`
	LastUpdated        time.Time              `json:"last_updated"`
}

// QuotaChecker is the subset of quota.Tracker the scheduler needs to
// decide whether an item fits the remaining daily budget for its
// estimated tier.
type QuotaChecker interface {
	CanUse(tier core.Tier) (bool, error)
}

// Scheduler is TemporalScheduler.
type Scheduler struct {
	statePath   string
	lockTimeout time.Duration
	lockPoll    time.Duration
	loc         *time.Location
	activeStart time.Duration // minutes since midnight, as a duration
	activeEnd   time.Duration
	quota       QuotaChecker
	now         func() time.Time
}

func New(cfg *core.Config, quota QuotaChecker) (*Scheduler, error) {
	loc := time.Local
	if cfg.Temporal.Timezone != "" && cfg.Temporal.Timezone != "Local" {
		l, err := time.LoadLocation(cfg.Temporal.Timezone)
		if err != nil {
			return nil, core.NewRouterError("temporal.New", "config", err)
		}
		loc = l
	}
	start, err := parseClock(cfg.Temporal.ActiveHoursStart)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(cfg.Temporal.ActiveHoursEnd)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		statePath:   filepath.Join(cfg.StateDir, stateFileName),
		lockTimeout: cfg.Lock.Timeout,
		lockPoll:    cfg.Lock.PollInterval,
		loc:         loc,
		activeStart: start,
		activeEnd:   end,
		quota:       quota,
		now:         time.Now,
	}, nil
}

func parseClock(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, core.NewRouterError("temporal.parseClock", "config", err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (s *Scheduler) isActiveHours(at time.Time) bool {
	local := at.In(s.loc)
	mins := time.Duration(local.Hour())*time.Hour + time.Duration(local.Minute())*time.Minute
	return mins >= s.activeStart && mins < s.activeEnd
}

func (s *Scheduler) minutesToMidnight(at time.Time) float64 {
	local := at.In(s.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).Add(24 * time.Hour)
	return midnight.Sub(local).Minutes()
}

// AddWork classifies item's timing and routes it to sync_queue or
// async_queue; EITHER is decided by whether "now" falls in active hours.
func (s *Scheduler) AddWork(item domain.TimedWorkItem, wctx Context) error {
	timing := item.Timing
	if timing == "" {
		timing = ClassifyTiming(item.Description, wctx)
	}
	item.Timing = timing

	return statefile.UpdateJSON(s.statePath, s.lockTimeout, s.lockPoll, func(d *queueDoc) error {
		switch timing {
		case domain.TimingSync:
			d.SyncQueue = append(d.SyncQueue, item)
		case domain.TimingAsync:
			d.AsyncQueue = append(d.AsyncQueue, item)
		default: // EITHER
			if s.isActiveHours(s.now()) {
				d.SyncQueue = append(d.SyncQueue, item)
			} else {
				d.AsyncQueue = append(d.AsyncQueue, item)
			}
		}
		d.LastUpdated = s.now().UTC()
		return nil
	})
}

// ScheduleOvernightWork selects async_queue items whose dependencies are
// all completed-overnight, that fit their estimated tier's remaining
// quota, and that fit the remaining minutes-to-midnight budget. Eligible
// items move to scheduled_async with status SCHEDULED, processed in
// priority-descending order; items that don't fit stay in async_queue.
// Calling this twice with no completions between yields the same
// scheduled_async set, since already-scheduled items are excluded from
// async_queue and re-selecting the same candidates is idempotent.
func (s *Scheduler) ScheduleOvernightWork() ([]domain.TimedWorkItem, error) {
	var scheduled []domain.TimedWorkItem
	err := statefile.UpdateJSON(s.statePath, s.lockTimeout, s.lockPoll, func(d *queueDoc) error {
		completedIDs := map[string]bool{}
		for _, it := range d.CompletedOvernight {
			completedIDs[it.ID] = true
		}

		candidates := append([]domain.TimedWorkItem{}, d.AsyncQueue...)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Priority > candidates[j].Priority
		})

		budget := s.minutesToMidnight(s.now())
		var remaining []domain.TimedWorkItem

		for _, item := range candidates {
			if !depsSatisfied(item.Dependencies, completedIDs) {
				remaining = append(remaining, item)
				continue
			}

			tier := core.Tier(estimateTier(item.Description))
			ok, err := s.quota.CanUse(tier)
			if err != nil {
				return err
			}
			if !ok {
				remaining = append(remaining, item)
				continue
			}

			if float64(item.EstimatedDurationMinutes) > budget {
				remaining = append(remaining, item)
				continue
			}

			item.Status = domain.StatusScheduled
			scheduled = append(scheduled, item)
			budget -= float64(item.EstimatedDurationMinutes)
		}

		d.AsyncQueue = remaining
		d.ScheduledAsync = append(d.ScheduledAsync, scheduled...)
		d.LastUpdated = s.now().UTC()
		return nil
	})
	return scheduled, err
}

func depsSatisfied(deps []string, completed map[string]bool) bool {
	for _, dep := range deps {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// MarkCompleted moves id out of scheduled_async into completed_overnight.
func (s *Scheduler) MarkCompleted(id, result string) error {
	return statefile.UpdateJSON(s.statePath, s.lockTimeout, s.lockPoll, func(d *queueDoc) error {
		for i, it := range d.ScheduledAsync {
			if it.ID == id {
				now := s.now().UTC()
				it.Status = domain.StatusCompleted
				it.CompletedAt = &now
				d.ScheduledAsync = append(d.ScheduledAsync[:i], d.ScheduledAsync[i+1:]...)
				d.CompletedOvernight = append(d.CompletedOvernight, it)
				break
			}
		}
		d.LastUpdated = s.now().UTC()
		return nil
	})
}

// MarkFailed moves id out of scheduled_async into failed_work.
func (s *Scheduler) MarkFailed(id, reason string) error {
	return statefile.UpdateJSON(s.statePath, s.lockTimeout, s.lockPoll, func(d *queueDoc) error {
		for i, it := range d.ScheduledAsync {
			if it.ID == id {
				now := s.now().UTC()
				it.Status = domain.StatusFailed
				it.CompletedAt = &now
				it.Error = reason
				d.ScheduledAsync = append(d.ScheduledAsync[:i], d.ScheduledAsync[i+1:]...)
				d.FailedWork = append(d.FailedWork, it)
				break
			}
		}
		d.LastUpdated = s.now().UTC()
		return nil
	})
}

// Snapshot returns the full queue document, for CLI status/evening
// display and for the overnight runner to pull scheduled_async from.
func (s *Scheduler) Snapshot() (queueDoc, error) {
	var d queueDoc
	err := statefile.LoadJSON(s.statePath, s.lockTimeout, s.lockPoll, &d)
	return d, err
}
