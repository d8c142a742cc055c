// Package work implements WorkCoordinator (C3): a Kanban-style queue
// bounded by a work-in-progress (WIP) limit, with dependency-DAG-aware
// scheduling and an unblocking-count priority rule.
package work

import (
	"path/filepath"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/logger"
	"github.com/yannickloth/claude-router-system-sub000/pkg/statefile"
)

const stateFileName = "work-queue.json"

type queueDoc struct {
	WIPLimit    int               `json:"wip_limit"`
	WorkItems   []domain.WorkItem `json:"work_items"`
	LastUpdated time.Time         `json:"last_updated"`
}

// Coordinator is the WIP-bounded work queue.
type Coordinator struct {
	statePath   string
	lockTimeout time.Duration
	lockPoll    time.Duration
	wipLimit    int
	log         logger.Logger
	now         func() time.Time
}

func New(cfg *core.Config) *Coordinator {
	return &Coordinator{
		statePath:   filepath.Join(cfg.StateDir, stateFileName),
		lockTimeout: cfg.Lock.Timeout,
		lockPoll:    cfg.Lock.PollInterval,
		wipLimit:    cfg.WIPLimit,
		log:         cfg.Logger().With(logger.Field{Key: "component", Value: "work"}),
		now:         time.Now,
	}
}

// Add inserts item as QUEUED (or as given, if caller pre-set a status)
// and runs the scheduler, returning the items newly moved to ACTIVE.
func (c *Coordinator) Add(item domain.WorkItem) ([]domain.WorkItem, error) {
	if item.Status == "" {
		item.Status = domain.StatusQueued
	}
	var started []domain.WorkItem
	err := statefile.UpdateJSON(c.statePath, c.lockTimeout, c.lockPoll, func(d *queueDoc) error {
		if d.WIPLimit == 0 {
			d.WIPLimit = c.wipLimit
		}
		d.WorkItems = append(d.WorkItems, item)
		started = c.schedule(d)
		d.LastUpdated = c.now().UTC()
		return nil
	})
	return started, err
}

// Complete marks id COMPLETED, records completed_at, and reschedules.
func (c *Coordinator) Complete(id string) ([]domain.WorkItem, error) {
	return c.transition(id, domain.StatusCompleted, "")
}

// Fail marks id FAILED (terminal) with reason and reschedules.
func (c *Coordinator) Fail(id, reason string) ([]domain.WorkItem, error) {
	return c.transition(id, domain.StatusFailed, reason)
}

func (c *Coordinator) transition(id string, status domain.WorkStatus, errMsg string) ([]domain.WorkItem, error) {
	var started []domain.WorkItem
	found := false
	err := statefile.UpdateJSON(c.statePath, c.lockTimeout, c.lockPoll, func(d *queueDoc) error {
		now := c.now().UTC()
		for i := range d.WorkItems {
			if d.WorkItems[i].ID == id {
				d.WorkItems[i].Status = status
				d.WorkItems[i].CompletedAt = &now
				if errMsg != "" {
					d.WorkItems[i].Error = errMsg
				}
				found = true
				break
			}
		}
		started = c.schedule(d)
		d.LastUpdated = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, core.NewRouterErrorWithID("work.transition", "not_found", id, core.ErrWorkNotFound)
	}
	return started, nil
}

// Schedule runs the scheduling algorithm without mutating any item's
// status other than the ones it starts, and returns the newly-started
// items. Exposed for callers that want to re-trigger scheduling without
// an add/complete/fail event (e.g. after a WIP-limit config change).
func (c *Coordinator) Schedule() ([]domain.WorkItem, error) {
	var started []domain.WorkItem
	err := statefile.UpdateJSON(c.statePath, c.lockTimeout, c.lockPoll, func(d *queueDoc) error {
		started = c.schedule(d)
		d.LastUpdated = c.now().UTC()
		return nil
	})
	return started, err
}

// schedule implements spec §4.3's algorithm: while ACTIVE count < WIP
// and an eligible item exists, pick by unblocking-count then priority.
func (c *Coordinator) schedule(d *queueDoc) []domain.WorkItem {
	wip := d.WIPLimit
	if wip == 0 {
		wip = c.wipLimit
	}

	byID := make(map[string]*domain.WorkItem, len(d.WorkItems))
	for i := range d.WorkItems {
		byID[d.WorkItems[i].ID] = &d.WorkItems[i]
	}

	var started []domain.WorkItem
	for {
		active := 0
		for _, it := range d.WorkItems {
			if it.Status == domain.StatusActive {
				active++
			}
		}
		if active >= wip {
			return started
		}

		eligible := c.eligibleItems(d, byID)
		if len(eligible) == 0 {
			return started
		}

		unblocking := make(map[string]int, len(eligible))
		maxUnblocking := 0
		for _, it := range eligible {
			n := c.unblockingCount(d, it.ID)
			unblocking[it.ID] = n
			if n > maxUnblocking {
				maxUnblocking = n
			}
		}

		var candidates []*domain.WorkItem
		if maxUnblocking > 0 {
			for _, it := range eligible {
				if unblocking[it.ID] == maxUnblocking {
					candidates = append(candidates, it)
				}
			}
		} else {
			candidates = eligible
		}

		best := candidates[0]
		for _, it := range candidates[1:] {
			if it.Priority > best.Priority {
				best = it
			}
		}

		now := c.now().UTC()
		best.Status = domain.StatusActive
		best.StartedAt = &now
		started = append(started, *best)
	}
}

// eligibleItems returns QUEUED items whose dependencies are all
// COMPLETED. Dangling ids (not present in byID) are never satisfied;
// cyclic dependency sets yield no eligible items, which the caller
// treats as "no deadlock, nothing to do".
func (c *Coordinator) eligibleItems(d *queueDoc, byID map[string]*domain.WorkItem) []*domain.WorkItem {
	var out []*domain.WorkItem
	for i := range d.WorkItems {
		it := &d.WorkItems[i]
		if it.Status != domain.StatusQueued {
			continue
		}
		allDone := true
		for _, dep := range it.Dependencies {
			depItem, ok := byID[dep]
			if !ok || depItem.Status != domain.StatusCompleted {
				allDone = false
				break
			}
		}
		if allDone {
			out = append(out, it)
		}
	}
	return out
}

// unblockingCount is |{j : id in j.dependencies and j.status == QUEUED}|.
func (c *Coordinator) unblockingCount(d *queueDoc, id string) int {
	n := 0
	for _, j := range d.WorkItems {
		if j.Status != domain.StatusQueued {
			continue
		}
		for _, dep := range j.Dependencies {
			if dep == id {
				n++
				break
			}
		}
	}
	return n
}

// StatusSummary returns the current WorkItems, for CLI/display use.
func (c *Coordinator) StatusSummary() ([]domain.WorkItem, error) {
	var d queueDoc
	if err := statefile.LoadJSON(c.statePath, c.lockTimeout, c.lockPoll, &d); err != nil {
		return nil, err
	}
	return d.WorkItems, nil
}
