package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

const resultsDirName = "overnight-results"

// AgentExecutor runs one scheduled item against its estimated tier and
// returns a result string or an error.
type AgentExecutor func(ctx context.Context, item domain.TimedWorkItem, tier core.Tier) (string, error)

// ItemOutcome is one item's result in an overnight run: exactly one of
// Result/Error is set.
type ItemOutcome struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunReport is the full batch's outcome, persisted as the dated results
// document under <state_dir>/overnight-results/ in the
// {timestamp, results: {work_id: {result | error}}} shape.
type RunReport struct {
	Timestamp time.Time              `json:"timestamp"`
	Results   map[string]ItemOutcome `json:"results"`
}

func (r *RunReport) record(id string, outcome ItemOutcome) {
	if r.Results == nil {
		r.Results = map[string]ItemOutcome{}
	}
	r.Results[id] = outcome
}

const maxResultChars = 2000

// Executor is OvernightExecutor: it runs a scheduled batch under a
// bounded semaphore, respecting the dependency DAG, and writes a dated
// report.
type Executor struct {
	concurrency int
	timeout     time.Duration
	resultsDir  string
	now         func() time.Time
}

func NewExecutor(cfg *core.Config) *Executor {
	return &Executor{
		concurrency: cfg.Temporal.OvernightConcurrency,
		timeout:     cfg.Temporal.OvernightTimeout,
		resultsDir:  filepath.Join(cfg.StateDir, resultsDirName),
		now:         time.Now,
	}
}

// WithResultsDir overrides where reports are written (the overnight-runner
// CLI's --results-dir flag bypasses the cfg.StateDir-derived default).
func (e *Executor) WithResultsDir(dir string) *Executor {
	e.resultsDir = dir
	return e
}

// WithConcurrency overrides the bounded-semaphore width (the
// overnight-runner CLI's --max-concurrent flag).
func (e *Executor) WithConcurrency(n int) *Executor {
	if n > 0 {
		e.concurrency = n
	}
	return e
}

// WithTimeout overrides the overall run deadline (the overnight-runner
// CLI's --timeout flag).
func (e *Executor) WithTimeout(d time.Duration) *Executor {
	if d > 0 {
		e.timeout = d
	}
	return e
}

// Run executes items concurrently, respecting dependencies among the
// provided set: an item only becomes READY once every id it depends on
// (within this batch) has completed this run. Dependencies on ids outside
// the batch are treated as already satisfied — they were completed in an
// earlier run or belong to the synchronous queue. When no item is READY
// and unfinished items remain, every remaining item is marked FAILED with
// "Blocked by: <ids>" and the run ends rather than deadlocking.
func (e *Executor) Run(ctx context.Context, items []domain.TimedWorkItem, exec AgentExecutor, scheduler *Scheduler) (RunReport, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	report := RunReport{Timestamp: e.now().UTC()}

	inBatch := map[string]bool{}
	for _, it := range items {
		inBatch[it.ID] = true
	}

	remaining := map[string]domain.TimedWorkItem{}
	for _, it := range items {
		remaining[it.ID] = it
	}
	completed := map[string]bool{}

	sem := make(chan struct{}, e.concurrency)

	for len(remaining) > 0 {
		var ready []domain.TimedWorkItem
		for _, it := range remaining {
			if dependenciesMet(it.Dependencies, inBatch, completed) {
				ready = append(ready, it)
			}
		}

		if len(ready) == 0 {
			for id, it := range remaining {
				var unmet []string
				for _, dep := range it.Dependencies {
					if inBatch[dep] && !completed[dep] {
						unmet = append(unmet, dep)
					}
				}
				reason := fmt.Sprintf("Blocked by: %s", strings.Join(unmet, ", "))
				if scheduler != nil {
					_ = scheduler.MarkFailed(id, reason)
				}
				report.record(id, ItemOutcome{Error: reason})
			}
			break
		}

		sort.SliceStable(ready, func(i, j int) bool { return ready[i].Priority > ready[j].Priority })

		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, it := range ready {
			wg.Add(1)
			go func(it domain.TimedWorkItem) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					mu.Lock()
					report.record(it.ID, ItemOutcome{Error: ctx.Err().Error()})
					if scheduler != nil {
						_ = scheduler.MarkFailed(it.ID, ctx.Err().Error())
					}
					mu.Unlock()
					return
				}

				tier := core.Tier(estimateTier(it.Description))
				result, err := exec(ctx, it, tier)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.record(it.ID, ItemOutcome{Error: err.Error()})
					if scheduler != nil {
						_ = scheduler.MarkFailed(it.ID, err.Error())
					}
					return
				}
				truncated := truncate(result, maxResultChars)
				report.record(it.ID, ItemOutcome{Result: truncated})
				if scheduler != nil {
					_ = scheduler.MarkCompleted(it.ID, truncated)
				}
			}(it)
		}
		wg.Wait()

		for _, it := range ready {
			completed[it.ID] = true
			delete(remaining, it.ID)
		}
	}

	if err := e.writeReport(report); err != nil {
		return report, err
	}
	return report, nil
}

func dependenciesMet(deps []string, inBatch, completed map[string]bool) bool {
	for _, dep := range deps {
		if inBatch[dep] && !completed[dep] {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (e *Executor) writeReport(report RunReport) error {
	if err := os.MkdirAll(e.resultsDir, 0o700); err != nil {
		return core.NewRouterError("temporal.Executor.writeReport", "io", err)
	}
	name := fmt.Sprintf("results-%s.json", report.Timestamp.Format("20060102-150405"))
	path := filepath.Join(e.resultsDir, name)

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return core.NewRouterError("temporal.Executor.writeReport", "io", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return core.NewRouterError("temporal.Executor.writeReport", "io", err)
	}
	return nil
}
