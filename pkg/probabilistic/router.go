// Package probabilistic implements C5: ProbabilisticRouter, ResultValidator,
// and OptimisticExecutor. The router classifies a request into one of six
// task-type patterns (or a default bucket when none matches), combines the pattern's fixed recommendation with a
// learned per-(tier, task_type) success rate, and returns a
// domain.RoutingDecision; the executor then runs one attempt per tier,
// validating and falling back according to that decision.
package probabilistic

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/statefile"
)

const historyFileName = "routing-history.json"

// TaskType is the pattern family a request is classified into.
type TaskType string

const (
	TaskMechanical      TaskType = "mechanical"
	TaskReadOnly        TaskType = "read_only"
	TaskTransform       TaskType = "transform"
	TaskJudgment        TaskType = "judgment"
	TaskComplexReasoning TaskType = "complex_reasoning"
	TaskDestructive     TaskType = "destructive"
	TaskDefault         TaskType = "default"
)

var patternOrder = []struct {
	taskType TaskType
	keywords []string
}{
	{TaskMechanical, []string{"fix typo", "format", "lint", "rename", "fix indentation", "fix syntax"}},
	{TaskReadOnly, []string{"show", "display", "list", "get", "read", "find", "search", "grep"}},
	{TaskTransform, []string{"convert", "translate", "transform", "migrate", "refactor to"}},
	{TaskJudgment, []string{"should", "which is better", "recommend", "evaluate", "trade-off"}},
	{TaskComplexReasoning, []string{"architecture", "design the", "prove", "formal", "theorem"}},
	{TaskDestructive, []string{"delete", "remove", "drop", "truncate"}},
}

func classify(request string) TaskType {
	lower := strings.ToLower(request)
	for _, p := range patternOrder {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.taskType
			}
		}
	}
	return TaskDefault // default bucket, matching the "Default" rule below
}

type successRecord struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
}

type historyDoc struct {
	SuccessHistory map[string]map[string]successRecord `json:"success_history"`
	LastUpdated    time.Time                            `json:"last_updated"`
}

// Router is ProbabilisticRouter.
type Router struct {
	statePath   string
	lockTimeout time.Duration
	lockPoll    time.Duration
	now         func() time.Time
}

func NewRouter(cfg *core.Config) *Router {
	return &Router{
		statePath:   filepath.Join(cfg.StateDir, historyFileName),
		lockTimeout: cfg.Lock.Timeout,
		lockPoll:    cfg.Lock.PollInterval,
		now:         time.Now,
	}
}

// successRate reads the learned success rate for (tier, taskType),
// defaulting to 0.5 with no history.
func (r *Router) successRate(tier core.Tier, taskType TaskType) (float64, error) {
	var doc historyDoc
	if err := statefile.LoadJSON(r.statePath, r.lockTimeout, r.lockPoll, &doc); err != nil {
		return 0, err
	}
	byTask, ok := doc.SuccessHistory[string(tier)]
	if !ok {
		return 0.5, nil
	}
	rec, ok := byTask[string(taskType)]
	if !ok || rec.Attempts == 0 {
		return 0.5, nil
	}
	return float64(rec.Successes) / float64(rec.Attempts), nil
}

// RecordOutcome updates the learned success table for (tier, taskType).
func (r *Router) RecordOutcome(tier core.Tier, taskType TaskType, success bool) error {
	return statefile.UpdateJSON(r.statePath, r.lockTimeout, r.lockPoll, func(d *historyDoc) error {
		if d.SuccessHistory == nil {
			d.SuccessHistory = map[string]map[string]successRecord{}
		}
		if d.SuccessHistory[string(tier)] == nil {
			d.SuccessHistory[string(tier)] = map[string]successRecord{}
		}
		rec := d.SuccessHistory[string(tier)][string(taskType)]
		rec.Attempts++
		if success {
			rec.Successes++
		}
		d.SuccessHistory[string(tier)][string(taskType)] = rec
		d.LastUpdated = r.now().UTC()
		return nil
	})
}

// Statistics returns the raw learned table, for CLI/metrics reporting.
func (r *Router) Statistics() (map[string]map[string]successRecord, error) {
	var doc historyDoc
	if err := statefile.LoadJSON(r.statePath, r.lockTimeout, r.lockPoll, &doc); err != nil {
		return nil, err
	}
	return doc.SuccessHistory, nil
}

// Route classifies request and returns a RoutingDecision per the fixed
// rule table in spec §4.5.
func (r *Router) Route(request string) (domain.RoutingDecision, error) {
	taskType := classify(request)

	switch taskType {
	case TaskMechanical:
		return domain.RoutingDecision{
			RecommendedModel:  string(core.TierCheap),
			Confidence:        domain.ConfidenceHigh,
			FallbackChain:     []string{string(core.TierMid), string(core.TierStrong)},
			ValidationCriteria: []string{"syntax_valid", "no_logic_change"},
			Reasoning:         "mechanical pattern",
		}, nil

	case TaskReadOnly:
		return domain.RoutingDecision{
			RecommendedModel:  string(core.TierCheap),
			Confidence:        domain.ConfidenceHigh,
			FallbackChain:     []string{string(core.TierMid)},
			ValidationCriteria: []string{"results_found"},
			Reasoning:         "read-only pattern",
		}, nil

	case TaskTransform:
		rate, err := r.successRate(core.TierCheap, TaskTransform)
		if err != nil {
			return domain.RoutingDecision{}, err
		}
		if rate > 0.8 {
			return domain.RoutingDecision{
				RecommendedModel:  string(core.TierCheap),
				Confidence:        domain.ConfidenceMedium,
				FallbackChain:     nil,
				ValidationCriteria: []string{"output_valid", "user_verify"},
				Reasoning:         "transform pattern, high learned success rate at cheap",
			}, nil
		}
		return domain.RoutingDecision{
			RecommendedModel: string(core.TierMid),
			Confidence:       domain.ConfidenceHigh,
			Reasoning:        "transform pattern, insufficient learned success rate at cheap",
		}, nil

	case TaskJudgment:
		return domain.RoutingDecision{
			RecommendedModel: string(core.TierMid),
			Confidence:       domain.ConfidenceHigh,
			FallbackChain:    []string{string(core.TierStrong)},
			Reasoning:        "judgment pattern",
		}, nil

	case TaskComplexReasoning:
		return domain.RoutingDecision{
			RecommendedModel: string(core.TierStrong),
			Confidence:       domain.ConfidenceHigh,
			FallbackChain:    nil,
			Reasoning:        "complex-reasoning pattern",
		}, nil

	case TaskDestructive:
		return domain.RoutingDecision{
			RecommendedModel:  string(core.TierMid),
			Confidence:        domain.ConfidenceMedium,
			FallbackChain:     []string{string(core.TierStrong)},
			ValidationCriteria: []string{"user_verify"},
			Reasoning:         "destructive pattern",
		}, nil

	default:
		return domain.RoutingDecision{
			RecommendedModel: string(core.TierMid),
			Confidence:       domain.ConfidenceMedium,
			FallbackChain:    []string{string(core.TierStrong)},
			Reasoning:        "default",
		}, nil
	}
}
