package probabilistic

import (
	"context"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

// AgentExecutor invokes an agent at the given tier against request and
// returns a Result for validation. Errors here are treated as a FAIL
// with the error's message as the failure reason.
type AgentExecutor func(ctx context.Context, tier core.Tier, request string) (Result, error)

// Outcome is what OptimisticExecutor.Execute returns: the final result,
// which tiers were actually tried (a prefix of [recommended]++fallback,
// per §8's fallback-chain-soundness property), and whether the run
// ultimately passed validation.
type Outcome struct {
	Result        Result
	TiersAttempted []core.Tier
	Passed        bool
	LastReason    string
}

// Executor is OptimisticExecutor.
type Executor struct {
	router    *Router
	validator *Validator
}

func NewExecutor(router *Router, validator *Validator) *Executor {
	return &Executor{router: router, validator: validator}
}

// Execute routes request, runs one attempt at the recommended tier, and
// if validation fails, walks the fallback chain in order, skipping any
// tier ShouldSkipTier reports should be bypassed. The first PASS wins;
// if every tier is exhausted, the last result is returned.
func (e *Executor) Execute(ctx context.Context, request string, exec AgentExecutor) (Outcome, domain.RoutingDecision, error) {
	decision, err := e.router.Route(request)
	if err != nil {
		return Outcome{}, decision, err
	}
	taskType := classify(request)

	tiers := append([]string{decision.RecommendedModel}, decision.FallbackChain...)

	var last Result
	var lastReason string
	var attempted []core.Tier

	for i, tierStr := range tiers {
		tier := core.Tier(tierStr)

		if i > 0 && ShouldSkipTier(lastReason, tierStr) {
			continue
		}

		result, execErr := exec(ctx, tier, request)
		attempted = append(attempted, tier)
		last = result

		if execErr != nil {
			lastReason = execErr.Error()
			_ = e.router.RecordOutcome(tier, taskType, false)
			continue
		}

		if len(decision.ValidationCriteria) == 0 {
			_ = e.router.RecordOutcome(tier, taskType, true)
			return Outcome{Result: result, TiersAttempted: attempted, Passed: true}, decision, nil
		}

		verdict := e.validator.ValidateAll(ctx, decision.ValidationCriteria, result)
		if verdict.Pass {
			_ = e.router.RecordOutcome(tier, taskType, true)
			return Outcome{Result: result, TiersAttempted: attempted, Passed: true}, decision, nil
		}

		_ = e.router.RecordOutcome(tier, taskType, false)
		lastReason = verdict.Reason
	}

	return Outcome{Result: last, TiersAttempted: attempted, Passed: false, LastReason: lastReason}, decision, nil
}
