// Package temporal implements C7: TemporalScheduler and
// OvernightExecutor. The scheduler classifies work as sync/async/either,
// maintains five persisted queues, and promotes eligible async items to
// an overnight run against remaining quota and time-to-midnight budget;
// the executor then runs that batch concurrently, respecting the
// dependency DAG.
package temporal

import (
	"strings"

	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

var syncKeywords = []string{
	"help me", "which", "should i", "decide", "review", "edit", "design", "interactive",
}

var asyncKeywords = []string{
	"search for", "analyze", "generate report", "batch", "overnight", "index",
}

var readOnlyVerbs = []string{"show", "display", "list", "get", "read", "find"}

var destructiveVerbs = []string{"delete", "remove", "drop"}

// Context carries the optional override flags classify_timing consults.
type Context struct {
	RequiresApproval bool
	BatchMode        bool
}

// ClassifyTiming returns SYNC if user-presence keywords match or a
// destructive verb is present without an overriding context; ASYNC if
// batch/background keywords or read-only verbs match; EITHER otherwise.
// ctx.RequiresApproval forces SYNC; ctx.BatchMode forces ASYNC.
func ClassifyTiming(request string, ctx Context) domain.WorkTiming {
	if ctx.RequiresApproval {
		return domain.TimingSync
	}
	if ctx.BatchMode {
		return domain.TimingAsync
	}

	lower := strings.ToLower(request)

	if containsAny(lower, syncKeywords) {
		return domain.TimingSync
	}
	if containsAny(lower, destructiveVerbs) {
		return domain.TimingSync
	}
	if containsAny(lower, asyncKeywords) || containsAny(lower, readOnlyVerbs) {
		return domain.TimingAsync
	}
	return domain.TimingEither
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

var (
	strongKeywords = []string{"formalize", "proof", "mathematical", "verify", "theorem", "derive"}
	midKeywords    = []string{"analyze", "design", "integrate", "architect", "refactor", "plan", "strategy", "research"}
)

// estimateTier maps a work item's description to a tier by keyword
// class, for overnight quota-budget planning (spec §4.7).
func estimateTier(description string) string {
	lower := strings.ToLower(description)
	if containsAny(lower, strongKeywords) {
		return "strong"
	}
	if containsAny(lower, midKeywords) {
		return "mid"
	}
	return "cheap"
}
