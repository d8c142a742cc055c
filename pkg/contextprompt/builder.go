// Package contextprompt builds the compact continuation prompt a context
// optimizer emits when handing a session off, summarizing just enough to
// resume without replaying the full prior transcript.
package contextprompt

import (
	"fmt"
	"strings"
)

const (
	maxActiveFiles     = 5
	maxDecisions       = 3
	maxNextSteps       = 3
	maxCriticalContext = 200
)

// Input is the material the builder draws from.
type Input struct {
	TaskSummary     string
	ActiveFiles     []string
	Decisions       []string
	NextSteps       []string
	CriticalContext string
}

// Build renders Input as a compact transfer prompt: one sentence per
// field, truncated to the limits above, joined with ". ".
func Build(in Input) string {
	var sentences []string

	if s := strings.TrimSpace(in.TaskSummary); s != "" {
		sentences = append(sentences, "Task: "+trimTrailingPeriod(s))
	}

	if files := cap0(in.ActiveFiles, maxActiveFiles); len(files) > 0 {
		sentences = append(sentences, "Active files: "+strings.Join(files, ", "))
	}

	if decisions := cap0(in.Decisions, maxDecisions); len(decisions) > 0 {
		sentences = append(sentences, "Decisions: "+strings.Join(decisions, "; "))
	}

	if steps := cap0(in.NextSteps, maxNextSteps); len(steps) > 0 {
		sentences = append(sentences, "Next steps: "+strings.Join(steps, "; "))
	}

	if cc := strings.TrimSpace(in.CriticalContext); cc != "" {
		sentences = append(sentences, "Critical context: "+truncate(cc, maxCriticalContext))
	}

	return strings.Join(sentences, ". ")
}

func cap0(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func trimTrailingPeriod(s string) string {
	return strings.TrimSuffix(s, ".")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n-3])
}
