package routingcore

import (
	"context"
	"strings"
)

// KeywordMatcher is the default AgentMatcher: a fixed keyword catalog
// tiered by capability, with confidence bands per tier family. Mechanical
// verbs combined with an explicit file token score highest (cheap);
// reasoning verbs score a mid-range band; proof/formal/mathematical verbs
// score a strong band.
type KeywordMatcher struct {
	CheapAgent  string
	MidAgent    string
	StrongAgent string
}

func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{
		CheapAgent:  "cheap-general",
		MidAgent:    "mid-general",
		StrongAgent: "strong-general",
	}
}

var (
	mechanicalVerbs = []string{"fix", "format", "rename", "sort", "show", "display", "list", "get", "read", "run", "lint"}
	reasoningVerbs  = []string{"analyze", "refactor", "integrate", "plan", "strategy", "research", "review", "optimize"}
	formalVerbs     = []string{"prove", "proof", "formalize", "theorem", "derive", "mathematical", "verify correctness"}
)

// Match scores the request against the three keyword families and
// returns the strongest match. Confidence ranges follow spec §4.4:
// cheap 0.90-0.95, mid 0.50-0.90, strong 0.70-0.95.
func (m *KeywordMatcher) Match(_ context.Context, request string) (string, float64, error) {
	lower := strings.ToLower(request)

	if n := countMatches(lower, formalVerbs); n > 0 {
		conf := clamp(0.70+0.05*float64(n), 0.70, 0.95)
		return m.StrongAgent, conf, nil
	}

	if n := countMatches(lower, mechanicalVerbs); n > 0 && explicitFileMentioned(request) {
		conf := clamp(0.90+0.01*float64(n), 0.90, 0.95)
		return m.CheapAgent, conf, nil
	}

	if n := countMatches(lower, reasoningVerbs); n > 0 {
		conf := clamp(0.50+0.08*float64(n), 0.50, 0.90)
		return m.MidAgent, conf, nil
	}

	return "", 0, nil
}

func countMatches(lower string, tokens []string) int {
	n := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			n++
		}
	}
	return n
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
