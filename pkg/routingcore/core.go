// Package routingcore implements RoutingCore (C4): the mechanical
// pre-router. It checks a fixed, ordered chain of escalation rules before
// falling back to agent matching, and returns a domain.RoutingResult.
package routingcore

import (
	"context"
	"regexp"
	"strings"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

var (
	complexitySignals = []string{
		"complex", "subtle", "nuanced", "judgment", "trade-off", "best approach",
		"design", "architecture", "should i", "which is better", "recommend", "decide",
	}
	destructiveVerbs  = []string{"delete", "remove", "drop"}
	bulkQuantifiers   = []string{"all", "multiple", "*", "every"}
	mutatingVerbs     = []string{"edit", "modify", "change", "update", "delete", "remove"}
	creationVerbs     = []string{"new", "create", "design", "build", "implement"}
	multiObjectiveSeps = []string{" and ", ", then ", " after ", " before ", ";"}

	explicitFileExt  = regexp.MustCompile(`\b[\w-]+\.[A-Za-z0-9]{2,4}\b`)
	explicitFilePath = regexp.MustCompile(`(\./|/|~/)[^\s]+`)
	explicitFileSlug = regexp.MustCompile(`\b[\w-]+/[\w-]+\b`)
	newFilePattern   = regexp.MustCompile(`(?i)new file\s+\S+`)
	agentDirRef      = regexp.MustCompile(`(?i)\.claude/agents|agent[- ]defin`)
)

// explicitFileMentioned matches any of the three path-shaped token
// families. Per spec's open questions this permissive rule also matches
// version numbers like "3.14" — a known, intentionally preserved
// limitation; tightening it requires re-tuning the confidence thresholds
// below.
func explicitFileMentioned(request string) bool {
	return explicitFileExt.MatchString(request) ||
		explicitFilePath.MatchString(request) ||
		explicitFileSlug.MatchString(request)
}

func containsAny(s string, tokens []string) bool {
	lower := strings.ToLower(s)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func countSeparators(s string, seps []string) int {
	lower := strings.ToLower(s)
	n := 0
	for _, sep := range seps {
		n += strings.Count(lower, sep)
	}
	return n
}

// AgentMatcher maps a request to a candidate agent and confidence. Two
// implementations exist: keyword-based (default) and LLM-based, selected
// by core.Config.Routing.UseLLMRouting.
type AgentMatcher interface {
	Match(ctx context.Context, request string) (agent string, confidence float64, err error)
}

// Core is RoutingCore.
type Core struct {
	matcher              AgentMatcher
	keywordConfidenceMin float64
	llmConfidenceMin     float64
	usesLLM              bool
}

func New(matcher AgentMatcher, cfg *core.Config) *Core {
	return &Core{
		matcher:              matcher,
		keywordConfidenceMin: cfg.Routing.KeywordConfidenceMin,
		llmConfidenceMin:     cfg.Routing.LLMConfidenceMin,
		usesLLM:              cfg.Routing.UseLLMRouting,
	}
}

// Route applies the escalation rule chain, then agent matching.
// An empty, whitespace-only, or over-long request is InvalidRequest,
// rejected at the boundary and never logged as a routing event (§7).
func (c *Core) Route(ctx context.Context, request string) (domain.RoutingResult, error) {
	trimmed := strings.TrimSpace(request)
	if trimmed == "" {
		return domain.RoutingResult{}, core.NewRouterError("routingcore.Route", "invalid_request", core.ErrInvalidRequest)
	}
	if len(request) > 10000 {
		return domain.RoutingResult{}, core.NewRouterError("routingcore.Route", "invalid_request", core.ErrInvalidRequest)
	}

	lower := strings.ToLower(request)

	// Rule 1: complexity signal keywords.
	if containsAny(lower, complexitySignals) {
		return escalate("complexity signal present", 1.0), nil
	}

	// Rule 2: destructive verb + bulk quantifier.
	if containsAny(lower, destructiveVerbs) && containsAny(lower, bulkQuantifiers) {
		return escalate("destructive bulk operation", 1.0), nil
	}

	// Rule 3: mutating verb without an explicit file/path token.
	if containsAny(lower, mutatingVerbs) && !explicitFileMentioned(request) {
		return escalate("mutating verb without explicit target", 0.9), nil
	}

	// Rule 4: agent-definition directory reference + mutating verb.
	if agentDirRef.MatchString(request) && containsAny(lower, mutatingVerbs) {
		return escalate("agent-definition mutation", 1.0), nil
	}

	// Rule 5: >= 2 multi-objective separators.
	if n := countSeparators(lower, multiObjectiveSeps); n >= 2 {
		return escalate("multiple objectives", 0.9), nil
	}

	// Rule 6: creation/design verb, except "new file <path>".
	if containsAny(lower, creationVerbs) && !newFilePattern.MatchString(request) {
		return escalate("creation or design request", 0.85), nil
	}

	// Rule 7: agent matching.
	agent, confidence, err := c.matcher.Match(ctx, request)
	if err != nil {
		return domain.RoutingResult{}, err
	}
	if agent == "" {
		return escalate("no agent match", 1.0), nil
	}

	threshold := c.keywordConfidenceMin
	if c.usesLLM {
		threshold = c.llmConfidenceMin
	}
	if confidence < threshold {
		r := escalate("agent match below confidence threshold", confidence)
		r.Agent = agent
		return r, nil
	}

	return domain.RoutingResult{
		Decision:   domain.Direct,
		Agent:      agent,
		Reason:     "direct agent match",
		Confidence: confidence,
	}, nil
}

func escalate(reason string, confidence float64) domain.RoutingResult {
	return domain.RoutingResult{Decision: domain.Escalate, Reason: reason, Confidence: confidence}
}
