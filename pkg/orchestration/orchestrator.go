package orchestration

import (
	"context"
	"regexp"
	"strings"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

// Router is the subset of RoutingCore the orchestrator drives each stage
// through. Kept as an interface here (rather than importing pkg/routingcore
// directly) so the two packages don't need to know about each other's
// internals beyond this one call.
type Router interface {
	Route(ctx context.Context, request string) (domain.RoutingResult, error)
}

// MetricsRecorder receives the classification/mode decision for every
// orchestrate() call; satisfied by pkg/metrics.Sink.
type MetricsRecorder interface {
	RecordOrchestration(ctx context.Context, analysis domain.ComplexityAnalysis, mode domain.OrchestrationMode) error
}

// Stage is one step of a multi-stage pipeline's audit trail.
type Stage struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// Outcome is AdaptiveOrchestrator.Orchestrate's return value.
type Outcome struct {
	Routing  domain.RoutingResult   `json:"routing"`
	Stages   []Stage                `json:"stages"`
	Strategy string                  `json:"strategy"`
	Analysis domain.ComplexityAnalysis `json:"analysis"`
	Error    string                  `json:"error,omitempty"`
}

// Orchestrator is AdaptiveOrchestrator.
type Orchestrator struct {
	classifier *Classifier
	router     Router
	metrics    MetricsRecorder
	forcedMode domain.OrchestrationMode // empty means "use classifier recommendation"
}

func NewOrchestrator(classifier *Classifier, router Router, metrics MetricsRecorder) *Orchestrator {
	return &Orchestrator{classifier: classifier, router: router, metrics: metrics}
}

// WithForcedMode overrides the classifier's recommendation for every
// subsequent Orchestrate call. Pass "" to return to classifier-driven mode.
func (o *Orchestrator) WithForcedMode(mode domain.OrchestrationMode) *Orchestrator {
	o.forcedMode = mode
	return o
}

// Orchestrate classifies request, selects a pipeline mode, runs it, and
// records the decision to metrics.
func (o *Orchestrator) Orchestrate(ctx context.Context, request string) (Outcome, error) {
	if strings.TrimSpace(request) == "" {
		return Outcome{Strategy: "empty_request", Error: "empty_request"}, nil
	}

	analysis := o.classifier.Classify(request)
	mode := analysis.Recommendation
	if o.forcedMode != "" {
		mode = o.forcedMode
	}

	if o.metrics != nil {
		_ = o.metrics.RecordOrchestration(ctx, analysis, mode)
	}

	switch mode {
	case domain.ModeSingleStage:
		return o.singleStage(ctx, request, analysis, false)
	case domain.ModeSingleStageMonitored:
		return o.singleStage(ctx, request, analysis, true)
	default:
		return o.multiStage(ctx, request, analysis)
	}
}

func (o *Orchestrator) singleStage(ctx context.Context, request string, analysis domain.ComplexityAnalysis, monitored bool) (Outcome, error) {
	result, err := o.router.Route(ctx, request)
	if err != nil {
		return Outcome{}, err
	}
	strategy := "single_stage"
	if monitored {
		strategy = "single_stage_monitored"
	}
	return Outcome{
		Routing:  result,
		Stages:   []Stage{{Name: "route"}},
		Strategy: strategy,
		Analysis: analysis,
	}, nil
}

var ambiguityMarkers = []string{"best", "better", "should", "which", "how to"}

func (o *Orchestrator) multiStage(ctx context.Context, request string, analysis domain.ComplexityAnalysis) (Outcome, error) {
	intent, ambiguous, scope := o.interpret(request)
	refined, tier, steps := o.plan(request, intent, ambiguous, scope)

	result, err := o.router.Route(ctx, refined)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Routing: result,
		Stages: []Stage{
			{Name: "interpret", Detail: intent},
			{Name: "plan", Detail: strings.Join(steps, ",") + " -> " + tier},
			{Name: "execute"},
		},
		Strategy: "multi_stage",
		Analysis: analysis,
	}, nil
}

var intentKeywords = map[string]*regexp.Regexp{
	"fix":      regexp.MustCompile(`(?i)\bfix\b`),
	"build":    regexp.MustCompile(`(?i)\b(build|create|implement)\b`),
	"design":   regexp.MustCompile(`(?i)\b(design|architect)\b`),
	"analyze":  regexp.MustCompile(`(?i)\b(analyze|investigate|review)\b`),
	"refactor": regexp.MustCompile(`(?i)\brefactor\b`),
}

var scopeLarge = regexp.MustCompile(`(?i)\b(all|every|entire|whole)\b`)
var scopeMedium = regexp.MustCompile(`(?i)\b(several|multiple|some)\b`)

// interpret heuristically detects a canonical intent tag, flags
// ambiguity, and estimates request scope.
func (o *Orchestrator) interpret(request string) (intent string, ambiguous bool, scope string) {
	intent = "general"
	for tag, re := range intentKeywords {
		if re.MatchString(request) {
			intent = tag
			break
		}
	}

	lower := strings.ToLower(request)
	for _, marker := range ambiguityMarkers {
		if strings.Contains(lower, marker) {
			ambiguous = true
			break
		}
	}

	switch {
	case scopeLarge.MatchString(request):
		scope = "large"
	case scopeMedium.MatchString(request):
		scope = "medium"
	default:
		scope = "small"
	}
	return intent, ambiguous, scope
}

// plan derives a refined request, a recommended tier, and the ordered
// step list for the execute stage.
func (o *Orchestrator) plan(request, intent string, ambiguous bool, scope string) (refined string, tier string, steps []string) {
	refined = request
	if ambiguous {
		refined = request + " [REQUIRES CLARIFICATION]"
	}

	switch {
	case scope == "large" || intent == "design":
		tier = string(core.TierStrong)
	case scope == "medium" || intent == "analyze" || intent == "refactor":
		tier = string(core.TierMid)
	default:
		tier = string(core.TierCheap)
	}

	if ambiguous || scope != "small" {
		steps = []string{"clarify", "execute", "verify"}
	} else {
		steps = []string{"execute"}
	}
	return refined, tier, steps
}
