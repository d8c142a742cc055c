// Package orchestration implements C6: ComplexityClassifier and
// AdaptiveOrchestrator. The classifier scores a request against simple
// and complex indicator families plus a multi-objective marker count,
// and the orchestrator picks single-stage, monitored single-stage, or a
// three-stage interpret/plan/execute pipeline accordingly.
package orchestration

import (
	"regexp"
	"strings"

	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
)

var simpleIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fix (typo|spelling|syntax)`),
	regexp.MustCompile(`(?i)format (code|file)`),
	regexp.MustCompile(`(?i)rename \w+.*to \w+`),
	regexp.MustCompile(`(?i)sort (imports|lines)`),
	regexp.MustCompile(`(?i)(show|display|list|get|read)\b`),
}

var complexIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(design|architect|redesign)\b`),
	regexp.MustCompile(`(?i)\b(should|better|trade-off|judgment)\b`),
	regexp.MustCompile(`(?i)\b(restructure|refactor the|rewrite)\b`),
	regexp.MustCompile(`(?i)\b(analyze|investigate|evaluate)\b`),
	regexp.MustCompile(`(?i)\bmultiple (files|modules|components)\b`),
}

var multiObjectiveSeparators = []string{" and then ", ", then ", " after ", " before ", ";", "\n"}

func countMultiObjectiveMarkers(request string) int {
	lower := strings.ToLower(request)
	n := 0
	for _, sep := range multiObjectiveSeparators {
		n += strings.Count(lower, sep)
	}
	return n
}

// ClassifierConfig tunes confidence scoring: confidence = base +
// weight*matches, clamped to 0.95.
type ClassifierConfig struct {
	SimpleBase, SimpleWeight   float64
	ComplexBase, ComplexWeight float64
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SimpleBase: 0.6, SimpleWeight: 0.1,
		ComplexBase: 0.6, ComplexWeight: 0.1,
	}
}

// Classifier is ComplexityClassifier.
type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify scores request and returns a ComplexityAnalysis per the
// decision table in spec §4.6.
func (c *Classifier) Classify(request string) domain.ComplexityAnalysis {
	var indicators []string

	simpleMatches := 0
	for _, re := range simpleIndicators {
		if re.MatchString(request) {
			simpleMatches++
			indicators = append(indicators, "simple:"+re.String())
		}
	}

	complexMatches := 0
	for _, re := range complexIndicators {
		if re.MatchString(request) {
			complexMatches++
			indicators = append(indicators, "complex:"+re.String())
		}
	}

	objectives := countMultiObjectiveMarkers(request)
	objectivesComplex := objectives >= 3
	if objectivesComplex {
		indicators = append(indicators, "complex:multi_objective_count")
	}

	hasExplicitPath := explicitFileMentioned(request)

	var level domain.ComplexityLevel
	var mode domain.OrchestrationMode
	var confidence float64

	switch {
	case simpleMatches > 0 && hasExplicitPath && complexMatches == 0 && !objectivesComplex:
		level = domain.ComplexitySimple
		mode = domain.ModeSingleStage
		confidence = clamp(c.cfg.SimpleBase+c.cfg.SimpleWeight*float64(simpleMatches), 0, 0.95)
	case complexMatches > 0 || objectivesComplex:
		level = domain.ComplexityComplex
		mode = domain.ModeMultiStage
		confidence = clamp(c.cfg.ComplexBase+c.cfg.ComplexWeight*float64(complexMatches+btoi(objectivesComplex)), 0, 0.95)
	default:
		level = domain.ComplexityModerate
		mode = domain.ModeSingleStageMonitored
		confidence = clamp(0.5, 0, 0.95)
	}

	return domain.ComplexityAnalysis{
		Level:          level,
		Confidence:     confidence,
		Indicators:     indicators,
		Recommendation: mode,
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
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

var (
	explicitFileExt  = regexp.MustCompile(`\b[\w-]+\.[A-Za-z0-9]{2,4}\b`)
	explicitFilePath = regexp.MustCompile(`(\./|/|~/)[^\s]+`)
	explicitFileSlug = regexp.MustCompile(`\b[\w-]+/[\w-]+\b`)
)

func explicitFileMentioned(request string) bool {
	return explicitFileExt.MatchString(request) ||
		explicitFilePath.MatchString(request) ||
		explicitFileSlug.MatchString(request)
}
