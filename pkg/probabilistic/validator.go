package probabilistic

import (
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// Verdict is a validator's PASS/FAIL outcome.
type Verdict struct {
	Pass   bool
	Reason string
}

// Result is the generic shape OptimisticExecutor passes to validators: a
// free-form payload plus optional structured hints (modified file path,
// a test command to run). Concrete agent executors populate whichever
// fields their validators need.
type Result struct {
	Output      interface{}
	FilePath    string
	TestCommand string
}

// SyntaxChecker validates one file's syntax. Absence of a suitable
// external tool is PASS, not FAIL — the original behavior this control
// plane preserves.
type SyntaxChecker interface {
	Check(ctx context.Context, path string) (Verdict, bool) // ok=false means "no checker available"
}

// ValidatorFunc is one entry in ResultValidator's tag->function table,
// replacing the original's dynamic getattr(self, f"_validate_{tag}")
// dispatch (spec §9) with a closed, statically-populated map.
type ValidatorFunc func(ctx context.Context, result Result) Verdict

// Validator is ResultValidator.
type Validator struct {
	table          map[string]ValidatorFunc
	syntaxCheckers map[string]SyntaxChecker // keyed by file extension, e.g. ".js"
	runTest        func(ctx context.Context, command string, timeout time.Duration) (string, error)
	testTimeout    time.Duration
}

func NewValidator() *Validator {
	v := &Validator{
		syntaxCheckers: map[string]SyntaxChecker{},
		testTimeout:    30 * time.Second,
		runTest:        runShellCommand,
	}
	v.table = map[string]ValidatorFunc{
		"syntax_valid":   v.validateSyntax,
		"no_logic_change": v.validateNoLogicChange,
		"results_found":  v.validateResultsFound,
		"output_valid":   v.validateOutputValid,
		"user_verify":    v.validateUserVerify,
	}
	return v
}

// RegisterSyntaxChecker adds/overrides the checker for a file extension
// (e.g. ".js", ".ts").
func (v *Validator) RegisterSyntaxChecker(ext string, checker SyntaxChecker) {
	v.syntaxCheckers[ext] = checker
}

// Validate runs the named validator tag against result. An unknown tag
// is treated as PASS (closed tag set; unknown tags never block a result).
func (v *Validator) Validate(ctx context.Context, tag string, result Result) Verdict {
	fn, ok := v.table[tag]
	if !ok {
		return Verdict{Pass: true, Reason: "unknown validator tag, treated as pass"}
	}
	return fn(ctx, result)
}

// ValidateAll runs every tag in order and returns the first FAIL, or a
// PASS if every tag passes (or the list is empty).
func (v *Validator) ValidateAll(ctx context.Context, tags []string, result Result) Verdict {
	for _, tag := range tags {
		verdict := v.Validate(ctx, tag, result)
		if !verdict.Pass {
			return verdict
		}
	}
	return Verdict{Pass: true}
}

func (v *Validator) validateSyntax(ctx context.Context, result Result) Verdict {
	if result.FilePath == "" {
		return Verdict{Pass: true, Reason: "no file path to check"}
	}
	ext := extOf(result.FilePath)
	checker, ok := v.syntaxCheckers[ext]
	if !ok {
		return Verdict{Pass: true, Reason: "no syntax checker for " + ext + ", treated as pass"}
	}
	verdict, available := checker.Check(ctx, result.FilePath)
	if !available {
		return Verdict{Pass: true, Reason: "syntax checker unavailable, treated as pass"}
	}
	return verdict
}

func extOf(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[i:]
}

func (v *Validator) validateNoLogicChange(ctx context.Context, result Result) Verdict {
	if result.TestCommand == "" {
		return Verdict{Pass: true, Reason: "no test command supplied"}
	}
	tctx, cancel := context.WithTimeout(ctx, v.testTimeout)
	defer cancel()
	output, err := v.runTest(tctx, result.TestCommand, v.testTimeout)
	if err != nil {
		if tctx.Err() != nil {
			return Verdict{Pass: false, Reason: "test command timed out"}
		}
		reason := "tests failed: " + err.Error()
		if output != "" {
			reason = "tests failed: " + output
		}
		return Verdict{Pass: false, Reason: reason}
	}
	return Verdict{Pass: true}
}

func (v *Validator) validateResultsFound(_ context.Context, result Result) Verdict {
	switch out := result.Output.(type) {
	case nil:
		return Verdict{Pass: false, Reason: "no results found"}
	case string:
		lower := strings.ToLower(strings.TrimSpace(out))
		if lower == "" || lower == "no results" {
			return Verdict{Pass: false, Reason: "no results found"}
		}
	case []interface{}:
		if len(out) == 0 {
			return Verdict{Pass: false, Reason: "no results found"}
		}
	case map[string]interface{}:
		if len(out) == 0 {
			return Verdict{Pass: false, Reason: "no results found"}
		}
	}
	return Verdict{Pass: true}
}

var errorMarkers = []string{"error:", "failed:", "exception:", "traceback:", "fatal:", "panic:", "abort:"}

func (v *Validator) validateOutputValid(_ context.Context, result Result) Verdict {
	if m, ok := result.Output.(map[string]interface{}); ok {
		if _, hasErr := m["error"]; hasErr {
			return Verdict{Pass: false, Reason: "output contains error field"}
		}
		if status, ok := m["status"].(string); ok && status == "error" {
			return Verdict{Pass: false, Reason: "output status is error"}
		}
	}
	if s, ok := result.Output.(string); ok {
		lower := strings.ToLower(s)
		for _, marker := range errorMarkers {
			if strings.Contains(lower, marker) {
				return Verdict{Pass: false, Reason: "output contains marker: " + marker}
			}
		}
	}
	return Verdict{Pass: true}
}

func (v *Validator) validateUserVerify(_ context.Context, _ Result) Verdict {
	// Always passes; the host is expected to surface this as an
	// observable side effect requiring user confirmation.
	return Verdict{Pass: true, Reason: "user verification required"}
}

var mechanicalFailureIndicators = []string{
	"syntax error", "brace mismatch", "environment mismatch", "json syntax",
	"no results found", "no matches found", "no files found", "command not found", "timed out",
}

var reasoningFailurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tests? failed.*logic`),
	regexp.MustCompile(`(?i)assertion.*error`),
	regexp.MustCompile(`(?i)unexpected (behavior|result|output)`),
	regexp.MustCompile(`(?i)design (flaw|issue|problem)`),
	regexp.MustCompile(`(?i)architectural`),
	regexp.MustCompile(`(?i)race condition`),
	regexp.MustCompile(`(?i)incorrect (logic|algorithm|approach)`),
	regexp.MustCompile(`(?i)fundamental`),
	regexp.MustCompile(`(?i)conceptual`),
	regexp.MustCompile(`(?i)misunderst`),
}

// ShouldSkipTier decides whether candidate should be bypassed as a
// fallback, given the observed failure reason. The strongest tier is
// never skipped.
func ShouldSkipTier(failureReason string, candidate string) bool {
	if candidate == string(core.TierStrong) {
		return false
	}
	lower := strings.ToLower(failureReason)
	for _, indicator := range mechanicalFailureIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	for _, pattern := range reasoningFailurePatterns {
		if pattern.MatchString(failureReason) {
			return true
		}
	}
	return false
}

func runShellCommand(ctx context.Context, command string, _ time.Duration) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// decodeJSONResult is a convenience for agent executors whose raw output
// is a JSON document; it is not required by any validator above but is
// provided for executors that want to parse structured output before
// handing it to Validate.
func decodeJSONResult(raw []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
