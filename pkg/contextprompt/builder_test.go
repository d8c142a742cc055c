package contextprompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_JoinsPopulatedFieldsAsSentences(t *testing.T) {
	out := Build(Input{
		TaskSummary: "Refactor the quota tracker",
		ActiveFiles: []string{"pkg/quota/tracker.go", "pkg/quota/scheduler.go"},
		Decisions:   []string{"use exclusive lock for increment"},
		NextSteps:   []string{"add tests"},
	})
	assert.Equal(t, "Task: Refactor the quota tracker. Active files: pkg/quota/tracker.go, pkg/quota/scheduler.go. Decisions: use exclusive lock for increment. Next steps: add tests", out)
}

func TestBuild_CapsActiveFilesAtFive(t *testing.T) {
	out := Build(Input{ActiveFiles: []string{"a", "b", "c", "d", "e", "f", "g"}})
	assert.Equal(t, "Active files: a, b, c, d, e", out)
}

func TestBuild_TruncatesCriticalContextTo200Chars(t *testing.T) {
	long := strings.Repeat("x", 300)
	out := Build(Input{CriticalContext: long})
	assert.True(t, strings.HasPrefix(out, "Critical context: "))
	body := strings.TrimPrefix(out, "Critical context: ")
	assert.LessOrEqual(t, len(body), 200)
	assert.True(t, strings.HasSuffix(body, "..."))
}

func TestBuild_EmptyInputYieldsEmptyString(t *testing.T) {
	assert.Equal(t, "", Build(Input{}))
}
