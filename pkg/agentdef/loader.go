// Package agentdef loads agent-definition documents: YAML/Markdown files
// with YAML front matter describing a named agent role. The control plane
// treats the agent-definition format as an external collaborator (§6) and
// consumes only two fields: model (to map an agent to a tier) and name
// (to map a matched request to an agent).
package agentdef

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// Definition is the subset of an agent-definition document the control
// plane consumes. Agents with write capabilities must declare
// PermissionMode "acceptEdits"; read-only agents must not (enforced by
// the host assistant, not here — this package only surfaces the field).
type Definition struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Model          string   `yaml:"model"`
	Tools          []string `yaml:"tools"`
	PermissionMode string   `yaml:"permissionMode"`
}

// Loader resolves an agent name to its Tier by reading agent-definition
// files from a configured directory.
type Loader struct {
	dir   string
	cache map[string]Definition
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, cache: map[string]Definition{}}
}

// TierFor resolves name's tier. If the agent-definition file is present
// and parses, its "model" field wins. Otherwise it falls back to
// substring matching on the agent name, then defaults to mid — matching
// the original's get_model_tier_from_agent_file behavior.
func (l *Loader) TierFor(name string) core.Tier {
	if def, ok := l.lookup(name); ok && def.Model != "" {
		return normalizeTier(def.Model)
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "cheap") || strings.Contains(lower, "haiku"):
		return core.TierCheap
	case strings.Contains(lower, "strong") || strings.Contains(lower, "opus"):
		return core.TierStrong
	default:
		return core.TierMid
	}
}

func normalizeTier(model string) core.Tier {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case "cheap", "haiku":
		return core.TierCheap
	case "strong", "opus":
		return core.TierStrong
	default:
		return core.TierMid
	}
}

func (l *Loader) lookup(name string) (Definition, bool) {
	if def, ok := l.cache[name]; ok {
		return def, true
	}
	if l.dir == "" {
		return Definition{}, false
	}
	path := filepath.Join(l.dir, name+".md")
	b, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, false
	}
	def, ok := parseFrontMatter(b)
	if ok {
		l.cache[name] = def
	}
	return def, ok
}

func parseFrontMatter(b []byte) (Definition, bool) {
	content := string(b)
	if !strings.HasPrefix(content, "---") {
		return Definition{}, false
	}
	rest := content[3:]
	end := strings.Index(rest, "---")
	if end < 0 {
		return Definition{}, false
	}
	var def Definition
	if err := yaml.Unmarshal([]byte(rest[:end]), &def); err != nil {
		return Definition{}, false
	}
	return def, true
}
