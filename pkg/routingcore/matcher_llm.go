package routingcore

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// CompletionClient invokes the cheap tier with a fixed prompt and returns
// its raw text response. Hiding the transport behind an interface lets
// tests substitute a stub instead of shelling out.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SubprocessCompletionClient shells out to an external agent binary,
// matching the original's subprocess-based LLM routing call. It sets a
// hook-suppression environment variable so the invoked process does not
// recursively re-enter this control plane's own hooks.
type SubprocessCompletionClient struct {
	Binary string
	Args   []string
}

func NewSubprocessCompletionClient(binary string, args ...string) *SubprocessCompletionClient {
	return &SubprocessCompletionClient{Binary: binary, Args: args}
}

func (c *SubprocessCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, append(c.Args, prompt)...)
	cmd.Env = append(cmd.Environ(), "ROUTER_HOOK_SUPPRESS=1")
	out, err := cmd.Output()
	if err != nil {
		return "", core.NewRouterError("routingcore.SubprocessCompletionClient.Complete", "subprocess", err)
	}
	return string(out), nil
}

type llmMatchResponse struct {
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
}

// LLMMatcher asks the cheap tier to name an agent and confidence for a
// request. The canonical prompt format is not versioned upstream (spec
// open question); field names {agent, confidence} must stay stable, and
// any other shape fails closed into a keyword-match fallback.
type LLMMatcher struct {
	client   CompletionClient
	fallback AgentMatcher
}

func NewLLMMatcher(client CompletionClient, fallback AgentMatcher) *LLMMatcher {
	return &LLMMatcher{client: client, fallback: fallback}
}

const llmRoutingPrompt = `Classify the following request and respond with exactly one JSON object
of the form {"agent": "<agent-name>", "confidence": <0..1 float>}. Request:
%s`

// Match calls the completion client and parses its JSON answer. Any
// error — subprocess failure, malformed JSON, wrong shape — falls back
// to the keyword matcher rather than failing the route.
func (m *LLMMatcher) Match(ctx context.Context, request string) (string, float64, error) {
	raw, err := m.client.Complete(ctx, fmt.Sprintf(llmRoutingPrompt, request))
	if err != nil {
		return m.fallback.Match(ctx, request)
	}

	var resp llmMatchResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return m.fallback.Match(ctx, request)
	}
	if resp.Agent == "" || resp.Confidence < 0 || resp.Confidence > 1 {
		return m.fallback.Match(ctx, request)
	}
	return resp.Agent, resp.Confidence, nil
}
