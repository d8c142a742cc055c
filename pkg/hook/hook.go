// Package hook implements the host-assistant hook contract (C9): agent
// lifecycle events read from stdin and forwarded to the metrics sink, and
// a PreToolUse permission hook that must answer within a 5s deadline.
package hook

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// PermissionDeadline is the contract's hard ceiling for a PreToolUse
// response; exceeding it is treated as a deny (fail-closed).
const PermissionDeadline = 5 * time.Second

// AgentEvent is the stdin payload for agent_start/agent_stop hooks.
type AgentEvent struct {
	CWD            string `json:"cwd"`
	AgentType      string `json:"agent_type"`
	AgentID        string `json:"agent_id"`
	ExitStatus     string `json:"exit_status,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
}

// AgentEventSink receives agent lifecycle events; satisfied by
// metrics.Sink.RecordAgentEvent.
type AgentEventSink interface {
	RecordAgentEvent(ctx context.Context, event string, fields map[string]any) error
}

func decodeAgentEvent(r io.Reader) (AgentEvent, error) {
	var ev AgentEvent
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		if err == io.EOF {
			return ev, nil // missing fields are tolerated, per the hook contract
		}
		return ev, core.NewRouterError("hook.decodeAgentEvent", "io", err)
	}
	return ev, nil
}

func eventFields(ev AgentEvent) map[string]any {
	return map[string]any{
		"cwd":             ev.CWD,
		"agent_type":      ev.AgentType,
		"agent_id":        ev.AgentID,
		"exit_status":     ev.ExitStatus,
		"transcript_path": ev.TranscriptPath,
	}
}

// HandleAgentStart reads an AgentEvent from r and records "agent_start".
// An empty payload still produces a record with empty fields; a
// malformed payload returns the decode error and records nothing.
func HandleAgentStart(ctx context.Context, sink AgentEventSink, r io.Reader) error {
	ev, err := decodeAgentEvent(r)
	if err != nil {
		return err
	}
	return sink.RecordAgentEvent(ctx, "agent_start", eventFields(ev))
}

// HandleAgentStop reads an AgentEvent from r and records "agent_stop".
func HandleAgentStop(ctx context.Context, sink AgentEventSink, r io.Reader) error {
	ev, err := decodeAgentEvent(r)
	if err != nil {
		return err
	}
	return sink.RecordAgentEvent(ctx, "agent_stop", eventFields(ev))
}

// PermissionDecision is the PreToolUse hook's verdict.
type PermissionDecision string

const (
	PermissionAllow PermissionDecision = "allow"
	PermissionDeny  PermissionDecision = "deny"
)

// PermissionRequest is the PreToolUse stdin payload.
type PermissionRequest struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
	CWD       string         `json:"cwd"`
}

// PermissionResponse is the PreToolUse stdout payload.
type PermissionResponse struct {
	PermissionDecision PermissionDecision `json:"permissionDecision"`
	Reason              string             `json:"reason,omitempty"`
}

// PermissionChecker decides whether a tool invocation may proceed.
type PermissionChecker func(ctx context.Context, req PermissionRequest) PermissionResponse

// HandlePreToolUse reads a PermissionRequest from r, runs checker under
// PermissionDeadline, and writes the PermissionResponse to w.
func HandlePreToolUse(ctx context.Context, checker PermissionChecker, r io.Reader, w io.Writer) error {
	return HandlePreToolUseWithDeadline(ctx, checker, r, w, PermissionDeadline)
}

// HandlePreToolUseWithDeadline is HandlePreToolUse with an explicit
// deadline, for tests that shouldn't wait out the real 5s contract. A
// checker that does not return before the deadline is treated as deny:
// PreToolUse guards real side effects, so an unanswered hook must not
// default to allow.
func HandlePreToolUseWithDeadline(ctx context.Context, checker PermissionChecker, r io.Reader, w io.Writer, deadline time.Duration) error {
	var req PermissionRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil && err != io.EOF {
		return core.NewRouterError("hook.HandlePreToolUse", "io", err)
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	resultCh := make(chan PermissionResponse, 1)
	go func() {
		resultCh <- checker(ctx, req)
	}()

	var resp PermissionResponse
	select {
	case resp = <-resultCh:
	case <-ctx.Done():
		resp = PermissionResponse{PermissionDecision: PermissionDeny, Reason: "permission check timed out"}
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return core.NewRouterError("hook.HandlePreToolUse", "io", err)
	}
	return nil
}
