package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []string
	fields []map[string]any
}

func (r *recordingSink) RecordAgentEvent(_ context.Context, event string, fields map[string]any) error {
	r.events = append(r.events, event)
	r.fields = append(r.fields, fields)
	return nil
}

func TestHandleAgentStart_RecordsEvent(t *testing.T) {
	sink := &recordingSink{}
	payload := strings.NewReader(`{"cwd":"/tmp","agent_type":"test-agent","agent_id":"abc123"}`)
	require.NoError(t, HandleAgentStart(context.Background(), sink, payload))
	require.Len(t, sink.events, 1)
	assert.Equal(t, "agent_start", sink.events[0])
	assert.Equal(t, "test-agent", sink.fields[0]["agent_type"])
}

func TestHandleAgentStop_TolerateMissingFields(t *testing.T) {
	sink := &recordingSink{}
	payload := strings.NewReader(`{"cwd":"/tmp"}`)
	require.NoError(t, HandleAgentStop(context.Background(), sink, payload))
	require.Len(t, sink.events, 1)
	assert.Equal(t, "agent_stop", sink.events[0])
}

func TestHandlePreToolUse_ReturnsCheckerDecision(t *testing.T) {
	checker := func(_ context.Context, req PermissionRequest) PermissionResponse {
		if req.ToolName == "Bash" {
			return PermissionResponse{PermissionDecision: PermissionDeny, Reason: "no shell access"}
		}
		return PermissionResponse{PermissionDecision: PermissionAllow}
	}

	in := strings.NewReader(`{"tool_name":"Bash","tool_input":{}}`)
	var out bytes.Buffer
	require.NoError(t, HandlePreToolUse(context.Background(), checker, in, &out))

	var resp PermissionResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, PermissionDeny, resp.PermissionDecision)
}

func TestHandlePreToolUse_TimesOutToDeny(t *testing.T) {
	checker := func(ctx context.Context, _ PermissionRequest) PermissionResponse {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return PermissionResponse{PermissionDecision: PermissionAllow}
	}

	in := strings.NewReader(`{"tool_name":"Edit"}`)
	var out bytes.Buffer

	start := time.Now()
	require.NoError(t, HandlePreToolUseWithDeadline(context.Background(), checker, in, &out, 20*time.Millisecond))
	elapsed := time.Since(start)
	assert.Less(t, elapsed, 1*time.Second)

	var resp PermissionResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, PermissionDeny, resp.PermissionDecision)
}
