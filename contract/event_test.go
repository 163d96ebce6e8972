package contract_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/contract"
)

func TestAgentEventRoundTrip(t *testing.T) {
	ts := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	events := []contract.AgentEvent{
		{Timestamp: ts, Kind: contract.RunStarted{Message: "go"}},
		{Timestamp: ts, Kind: contract.ToolCall{
			ToolName:  "read_file",
			ToolUseID: "tu-1",
			Input:     map[string]any{"path": "src/main.rs"},
		}},
		{Timestamp: ts, Kind: contract.ToolResult{
			ToolName: "read_file",
			Output:   "contents",
			IsError:  false,
		}},
		{Timestamp: ts, Kind: contract.ErrorEvent{Message: "boom", ErrorCode: "BACKEND_CRASHED"}},
	}

	for _, e := range events {
		raw, err := json.Marshal(e)
		require.NoError(t, err)

		var decoded contract.AgentEvent
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, e.Kind.Type(), decoded.Kind.Type())
		assert.True(t, decoded.Timestamp.Equal(e.Timestamp))

		raw2, err := json.Marshal(decoded)
		require.NoError(t, err)
		assert.JSONEq(t, string(raw), string(raw2))
	}
}

func TestAgentEventWireShape(t *testing.T) {
	ts := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	e := contract.AgentEvent{
		Timestamp: ts,
		Kind: contract.ToolCall{
			ToolName:  "read_file",
			ToolUseID: "tu-1",
			Input:     map[string]any{"path": "src/main.rs"},
		},
	}
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	kind, ok := generic["kind"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tool_call", kind["type"])
	assert.Equal(t, "read_file", kind["tool_name"])
}

func TestUnknownEventKindErrors(t *testing.T) {
	_, err := contract.UnmarshalEventKind([]byte(`{"type":"not_a_real_kind"}`))
	assert.Error(t, err)
}
