package contract

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind is a marker interface implemented by every AgentEvent variant.
// Concrete implementations capture one tagged-union case each; the wire tag
// lives in the "type" field and is snake_case.
type EventKind interface {
	isEventKind()
	// Type returns this variant's wire tag.
	Type() string
}

type (
	// RunStarted announces the beginning of a run.
	RunStarted struct {
		Message string `json:"message"`
	}

	// AssistantDelta carries an incremental chunk of assistant text.
	AssistantDelta struct {
		Text string `json:"text"`
	}

	// AssistantMessage carries a complete assistant message.
	AssistantMessage struct {
		Text string `json:"text"`
	}

	// ToolCall announces a tool invocation request.
	ToolCall struct {
		ToolName        string `json:"tool_name"`
		ToolUseID       string `json:"tool_use_id,omitempty"`
		ParentToolUseID string `json:"parent_tool_use_id,omitempty"`
		Input           any    `json:"input"`
	}

	// ToolResult carries the outcome of a tool invocation.
	ToolResult struct {
		ToolName  string `json:"tool_name"`
		ToolUseID string `json:"tool_use_id,omitempty"`
		Output    any    `json:"output"`
		IsError   bool   `json:"is_error"`
	}

	// FileChanged reports that a file in the workspace was modified.
	FileChanged struct {
		Path    string `json:"path"`
		Summary string `json:"summary"`
	}

	// CommandExecuted reports a shell command the backend ran.
	CommandExecuted struct {
		Command       string `json:"command"`
		ExitCode      *int   `json:"exit_code,omitempty"`
		OutputPreview string `json:"output_preview,omitempty"`
	}

	// Warning carries a non-fatal diagnostic message.
	Warning struct {
		Message string `json:"message"`
	}

	// ErrorEvent carries a fatal or recoverable error observed during a run.
	ErrorEvent struct {
		Message   string `json:"message"`
		ErrorCode string `json:"error_code,omitempty"`
	}

	// RunCompleted announces the end of a run.
	RunCompleted struct {
		Message string `json:"message"`
	}
)

func (RunStarted) isEventKind()       {}
func (AssistantDelta) isEventKind()   {}
func (AssistantMessage) isEventKind() {}
func (ToolCall) isEventKind()         {}
func (ToolResult) isEventKind()       {}
func (FileChanged) isEventKind()      {}
func (CommandExecuted) isEventKind()  {}
func (Warning) isEventKind()          {}
func (ErrorEvent) isEventKind()       {}
func (RunCompleted) isEventKind()     {}

func (RunStarted) Type() string       { return "run_started" }
func (AssistantDelta) Type() string   { return "assistant_delta" }
func (AssistantMessage) Type() string { return "assistant_message" }
func (ToolCall) Type() string         { return "tool_call" }
func (ToolResult) Type() string       { return "tool_result" }
func (FileChanged) Type() string      { return "file_changed" }
func (CommandExecuted) Type() string  { return "command_executed" }
func (Warning) Type() string          { return "warning" }
func (ErrorEvent) Type() string       { return "error" }
func (RunCompleted) Type() string     { return "run_completed" }

// AgentEvent is a timestamped, tagged-union event emitted by a backend while
// it executes a run. Ext carries an optional extension map for forward
// compatibility with fields the core doesn't model yet.
type AgentEvent struct {
	Timestamp time.Time
	Kind      EventKind
	Ext       map[string]any
}

// MarshalJSON renders the event as {"ts":...,"kind":{"type":"...", ...fields},"ext":...}.
func (e AgentEvent) MarshalJSON() ([]byte, error) {
	kindBytes, err := json.Marshal(e.Kind)
	if err != nil {
		return nil, err
	}
	var kindMap map[string]any
	if err := json.Unmarshal(kindBytes, &kindMap); err != nil {
		return nil, err
	}
	if kindMap == nil {
		kindMap = map[string]any{}
	}
	kindMap["type"] = e.Kind.Type()

	out := map[string]any{
		"ts":   e.Timestamp.UTC().Format(time.RFC3339Nano),
		"kind": kindMap,
	}
	if e.Ext != nil {
		out["ext"] = e.Ext
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses an event previously produced by MarshalJSON.
func (e *AgentEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		TS   string          `json:"ts"`
		Kind json.RawMessage `json:"kind"`
		Ext  map[string]any  `json:"ext,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.TS)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, raw.TS)
		if err != nil {
			return fmt.Errorf("contract: invalid event timestamp %q: %w", raw.TS, err)
		}
	}
	kind, err := UnmarshalEventKind(raw.Kind)
	if err != nil {
		return err
	}
	e.Timestamp = ts
	e.Kind = kind
	e.Ext = raw.Ext
	return nil
}

// UnmarshalEventKind decodes a tagged-union EventKind payload by its "type" field.
func UnmarshalEventKind(data []byte) (EventKind, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("contract: invalid event kind: %w", err)
	}
	var dst EventKind
	switch tag.Type {
	case "run_started":
		dst = &RunStarted{}
	case "assistant_delta":
		dst = &AssistantDelta{}
	case "assistant_message":
		dst = &AssistantMessage{}
	case "tool_call":
		dst = &ToolCall{}
	case "tool_result":
		dst = &ToolResult{}
	case "file_changed":
		dst = &FileChanged{}
	case "command_executed":
		dst = &CommandExecuted{}
	case "warning":
		dst = &Warning{}
	case "error":
		dst = &ErrorEvent{}
	case "run_completed":
		dst = &RunCompleted{}
	default:
		return nil, fmt.Errorf("contract: unknown event kind %q", tag.Type)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	switch v := dst.(type) {
	case *RunStarted:
		return *v, nil
	case *AssistantDelta:
		return *v, nil
	case *AssistantMessage:
		return *v, nil
	case *ToolCall:
		return *v, nil
	case *ToolResult:
		return *v, nil
	case *FileChanged:
		return *v, nil
	case *CommandExecuted:
		return *v, nil
	case *Warning:
		return *v, nil
	case *ErrorEvent:
		return *v, nil
	case *RunCompleted:
		return *v, nil
	}
	return nil, fmt.Errorf("contract: unreachable event kind %q", tag.Type)
}
