package dialect

import (
	"fmt"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// Dialect names one of the recognised backend dialects.
type Dialect string

const (
	Abp     Dialect = "abp"
	Claude  Dialect = "claude"
	OpenAI  Dialect = "openai"
	Gemini  Dialect = "gemini"
	Codex   Dialect = "codex"
	Kimi    Dialect = "kimi"
	Copilot Dialect = "copilot"
	Mock    Dialect = "mock"
)

// Adapter is what a vendor package implements to participate in the
// projection matrix: model-name mapping, a capability manifest, and a
// tool-name sanitizer honoring the vendor's naming constraints.
type Adapter interface {
	Name() Dialect
	DefaultModel() string
	ModelToCanonical(vendorModel string) string
	ModelFromCanonical(canonicalModel string) string
	CapabilityManifest() contract.CapabilityManifest
	SanitizeToolName(name string) string
}

// DialectResult is a work order projected into a target dialect's
// canonical message form, ready for that dialect's wire-format encoder.
type DialectResult struct {
	Dialect  Dialect
	Model    string
	Messages []Message
}

// ProjectionMatrix maps work orders, messages, tool calls and tool
// definitions between registered dialects via the shared canonical IR.
type ProjectionMatrix struct {
	adapters map[Dialect]Adapter
}

// NewProjectionMatrix returns an empty matrix.
func NewProjectionMatrix() *ProjectionMatrix {
	return &ProjectionMatrix{adapters: make(map[Dialect]Adapter)}
}

// Register adds an adapter to the matrix, keyed by its own Name().
func (m *ProjectionMatrix) Register(a Adapter) {
	m.adapters[a.Name()] = a
}

// CanTranslate reports whether both from and to have registered adapters.
func (m *ProjectionMatrix) CanTranslate(from, to Dialect) bool {
	_, okFrom := m.adapters[from]
	_, okTo := m.adapters[to]
	return okFrom && okTo
}

// SupportedTranslations returns every (from, to) pair the matrix can serve.
func (m *ProjectionMatrix) SupportedTranslations() [][2]Dialect {
	var pairs [][2]Dialect
	for from := range m.adapters {
		for to := range m.adapters {
			pairs = append(pairs, [2]Dialect{from, to})
		}
	}
	return pairs
}

func (m *ProjectionMatrix) lookup(d Dialect) (Adapter, error) {
	a, ok := m.adapters[d]
	if !ok {
		return nil, abperrors.Newf(abperrors.DialectUnknown, "unknown dialect: %s", d)
	}
	return a, nil
}

// Translate projects a work order into the target dialect's canonical
// message form: the task becomes a user message, context files and
// snippets are rendered into it, and the configured model (if any) is
// resolved through the canonical model namespace into the target
// dialect's vendor-specific model name.
func (m *ProjectionMatrix) Translate(from, to Dialect, w contract.WorkOrder) (DialectResult, error) {
	fromAdapter, err := m.lookup(from)
	if err != nil {
		return DialectResult{}, err
	}
	toAdapter, err := m.lookup(to)
	if err != nil {
		return DialectResult{}, err
	}

	model := toAdapter.DefaultModel()
	if w.Config.Model != nil && *w.Config.Model != "" {
		canonical := fromAdapter.ModelToCanonical(*w.Config.Model)
		model = toAdapter.ModelFromCanonical(canonical)
	}

	content := w.Task
	for _, snippet := range w.Context.Snippets {
		content += fmt.Sprintf("\n\n## %s\n%s", snippet.Name, snippet.Content)
	}
	if len(w.Context.Files) > 0 {
		content += "\n\n## Referenced files\n"
		for _, f := range w.Context.Files {
			content += fmt.Sprintf("- %s\n", f)
		}
	}

	return DialectResult{
		Dialect: to,
		Model:   model,
		Messages: []Message{
			{Role: RoleUser, Content: []ContentBlock{Text{Value: content}}},
		},
	}, nil
}

// MapMessages re-sanitizes tool-bearing content blocks' names for the
// target dialect; canonical message structure otherwise passes through
// unchanged since the IR is dialect-agnostic by construction.
func (m *ProjectionMatrix) MapMessages(from, to Dialect, messages []Message) ([]Message, error) {
	toAdapter, err := m.lookup(to)
	if err != nil {
		return nil, err
	}
	if _, err := m.lookup(from); err != nil {
		return nil, err
	}

	out := make([]Message, len(messages))
	for i, msg := range messages {
		blocks := make([]ContentBlock, len(msg.Content))
		for j, block := range msg.Content {
			if tu, ok := block.(ToolUse); ok {
				tu.Name = toAdapter.SanitizeToolName(tu.Name)
				blocks[j] = tu
				continue
			}
			blocks[j] = block
		}
		out[i] = Message{Role: msg.Role, Content: blocks, Metadata: msg.Metadata}
	}
	return out, nil
}

// TranslateToolCall re-sanitizes call's name for the target dialect.
func (m *ProjectionMatrix) TranslateToolCall(from, to Dialect, call ToolCall) (ToolCall, error) {
	toAdapter, err := m.lookup(to)
	if err != nil {
		return ToolCall{}, err
	}
	if _, err := m.lookup(from); err != nil {
		return ToolCall{}, err
	}
	call.Name = toAdapter.SanitizeToolName(call.Name)
	return call, nil
}

// TranslateToolResult passes a tool result through unchanged: results
// carry no dialect-specific naming, only the call id they answer.
func (m *ProjectionMatrix) TranslateToolResult(from, to Dialect, result ToolResult) (ToolResult, error) {
	if _, err := m.lookup(from); err != nil {
		return ToolResult{}, err
	}
	if _, err := m.lookup(to); err != nil {
		return ToolResult{}, err
	}
	return result, nil
}

// MapToolDefinitions re-sanitizes every definition's name for the target dialect.
func (m *ProjectionMatrix) MapToolDefinitions(from, to Dialect, defs []ToolDefinition) ([]ToolDefinition, error) {
	toAdapter, err := m.lookup(to)
	if err != nil {
		return nil, err
	}
	if _, err := m.lookup(from); err != nil {
		return nil, err
	}
	out := make([]ToolDefinition, len(defs))
	for i, d := range defs {
		d.Name = toAdapter.SanitizeToolName(d.Name)
		out[i] = d
	}
	return out, nil
}

// CapabilityManifest returns the registered dialect's capability manifest.
func (m *ProjectionMatrix) CapabilityManifest(d Dialect) (contract.CapabilityManifest, error) {
	a, err := m.lookup(d)
	if err != nil {
		return nil, err
	}
	return a.CapabilityManifest(), nil
}
