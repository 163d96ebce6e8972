// Package claude adapts the Claude dialect (Anthropic's Messages API) to
// the canonical projection matrix: model-name mapping into the "anthropic/"
// canonical namespace, its capability manifest, and its tool-name
// constraints.
package claude

import (
	"regexp"
	"strings"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

// DefaultModel is used when a work order does not pin a specific model.
const DefaultModel = "claude-sonnet-4-20250514"

// DialectVersion identifies this adapter's revision for diagnostics.
const DialectVersion = "claude/v0.1"

const canonicalPrefix = "anthropic/"

// knownModels lists model identifiers this adapter recognises; unknown
// models still round-trip through the canonical namespace unchanged.
var knownModels = map[string]struct{}{
	"claude-sonnet-4-20250514":   {},
	"claude-opus-4-20250514":     {},
	"claude-haiku-3-5-20241022": {},
}

// IsKnownModel reports whether model is in this adapter's known model table.
func IsKnownModel(model string) bool {
	_, ok := knownModels[model]
	return ok
}

// Adapter implements dialect.Adapter for Claude.
type Adapter struct{}

// New returns a Claude dialect.Adapter.
func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.Claude }

func (*Adapter) DefaultModel() string { return DefaultModel }

// ModelToCanonical prefixes a vendor model name with the canonical
// "anthropic/" namespace.
func (*Adapter) ModelToCanonical(vendorModel string) string {
	return canonicalPrefix + vendorModel
}

// ModelFromCanonical strips the "anthropic/" namespace prefix, passing the
// input through unchanged when the prefix is absent.
func (*Adapter) ModelFromCanonical(canonicalModel string) string {
	return strings.TrimPrefix(canonicalModel, canonicalPrefix)
}

// CapabilityManifest declares Claude's native/emulated/unsupported features.
func (*Adapter) CapabilityManifest() contract.CapabilityManifest {
	return contract.CapabilityManifest{
		contract.CapStreaming:        contract.NativeLevel(),
		contract.CapToolRead:         contract.NativeLevel(),
		contract.CapToolWrite:        contract.NativeLevel(),
		contract.CapToolExec:         contract.NativeLevel(),
		contract.CapToolSearch:       contract.NativeLevel(),
		contract.CapHooks:            contract.NativeLevel(),
		contract.CapSessionResume:    contract.NativeLevel(),
		contract.CapSessionFork:      contract.EmulatedLevel(),
		contract.CapCheckpointing:    contract.EmulatedLevel(),
		contract.CapStructuredOutput: contract.NativeLevel(),
		contract.CapMCPClient:        contract.NativeLevel(),
		contract.CapMCPServer:        contract.UnsupportedLevel(),
		contract.CapExtendedThinking: contract.NativeLevel(),
		contract.CapImageInput:       contract.NativeLevel(),
		contract.CapPDFInput:         contract.NativeLevel(),
		contract.CapCodeExecution:    contract.EmulatedLevel(),
		contract.CapLogprobs:         contract.UnsupportedLevel(),
		contract.CapSeedDeterminism:  contract.UnsupportedLevel(),
		contract.CapStopSequences:    contract.NativeLevel(),
		contract.CapToolUseAskUser:   contract.EmulatedLevel(),
	}
}

var disallowedToolChar = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeToolName maps a canonical tool identifier to a Claude-compatible
// tool name: dots become underscores and any other disallowed rune is
// replaced with an underscore.
func (*Adapter) SanitizeToolName(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	return disallowedToolChar.ReplaceAllString(name, "_")
}
