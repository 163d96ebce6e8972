// Package codex adapts OpenAI Codex CLI's dialect to the canonical
// projection matrix.
package codex

import (
	"regexp"
	"strings"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

const DefaultModel = "codex-mini-latest"
const DialectVersion = "codex/v0.1"
const canonicalPrefix = "openai-codex/"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.Codex }
func (*Adapter) DefaultModel() string  { return DefaultModel }

func (*Adapter) ModelToCanonical(vendorModel string) string {
	return canonicalPrefix + vendorModel
}

func (*Adapter) ModelFromCanonical(canonicalModel string) string {
	return strings.TrimPrefix(canonicalModel, canonicalPrefix)
}

func (*Adapter) CapabilityManifest() contract.CapabilityManifest {
	return contract.CapabilityManifest{
		contract.CapStreaming:        contract.NativeLevel(),
		contract.CapToolRead:         contract.NativeLevel(),
		contract.CapToolWrite:        contract.NativeLevel(),
		contract.CapToolExec:         contract.NativeLevel(),
		contract.CapToolSearch:       contract.EmulatedLevel(),
		contract.CapHooks:            contract.EmulatedLevel(),
		contract.CapSessionResume:    contract.NativeLevel(),
		contract.CapSessionFork:      contract.UnsupportedLevel(),
		contract.CapCheckpointing:    contract.EmulatedLevel(),
		contract.CapStructuredOutput: contract.EmulatedLevel(),
		contract.CapMCPClient:        contract.UnsupportedLevel(),
		contract.CapMCPServer:        contract.UnsupportedLevel(),
		contract.CapExtendedThinking: contract.UnsupportedLevel(),
		contract.CapImageInput:       contract.UnsupportedLevel(),
		contract.CapPDFInput:         contract.UnsupportedLevel(),
		contract.CapCodeExecution:    contract.NativeLevel(),
		contract.CapLogprobs:         contract.UnsupportedLevel(),
		contract.CapSeedDeterminism:  contract.UnsupportedLevel(),
		contract.CapStopSequences:    contract.EmulatedLevel(),
		contract.CapToolUseAskUser:   contract.EmulatedLevel(),
	}
}

var disallowedToolChar = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (*Adapter) SanitizeToolName(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	return disallowedToolChar.ReplaceAllString(name, "_")
}
