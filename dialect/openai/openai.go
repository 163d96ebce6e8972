// Package openai adapts the OpenAI dialect (Chat Completions / Responses
// API) to the canonical projection matrix.
package openai

import (
	"regexp"
	"strings"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

const DefaultModel = "gpt-4.1"
const DialectVersion = "openai/v0.1"
const canonicalPrefix = "openai/"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.OpenAI }
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
		contract.CapHooks:            contract.UnsupportedLevel(),
		contract.CapSessionResume:    contract.EmulatedLevel(),
		contract.CapSessionFork:      contract.UnsupportedLevel(),
		contract.CapCheckpointing:    contract.UnsupportedLevel(),
		contract.CapStructuredOutput: contract.NativeLevel(),
		contract.CapMCPClient:        contract.EmulatedLevel(),
		contract.CapMCPServer:        contract.UnsupportedLevel(),
		contract.CapExtendedThinking: contract.EmulatedLevel(),
		contract.CapImageInput:       contract.NativeLevel(),
		contract.CapPDFInput:         contract.UnsupportedLevel(),
		contract.CapCodeExecution:    contract.NativeLevel(),
		contract.CapLogprobs:         contract.NativeLevel(),
		contract.CapSeedDeterminism:  contract.NativeLevel(),
		contract.CapStopSequences:    contract.NativeLevel(),
		contract.CapToolUseAskUser:   contract.UnsupportedLevel(),
	}
}

// OpenAI function names allow letters, digits, underscores, and hyphens, up
// to 64 characters.
var disallowedToolChar = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (*Adapter) SanitizeToolName(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	name = disallowedToolChar.ReplaceAllString(name, "_")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
