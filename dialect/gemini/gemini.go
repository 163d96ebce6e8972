// Package gemini adapts Google's Gemini dialect to the canonical
// projection matrix.
package gemini

import (
	"regexp"
	"strings"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

const DefaultModel = "gemini-2.0-flash"
const DialectVersion = "gemini/v0.1"
const canonicalPrefix = "google/"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.Gemini }
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
		contract.CapToolExec:         contract.EmulatedLevel(),
		contract.CapToolSearch:       contract.NativeLevel(),
		contract.CapHooks:            contract.UnsupportedLevel(),
		contract.CapSessionResume:    contract.EmulatedLevel(),
		contract.CapSessionFork:      contract.UnsupportedLevel(),
		contract.CapCheckpointing:    contract.UnsupportedLevel(),
		contract.CapStructuredOutput: contract.NativeLevel(),
		contract.CapMCPClient:        contract.UnsupportedLevel(),
		contract.CapMCPServer:        contract.UnsupportedLevel(),
		contract.CapExtendedThinking: contract.NativeLevel(),
		contract.CapImageInput:       contract.NativeLevel(),
		contract.CapPDFInput:         contract.NativeLevel(),
		contract.CapCodeExecution:    contract.NativeLevel(),
		contract.CapLogprobs:         contract.UnsupportedLevel(),
		contract.CapSeedDeterminism:  contract.NativeLevel(),
		contract.CapStopSequences:    contract.NativeLevel(),
		contract.CapToolUseAskUser:   contract.UnsupportedLevel(),
	}
}

// Gemini function names allow letters, digits, underscores, dots, and
// dashes, up to 64 characters; dots are left as-is here since Gemini
// tolerates them, unlike Claude/OpenAI.
var disallowedToolChar = regexp.MustCompile(`[^a-zA-Z0-9_.\-]`)

func (*Adapter) SanitizeToolName(name string) string {
	name = disallowedToolChar.ReplaceAllString(name, "_")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
