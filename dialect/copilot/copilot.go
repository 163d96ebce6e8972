// Package copilot adapts GitHub Copilot's agent dialect to the canonical
// projection matrix.
package copilot

import (
	"regexp"
	"strings"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

const DefaultModel = "gpt-4o-copilot"
const DialectVersion = "copilot/v0.1"
const canonicalPrefix = "github-copilot/"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.Copilot }
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
		contract.CapSessionResume:    contract.UnsupportedLevel(),
		contract.CapSessionFork:      contract.UnsupportedLevel(),
		contract.CapCheckpointing:    contract.UnsupportedLevel(),
		contract.CapStructuredOutput: contract.EmulatedLevel(),
		contract.CapMCPClient:        contract.EmulatedLevel(),
		contract.CapMCPServer:        contract.UnsupportedLevel(),
		contract.CapExtendedThinking: contract.UnsupportedLevel(),
		contract.CapImageInput:       contract.NativeLevel(),
		contract.CapPDFInput:         contract.UnsupportedLevel(),
		contract.CapCodeExecution:    contract.EmulatedLevel(),
		contract.CapLogprobs:         contract.UnsupportedLevel(),
		contract.CapSeedDeterminism:  contract.UnsupportedLevel(),
		contract.CapStopSequences:    contract.EmulatedLevel(),
		contract.CapToolUseAskUser:   contract.UnsupportedLevel(),
	}
}

var disallowedToolChar = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (*Adapter) SanitizeToolName(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	return disallowedToolChar.ReplaceAllString(name, "_")
}
