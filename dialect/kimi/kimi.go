// Package kimi adapts Moonshot AI's Kimi dialect to the canonical
// projection matrix.
package kimi

import (
	"regexp"
	"strings"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

const DefaultModel = "kimi-k2"
const DialectVersion = "kimi/v0.1"
const canonicalPrefix = "moonshot/"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.Kimi }
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
		contract.CapToolSearch:       contract.EmulatedLevel(),
		contract.CapHooks:            contract.UnsupportedLevel(),
		contract.CapSessionResume:    contract.UnsupportedLevel(),
		contract.CapSessionFork:      contract.UnsupportedLevel(),
		contract.CapCheckpointing:    contract.UnsupportedLevel(),
		contract.CapStructuredOutput: contract.NativeLevel(),
		contract.CapMCPClient:        contract.UnsupportedLevel(),
		contract.CapMCPServer:        contract.UnsupportedLevel(),
		contract.CapExtendedThinking: contract.EmulatedLevel(),
		contract.CapImageInput:       contract.UnsupportedLevel(),
		contract.CapPDFInput:         contract.UnsupportedLevel(),
		contract.CapCodeExecution:    contract.UnsupportedLevel(),
		contract.CapLogprobs:         contract.UnsupportedLevel(),
		contract.CapSeedDeterminism:  contract.UnsupportedLevel(),
		contract.CapStopSequences:    contract.NativeLevel(),
		contract.CapToolUseAskUser:   contract.UnsupportedLevel(),
	}
}

var disallowedToolChar = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (*Adapter) SanitizeToolName(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	return disallowedToolChar.ReplaceAllString(name, "_")
}
