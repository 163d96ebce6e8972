// Package mock is the identity dialect: it round-trips canonical model
// names and tool names unchanged, and declares every capability native.
// It exists so the in-process mock backend has a well-defined dialect and
// so round-trip projection tests have a trivial self-pair beyond "abp".
package mock

import (
	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/dialect"
)

const DefaultModel = "mock-1"
const DialectVersion = "mock/v0.1"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() dialect.Dialect { return dialect.Mock }
func (*Adapter) DefaultModel() string  { return DefaultModel }

func (*Adapter) ModelToCanonical(vendorModel string) string   { return vendorModel }
func (*Adapter) ModelFromCanonical(canonicalModel string) string { return canonicalModel }

func (*Adapter) CapabilityManifest() contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	for _, cap := range allCapabilities {
		m[cap] = contract.NativeLevel()
	}
	return m
}

func (*Adapter) SanitizeToolName(name string) string { return name }

var allCapabilities = []contract.Capability{
	contract.CapStreaming, contract.CapToolRead, contract.CapToolWrite,
	contract.CapToolExec, contract.CapToolSearch, contract.CapHooks,
	contract.CapSessionResume, contract.CapSessionFork, contract.CapCheckpointing,
	contract.CapStructuredOutput, contract.CapMCPClient, contract.CapMCPServer,
	contract.CapExtendedThinking, contract.CapImageInput, contract.CapPDFInput,
	contract.CapCodeExecution, contract.CapLogprobs, contract.CapSeedDeterminism,
	contract.CapStopSequences, contract.CapToolUseAskUser,
}
