package dialect

import "github.com/agent-backplane/abp/contract"

// CanonicalAdapter implements Adapter for the "abp" canonical dialect
// itself: an identity projection with every capability declared native,
// since the canonical IR has no vendor-specific restrictions of its own.
type CanonicalAdapter struct{}

// NewCanonicalAdapter returns the canonical dialect's Adapter.
func NewCanonicalAdapter() *CanonicalAdapter { return &CanonicalAdapter{} }

func (*CanonicalAdapter) Name() Dialect { return Abp }

func (*CanonicalAdapter) DefaultModel() string { return "" }

func (*CanonicalAdapter) ModelToCanonical(vendorModel string) string { return vendorModel }

func (*CanonicalAdapter) ModelFromCanonical(canonicalModel string) string { return canonicalModel }

func (*CanonicalAdapter) CapabilityManifest() contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	for _, cap := range []contract.Capability{
		contract.CapStreaming, contract.CapToolRead, contract.CapToolWrite,
		contract.CapToolExec, contract.CapToolSearch, contract.CapHooks,
		contract.CapSessionResume, contract.CapSessionFork, contract.CapCheckpointing,
		contract.CapStructuredOutput, contract.CapMCPClient, contract.CapMCPServer,
		contract.CapExtendedThinking, contract.CapImageInput, contract.CapPDFInput,
		contract.CapCodeExecution, contract.CapLogprobs, contract.CapSeedDeterminism,
		contract.CapStopSequences, contract.CapToolUseAskUser,
	} {
		m[cap] = contract.NativeLevel()
	}
	return m
}

func (*CanonicalAdapter) SanitizeToolName(name string) string { return name }
