// Package backend collects in-process Backend implementations: a
// deterministic mock used for local development and tests, and thin
// adapters over real vendor SDKs (Anthropic Messages, OpenAI Chat
// Completions, AWS Bedrock Converse). Each implements runtime.Backend
// directly, so the runtime can drive them exactly like an out-of-process
// sidecar without any protocol framing in between.
package backend

import (
	"fmt"
	"strings"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// EnsureCapabilityRequirements checks every requirement in requirements
// against capabilities and returns an error naming every unsatisfied one,
// or nil if all are satisfied.
func EnsureCapabilityRequirements(requirements contract.CapabilityRequirements, capabilities contract.CapabilityManifest) error {
	var unsatisfied []string
	for _, req := range requirements.Required {
		level, ok := capabilities.Get(req.Capability)
		if !ok || !contract.Satisfies(level.Level, req.MinSupport) {
			actual := "missing"
			if ok {
				actual = string(level.Level)
			}
			unsatisfied = append(unsatisfied, fmt.Sprintf("%s requires %s, backend has %s", req.Capability, req.MinSupport, actual))
		}
	}
	if len(unsatisfied) == 0 {
		return nil
	}
	return abperrors.Newf(abperrors.CapabilityUnsupported, "unsatisfied requirements: %s", strings.Join(unsatisfied, "; "))
}

// ExtractExecutionMode reads config.vendor["abp"]["mode"] (or the flattened
// "abp.mode" key) from a work order's RuntimeConfig, defaulting to
// ModeMapped when the value is absent, empty, or not a string. Any other
// non-empty string is returned as-is, without checking it names a known mode.
func ExtractExecutionMode(wo contract.WorkOrder) contract.ExecutionMode {
	if nested, ok := wo.Config.Vendor["abp"].(map[string]any); ok {
		if mode, ok := nested["mode"].(string); ok && mode != "" {
			return contract.ExecutionMode(mode)
		}
	}
	if mode, ok := wo.Config.Vendor["abp.mode"].(string); ok && mode != "" {
		return contract.ExecutionMode(mode)
	}
	return contract.ModeMapped
}
