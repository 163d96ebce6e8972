// Package capability negotiates a work order's capability requirements
// against a backend's capability manifest and produces a human-readable
// compatibility report.
package capability

import (
	"fmt"

	"github.com/agent-backplane/abp/contract"
)

// NegotiationResult partitions a requirement set into three buckets
// according to how well the manifest satisfies each one.
type NegotiationResult struct {
	Native      []contract.Capability
	Emulatable  []contract.Capability
	Unsupported []contract.Capability
}

// IsCompatible reports whether every requirement is native or emulatable.
func (r NegotiationResult) IsCompatible() bool { return len(r.Unsupported) == 0 }

// Total returns the number of capabilities evaluated.
func (r NegotiationResult) Total() int {
	return len(r.Native) + len(r.Emulatable) + len(r.Unsupported)
}

// Classification is check_capability's result for a single capability: the
// support level a requirement would receive, plus an emulation strategy
// description when the level is Emulated.
type Classification struct {
	Level    contract.SupportLevelKind
	Strategy string
}

// CheckCapability classifies a single capability against a manifest:
// Native maps to Native, Emulated/Restricted both map to Emulated (the
// latter carrying a "restricted: <reason>" strategy), and Unsupported or
// absent maps to Unsupported.
func CheckCapability(manifest contract.CapabilityManifest, c contract.Capability) Classification {
	entry, ok := manifest.Get(c)
	if !ok {
		return Classification{Level: contract.Unsupported}
	}
	switch entry.Level {
	case contract.Native:
		return Classification{Level: contract.Native}
	case contract.Emulated:
		return Classification{Level: contract.Emulated, Strategy: "adapter"}
	case contract.Restricted:
		return Classification{Level: contract.Emulated, Strategy: fmt.Sprintf("restricted: %s", entry.Reason)}
	default:
		return Classification{Level: contract.Unsupported}
	}
}

// Negotiate classifies every required capability against manifest and
// buckets it into native/emulatable/unsupported.
func Negotiate(manifest contract.CapabilityManifest, reqs contract.CapabilityRequirements) NegotiationResult {
	var result NegotiationResult
	for _, req := range reqs.Required {
		switch CheckCapability(manifest, req.Capability).Level {
		case contract.Native:
			result.Native = append(result.Native, req.Capability)
		case contract.Emulated:
			result.Emulatable = append(result.Emulatable, req.Capability)
		default:
			result.Unsupported = append(result.Unsupported, req.Capability)
		}
	}
	return result
}

// CompatibilityReport is a human-readable summary of a NegotiationResult.
type CompatibilityReport struct {
	Compatible        bool
	NativeCount       int
	EmulatedCount     int
	UnsupportedCount  int
	Summary           string
	Details           []CapabilityDetail
}

// CapabilityDetail names one capability's final classification in a report.
type CapabilityDetail struct {
	Capability contract.Capability
	Level      contract.SupportLevelKind
	Strategy   string
}

// GenerateReport produces a CompatibilityReport from a NegotiationResult.
func GenerateReport(result NegotiationResult) CompatibilityReport {
	compatible := result.IsCompatible()

	var details []CapabilityDetail
	for _, c := range result.Native {
		details = append(details, CapabilityDetail{Capability: c, Level: contract.Native})
	}
	for _, c := range result.Emulatable {
		details = append(details, CapabilityDetail{Capability: c, Level: contract.Emulated, Strategy: "adapter"})
	}
	for _, c := range result.Unsupported {
		details = append(details, CapabilityDetail{Capability: c, Level: contract.Unsupported})
	}

	verdict := "incompatible"
	if compatible {
		verdict = "fully compatible"
	}
	summary := fmt.Sprintf("%d native, %d emulatable, %d unsupported — %s",
		len(result.Native), len(result.Emulatable), len(result.Unsupported), verdict)

	return CompatibilityReport{
		Compatible:       compatible,
		NativeCount:      len(result.Native),
		EmulatedCount:    len(result.Emulatable),
		UnsupportedCount: len(result.Unsupported),
		Summary:          summary,
		Details:          details,
	}
}

// UnsatisfiedTriple names one requirement the selected backend cannot meet:
// the capability, the requested minimum, and what the backend actually offers.
type UnsatisfiedTriple struct {
	Capability    contract.Capability
	Requested     contract.MinSupport
	ActualLevel   contract.SupportLevelKind
}

// CheckRequirements reports every requirement not satisfied by manifest, for
// the runtime's pre-dispatch enforcement gate. An empty result means the
// work order may proceed against this backend.
func CheckRequirements(manifest contract.CapabilityManifest, reqs contract.CapabilityRequirements) []UnsatisfiedTriple {
	var unmet []UnsatisfiedTriple
	for _, req := range reqs.Required {
		entry, _ := manifest.Get(req.Capability)
		if !contract.Satisfies(entry.Level, req.MinSupport) {
			unmet = append(unmet, UnsatisfiedTriple{
				Capability:  req.Capability,
				Requested:   req.MinSupport,
				ActualLevel: entry.Level,
			})
		}
	}
	return unmet
}

// FormatUnsatisfied renders unmet requirements into the error message the
// runtime returns when rejecting a work order outright.
func FormatUnsatisfied(unmet []UnsatisfiedTriple) string {
	msg := "unsatisfied capability requirements:"
	for _, u := range unmet {
		msg += fmt.Sprintf(" (%s, requested=%s, actual=%s)", u.Capability, u.Requested, u.ActualLevel)
	}
	return msg
}
