// Package contract defines the canonical data model shared by every
// backplane component: work orders, capability negotiation types, policy
// profiles, the agent event tagged union, and the run receipt. It also
// provides canonical JSON serialization and receipt hashing so every
// component hashes and compares contract values the same way.
package contract

import (
	"time"

	"github.com/google/uuid"
)

// ContractVersion is the wire/contract version this module implements.
// Compatibility between peers is decided on the MAJOR component only.
const ContractVersion = "abp/v0.1"

// ExecutionLane names the broad strategy a work order asks the backend to use.
type ExecutionLane string

const (
	LanePatchFirst     ExecutionLane = "patch_first"
	LaneWorkspaceFirst ExecutionLane = "workspace_first"
	LaneReviewOnly     ExecutionLane = "review_only"
)

// WorkspaceMode selects how a backend's workspace is prepared.
type WorkspaceMode string

const (
	WorkspacePassThrough WorkspaceMode = "pass_through"
	WorkspaceStaged      WorkspaceMode = "staged"
)

// WorkspaceSpec describes where a run's files live and how they should be
// staged.
type WorkspaceSpec struct {
	Root    string        `json:"root"`
	Mode    WorkspaceMode `json:"mode"`
	Include []string      `json:"include"`
	Exclude []string      `json:"exclude"`
}

// ContextSnippet is a named, inline piece of context text.
type ContextSnippet struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ContextPacket bundles file references and inline snippets handed to a backend.
type ContextPacket struct {
	Files    []string         `json:"files"`
	Snippets []ContextSnippet `json:"snippets"`
}

// PolicyProfile is a declarative set of tool and path access rules.
type PolicyProfile struct {
	AllowedTools        []string `json:"allowed_tools"`
	DisallowedTools     []string `json:"disallowed_tools"`
	DenyRead            []string `json:"deny_read"`
	DenyWrite           []string `json:"deny_write"`
	AllowNetwork        []string `json:"allow_network"`
	DenyNetwork         []string `json:"deny_network"`
	RequireApprovalFor  []string `json:"require_approval_for"`
}

// Capability is a closed enumeration of backend features the negotiation
// engine and policy/runtime reason about.
type Capability string

const (
	CapStreaming          Capability = "streaming"
	CapToolRead           Capability = "tool_read"
	CapToolWrite          Capability = "tool_write"
	CapToolExec           Capability = "tool_exec"
	CapToolSearch         Capability = "tool_search"
	CapHooks              Capability = "hooks"
	CapSessionResume      Capability = "session_resume"
	CapSessionFork        Capability = "session_fork"
	CapCheckpointing      Capability = "checkpointing"
	CapStructuredOutput   Capability = "structured_output"
	CapMCPClient          Capability = "mcp_client"
	CapMCPServer          Capability = "mcp_server"
	CapExtendedThinking   Capability = "extended_thinking"
	CapImageInput         Capability = "image_input"
	CapPDFInput           Capability = "pdf_input"
	CapCodeExecution      Capability = "code_execution"
	CapLogprobs           Capability = "logprobs"
	CapSeedDeterminism    Capability = "seed_determinism"
	CapStopSequences      Capability = "stop_sequences"
	CapToolUseAskUser     Capability = "tool_use_ask_user"
)

// SupportLevel ranks how well a backend supports a capability in the total
// order Unsupported < Restricted < Emulated < Native. The zero value has an
// empty Level, which is none of the four kinds and ranks below Unsupported.
type SupportLevel struct {
	Level  SupportLevelKind `json:"level"`
	Reason string           `json:"reason,omitempty"`
}

// SupportLevelKind is the discriminant of SupportLevel.
type SupportLevelKind string

const (
	Unsupported SupportLevelKind = "unsupported"
	Restricted  SupportLevelKind = "restricted"
	Emulated    SupportLevelKind = "emulated"
	Native      SupportLevelKind = "native"
)

// rank returns the total-order position of a SupportLevelKind.
func (k SupportLevelKind) rank() int {
	switch k {
	case Unsupported:
		return 0
	case Restricted:
		return 1
	case Emulated:
		return 2
	case Native:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether k is ranked at or above other in the total order
// Unsupported < Restricted < Emulated < Native.
func (k SupportLevelKind) AtLeast(other SupportLevelKind) bool {
	return k.rank() >= other.rank()
}

// NativeLevel constructs a Native SupportLevel.
func NativeLevel() SupportLevel { return SupportLevel{Level: Native} }

// EmulatedLevel constructs an Emulated SupportLevel.
func EmulatedLevel() SupportLevel { return SupportLevel{Level: Emulated} }

// RestrictedLevel constructs a Restricted SupportLevel with a reason.
func RestrictedLevel(reason string) SupportLevel {
	return SupportLevel{Level: Restricted, Reason: reason}
}

// UnsupportedLevel constructs an Unsupported SupportLevel.
func UnsupportedLevel() SupportLevel { return SupportLevel{Level: Unsupported} }

// MinSupport is the minimum support level a requirement accepts: Native or
// Emulated (Restricted/Unsupported can never satisfy a requirement).
type MinSupport string

const (
	MinNative   MinSupport = "native"
	MinEmulated MinSupport = "emulated"
)

// Satisfies reports whether level L satisfies a requirement of minimum M.
func Satisfies(level SupportLevelKind, min MinSupport) bool {
	switch min {
	case MinNative:
		return level.AtLeast(Native)
	case MinEmulated:
		return level.AtLeast(Emulated)
	default:
		return false
	}
}

// CapabilityManifest maps a Capability to the SupportLevel a backend
// advertises for it.
type CapabilityManifest map[Capability]SupportLevel

// NewCapabilityManifest returns an empty manifest.
func NewCapabilityManifest() CapabilityManifest { return CapabilityManifest{} }

// Get returns the manifest entry for c, and whether it was present.
func (m CapabilityManifest) Get(c Capability) (SupportLevel, bool) {
	lvl, ok := m[c]
	return lvl, ok
}

// CapabilityRequirement pairs a Capability with the minimum support level
// a work order requires from the backend.
type CapabilityRequirement struct {
	Capability Capability `json:"capability"`
	MinSupport MinSupport `json:"min_support"`
}

// CapabilityRequirements is the ordered list of requirements a work order
// declares.
type CapabilityRequirements struct {
	Required []CapabilityRequirement `json:"required"`
}

// RuntimeConfig carries optional per-run tuning and vendor passthrough data.
type RuntimeConfig struct {
	Model         *string           `json:"model,omitempty"`
	Vendor        map[string]any    `json:"vendor,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	MaxBudgetUSD  *float64          `json:"max_budget_usd,omitempty"`
	MaxTurns      *int              `json:"max_turns,omitempty"`
}

// WorkOrder is an immutable description of one task to run against a backend.
type WorkOrder struct {
	ID           uuid.UUID              `json:"id"`
	Task         string                 `json:"task"`
	Lane         ExecutionLane          `json:"lane"`
	Workspace    WorkspaceSpec          `json:"workspace"`
	Context      ContextPacket          `json:"context"`
	Policy       PolicyProfile          `json:"policy"`
	Requirements CapabilityRequirements `json:"requirements"`
	Config       RuntimeConfig          `json:"config"`
}

// ExecutionMode selects how the runtime relates to a backend's native
// request/response shape.
type ExecutionMode string

const (
	ModeMapped      ExecutionMode = "mapped"
	ModePassthrough ExecutionMode = "passthrough"
)

// Outcome is the terminal status of a run.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeFailed   Outcome = "failed"
)

// BackendIdentity names the backend that executed a run.
type BackendIdentity struct {
	ID             string  `json:"id"`
	BackendVersion *string `json:"backend_version,omitempty"`
	AdapterVersion *string `json:"adapter_version,omitempty"`
}

// UsageNormalized is the cross-vendor usage accounting for a run.
type UsageNormalized struct {
	InputTokens      *int64   `json:"input_tokens,omitempty"`
	OutputTokens     *int64   `json:"output_tokens,omitempty"`
	CacheReadTokens  *int64   `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens *int64   `json:"cache_write_tokens,omitempty"`
	RequestUnits     *int64   `json:"request_units,omitempty"`
	EstimatedCostUSD *float64 `json:"estimated_cost_usd,omitempty"`
}

// ArtifactRef points at a named artifact produced by a run.
type ArtifactRef struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// VerificationReport captures post-run evidence that changes actually happened.
type VerificationReport struct {
	GitDiff   *string `json:"git_diff,omitempty"`
	GitStatus *string `json:"git_status,omitempty"`
	HarnessOK bool    `json:"harness_ok"`
}

// RunMetadata identifies and times a single run.
type RunMetadata struct {
	RunID           uuid.UUID `json:"run_id"`
	WorkOrderID     uuid.UUID `json:"work_order_id"`
	ContractVersion string    `json:"contract_version"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationMs      int64     `json:"duration_ms"`
}

// Receipt is the final artifact of a run.
type Receipt struct {
	Meta           RunMetadata         `json:"meta"`
	Backend        BackendIdentity     `json:"backend"`
	Capabilities   CapabilityManifest  `json:"capabilities"`
	Mode           ExecutionMode       `json:"mode"`
	UsageRaw       any                 `json:"usage_raw"`
	Usage          UsageNormalized     `json:"usage"`
	Trace          []AgentEvent        `json:"trace"`
	Artifacts      []ArtifactRef       `json:"artifacts"`
	Verification   VerificationReport  `json:"verification"`
	Outcome        Outcome             `json:"outcome"`
	ReceiptSHA256  *string             `json:"receipt_sha256"`
}
