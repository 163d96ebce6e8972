package contract

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
)

// WorkOrderBuilder fluently assembles a WorkOrder with sensible defaults:
// a fresh id, the workspace_first lane, pass-through workspace mode, and an
// empty policy/requirements/config.
type WorkOrderBuilder struct {
	wo WorkOrder
}

// NewWorkOrderBuilder starts a builder for the given task description.
func NewWorkOrderBuilder(task string) *WorkOrderBuilder {
	return &WorkOrderBuilder{wo: WorkOrder{
		ID:   uuid.New(),
		Task: task,
		Lane: LaneWorkspaceFirst,
		Workspace: WorkspaceSpec{
			Mode: WorkspacePassThrough,
		},
	}}
}

func (b *WorkOrderBuilder) ID(id uuid.UUID) *WorkOrderBuilder { b.wo.ID = id; return b }

func (b *WorkOrderBuilder) Lane(l ExecutionLane) *WorkOrderBuilder { b.wo.Lane = l; return b }

func (b *WorkOrderBuilder) Workspace(w WorkspaceSpec) *WorkOrderBuilder { b.wo.Workspace = w; return b }

func (b *WorkOrderBuilder) Context(c ContextPacket) *WorkOrderBuilder { b.wo.Context = c; return b }

func (b *WorkOrderBuilder) Policy(p PolicyProfile) *WorkOrderBuilder { b.wo.Policy = p; return b }

func (b *WorkOrderBuilder) Requirements(r CapabilityRequirements) *WorkOrderBuilder {
	b.wo.Requirements = r
	return b
}

func (b *WorkOrderBuilder) Config(c RuntimeConfig) *WorkOrderBuilder { b.wo.Config = c; return b }

// Build returns the assembled WorkOrder.
func (b *WorkOrderBuilder) Build() WorkOrder { return b.wo }

// ValidateWorkOrder checks the invariants spec'd for WorkOrder: a non-empty
// task, max_turns >= 1 when present, max_budget_usd > 0 when present, and
// non-empty vendor keys.
func ValidateWorkOrder(w WorkOrder) error {
	if strings.TrimSpace(w.Task) == "" {
		return abperrors.New(abperrors.ConfigInvalid, "work order task must be non-empty")
	}
	if w.Config.MaxTurns != nil && *w.Config.MaxTurns < 1 {
		return abperrors.Newf(abperrors.ConfigInvalid, "max_turns must be >= 1, got %d", *w.Config.MaxTurns)
	}
	if w.Config.MaxBudgetUSD != nil && *w.Config.MaxBudgetUSD <= 0 {
		return abperrors.Newf(abperrors.ConfigInvalid, "max_budget_usd must be > 0, got %v", *w.Config.MaxBudgetUSD)
	}
	for k := range w.Config.Vendor {
		if strings.TrimSpace(k) == "" {
			return abperrors.New(abperrors.ConfigInvalid, "vendor keys must be non-empty strings")
		}
	}
	for k := range w.Config.Env {
		if strings.TrimSpace(k) == "" {
			return abperrors.New(abperrors.ConfigInvalid, "env override keys must be non-empty strings")
		}
	}
	return nil
}

// ValidationIssue is one problem found by ValidateReceipt.
type ValidationIssue struct {
	Kind   string
	Detail string
}

func (v ValidationIssue) String() string {
	if v.Detail == "" {
		return v.Kind
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// ValidateReceipt checks receipt-level invariants: non-empty backend id, the
// expected contract version, started_at <= finished_at, a consistent
// duration_ms, and — if a hash is present — that it matches the recomputed
// hash. It collects every violation rather than stopping at the first.
func ValidateReceipt(r Receipt) []ValidationIssue {
	var issues []ValidationIssue

	if strings.TrimSpace(r.Backend.ID) == "" {
		issues = append(issues, ValidationIssue{Kind: "EMPTY_BACKEND_ID"})
	}
	if r.Meta.ContractVersion != ContractVersion {
		issues = append(issues, ValidationIssue{
			Kind:   "INVALID_OUTCOME",
			Detail: fmt.Sprintf("contract_version %q does not match %q", r.Meta.ContractVersion, ContractVersion),
		})
	}
	if r.Meta.FinishedAt.Before(r.Meta.StartedAt) {
		issues = append(issues, ValidationIssue{
			Kind:   "INVALID_OUTCOME",
			Detail: "started_at is after finished_at",
		})
	} else {
		wantDuration := r.Meta.FinishedAt.Sub(r.Meta.StartedAt).Milliseconds()
		if wantDuration != r.Meta.DurationMs {
			issues = append(issues, ValidationIssue{
				Kind:   "INVALID_OUTCOME",
				Detail: fmt.Sprintf("duration_ms %d does not match started_at/finished_at delta %d", r.Meta.DurationMs, wantDuration),
			})
		}
	}
	if r.ReceiptSHA256 != nil {
		recomputed, err := ComputeHash(r)
		if err != nil || recomputed != *r.ReceiptSHA256 {
			issues = append(issues, ValidationIssue{
				Kind:   "INVALID_HASH",
				Detail: fmt.Sprintf("stored %q does not match recomputed hash", *r.ReceiptSHA256),
			})
		}
	}
	return issues
}
