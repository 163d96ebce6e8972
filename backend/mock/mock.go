// Package mock provides a deterministic, dependency-free Backend used for
// local development and tests. It emits a fixed event sequence and never
// calls out to a real vendor SDK.
package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/backend"
	"github.com/agent-backplane/abp/contract"
)

// Backend is a local-development backend with deterministic events.
type Backend struct{}

// New constructs a mock Backend.
func New() Backend { return Backend{} }

// Identity implements runtime.Backend.
func (Backend) Identity() contract.BackendIdentity {
	version := "0.1"
	return contract.BackendIdentity{ID: "mock", BackendVersion: &version, AdapterVersion: &version}
}

// Capabilities implements runtime.Backend.
func (Backend) Capabilities() contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m[contract.CapStreaming] = contract.NativeLevel()
	m[contract.CapToolRead] = contract.EmulatedLevel()
	m[contract.CapToolWrite] = contract.EmulatedLevel()
	m[contract.CapToolExec] = contract.EmulatedLevel()
	m[contract.CapStructuredOutput] = contract.EmulatedLevel()
	return m
}

// Run implements runtime.Backend: it streams a fixed, deterministic sequence
// of events and produces a Complete receipt with zeroed usage.
func (b Backend) Run(ctx context.Context, runID uuid.UUID, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	caps := b.Capabilities()
	if err := backend.EnsureCapabilityRequirements(wo.Requirements, caps); err != nil {
		return contract.Receipt{}, err
	}

	started := time.Now().UTC()
	var trace []contract.AgentEvent

	emit := func(kind contract.EventKind) {
		ev := contract.AgentEvent{Timestamp: time.Now().UTC(), Kind: kind}
		trace = append(trace, ev)
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	emit(contract.RunStarted{Message: "mock backend starting: " + wo.Task})
	emit(contract.AssistantMessage{Text: "This is a mock backend. It does not call any real SDK."})
	emit(contract.AssistantMessage{Text: "Use a real vendor backend once you have credentials configured."})
	emit(contract.RunCompleted{Message: "mock run complete"})

	finished := time.Now().UTC()
	zero := int64(0)
	cost := 0.0

	receipt := contract.Receipt{
		Meta: contract.RunMetadata{
			RunID:           runID,
			WorkOrderID:     wo.ID,
			ContractVersion: contract.ContractVersion,
			StartedAt:       started,
			FinishedAt:      finished,
			DurationMs:      finished.Sub(started).Milliseconds(),
		},
		Backend:      b.Identity(),
		Capabilities: caps,
		Mode:         backend.ExtractExecutionMode(wo),
		UsageRaw:     map[string]any{"note": "mock"},
		Usage: contract.UsageNormalized{
			InputTokens:      &zero,
			OutputTokens:     &zero,
			EstimatedCostUSD: &cost,
		},
		Trace:        trace,
		Verification: contract.VerificationReport{HarnessOK: true},
		Outcome:      contract.OutcomeComplete,
	}

	return contract.WithHash(receipt)
}
