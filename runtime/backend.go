// Package runtime is the orchestration layer: it prepares a work order's
// workspace, runs it against a registered Backend while multiplexing the
// backend's events to callers, and produces a hashed Receipt. It also
// provides the supporting machinery a runtime needs — an event bus,
// a kind-based event router, a work-order processing pipeline,
// cooperative cancellation, run metrics, and a file-based receipt store.
package runtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/contract"
)

// Backend is anything capable of executing a work order and streaming
// AgentEvents as it goes, finally producing a Receipt. Implementations may
// run in-process (see the backend package) or proxy to an out-of-process
// sidecar.
type Backend interface {
	Identity() contract.BackendIdentity
	Capabilities() contract.CapabilityManifest
	Run(ctx context.Context, runID uuid.UUID, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error)
}
