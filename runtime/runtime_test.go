package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/runtime"
	"github.com/agent-backplane/abp/telemetry"
)

// scriptedBackend emits a fixed sequence of events then either returns a
// receipt or an error, depending on failReceipt.
type scriptedBackend struct {
	name        string
	events      []contract.AgentEvent
	failReceipt bool
}

func (b *scriptedBackend) Identity() contract.BackendIdentity {
	return contract.BackendIdentity{ID: b.name}
}

func (b *scriptedBackend) Capabilities() contract.CapabilityManifest {
	return contract.NewCapabilityManifest()
}

func (b *scriptedBackend) Run(ctx context.Context, runID uuid.UUID, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	for _, ev := range b.events {
		select {
		case events <- ev:
		case <-ctx.Done():
			return contract.Receipt{}, ctx.Err()
		}
	}
	if b.failReceipt {
		return contract.Receipt{}, assertErr
	}
	return contract.Receipt{
		Meta: contract.RunMetadata{
			RunID:           runID,
			WorkOrderID:     wo.ID,
			ContractVersion: contract.ContractVersion,
			StartedAt:       time.Now().UTC(),
			FinishedAt:      time.Now().UTC(),
		},
		Backend: b.Identity(),
		Outcome: contract.OutcomeComplete,
	}, nil
}

var assertErr = assertError("backend crashed")

type assertError string

func (e assertError) Error() string { return string(e) }

func newPassThroughWorkOrder(t *testing.T, task string) contract.WorkOrder {
	t.Helper()
	return contract.NewWorkOrderBuilder(task).
		Workspace(contract.WorkspaceSpec{Mode: contract.WorkspacePassThrough, Root: t.TempDir()}).
		Build()
}

func TestRunStreamingSucceedsAndHashesReceipt(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("mock", &scriptedBackend{
		name: "mock",
		events: []contract.AgentEvent{
			{Kind: contract.RunStarted{Message: "go"}},
			{Kind: contract.RunCompleted{Message: "done"}},
		},
	})

	handle, err := rt.RunStreaming(context.Background(), "mock", newPassThroughWorkOrder(t, "demo task"), noCancellation())
	require.NoError(t, err)

	var seen []contract.AgentEvent
	for ev := range handle.Events {
		seen = append(seen, ev)
	}

	result := <-handle.Receipt
	require.NoError(t, result.Err)
	assert.Len(t, seen, 2)
	assert.Equal(t, contract.OutcomeComplete, result.Receipt.Outcome)
	assert.NotNil(t, result.Receipt.ReceiptSHA256)
	assert.True(t, contract.VerifyHash(result.Receipt))
	assert.Equal(t, handle.RunID, result.Receipt.Meta.RunID)

	negotiation, ok := result.Receipt.UsageRaw.(map[string]any)["capability_negotiation"]
	require.True(t, ok)
	assert.NotNil(t, negotiation)
}

func TestRunStreamingUnknownBackendErrors(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	_, err := rt.RunStreaming(context.Background(), "does-not-exist", newPassThroughWorkOrder(t, "task"), noCancellation())
	assert.Error(t, err)
}

func TestRunStreamingSynthesizesFailedReceiptOnBackendError(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("flaky", &scriptedBackend{name: "flaky", failReceipt: true})

	handle, err := rt.RunStreaming(context.Background(), "flaky", newPassThroughWorkOrder(t, "will fail"), noCancellation())
	require.NoError(t, err)

	for range handle.Events {
	}
	result := <-handle.Receipt
	require.NoError(t, result.Err)
	assert.Equal(t, contract.OutcomeFailed, result.Receipt.Outcome)
	assert.Equal(t, "flaky", result.Receipt.Backend.ID)
	assert.NotNil(t, result.Receipt.ReceiptSHA256)
}

func TestRunStreamingAttachesObservedTraceWhenBackendOmitsIt(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("mock", &scriptedBackend{
		name: "mock",
		events: []contract.AgentEvent{
			{Kind: contract.AssistantMessage{Text: "hi"}},
		},
	})

	handle, err := rt.RunStreaming(context.Background(), "mock", newPassThroughWorkOrder(t, "demo"), noCancellation())
	require.NoError(t, err)

	for range handle.Events {
	}
	result := <-handle.Receipt
	require.NoError(t, result.Err)
	require.Len(t, result.Receipt.Trace, 1)
	_, ok := result.Receipt.Trace[0].Kind.(contract.AssistantMessage)
	assert.True(t, ok)
}

func TestRunMetricsAcrossMultipleRuns(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("mock", &scriptedBackend{name: "mock"})
	rt.RegisterBackend("flaky", &scriptedBackend{name: "flaky", failReceipt: true})

	for _, backend := range []string{"mock", "mock", "flaky"} {
		handle, err := rt.RunStreaming(context.Background(), backend, newPassThroughWorkOrder(t, "task"), noCancellation())
		require.NoError(t, err)
		for range handle.Events {
		}
		result := <-handle.Receipt
		require.NoError(t, result.Err)
	}

	snap := rt.Metrics().Snapshot()
	assert.Equal(t, uint64(3), snap.TotalRuns)
	assert.Equal(t, uint64(2), snap.SuccessfulRuns)
	assert.Equal(t, uint64(1), snap.FailedRuns)
	assert.GreaterOrEqual(t, snap.AverageRunDurationMS, uint64(0))
}

func TestRunStreamingRejectsWorkOrderWithUnsatisfiedCapabilityRequirement(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("mock", &scriptedBackend{name: "mock"})

	wo := contract.NewWorkOrderBuilder("needs a capability the backend lacks").
		Workspace(contract.WorkspaceSpec{Mode: contract.WorkspacePassThrough, Root: t.TempDir()}).
		Requirements(contract.CapabilityRequirements{Required: []contract.CapabilityRequirement{
			{Capability: contract.CapToolExec, MinSupport: contract.MinNative},
		}}).
		Build()

	_, err := rt.RunStreaming(context.Background(), "mock", wo, noCancellation())
	require.Error(t, err)

	snap := rt.Metrics().Snapshot()
	assert.Equal(t, uint64(0), snap.TotalRuns)
}

func TestRunStreamingForcesFailedReceiptOnCancellation(t *testing.T) {
	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("slow", &blockingBackend{})

	run := runtime.NewCancellableRun(runtime.NewCancellationToken())
	handle, err := rt.RunStreaming(context.Background(), "slow", newPassThroughWorkOrder(t, "never finishes"), run)
	require.NoError(t, err)

	run.Cancel(runtime.CancelUserRequested)

	for range handle.Events {
	}
	result := <-handle.Receipt
	require.NoError(t, result.Err)
	assert.Equal(t, contract.OutcomeFailed, result.Receipt.Outcome)
	assert.False(t, result.Receipt.Verification.HarnessOK)
}

func TestBackendNamesSorted(t *testing.T) {
	rt := runtime.NewRuntime(nil)
	rt.RegisterBackend("zeta", &scriptedBackend{name: "zeta"})
	rt.RegisterBackend("alpha", &scriptedBackend{name: "alpha"})

	assert.Equal(t, []string{"alpha", "zeta"}, rt.BackendNames())
}

// noCancellation returns a CancellableRun for call sites that have no need
// to cancel the run they start.
func noCancellation() runtime.CancellableRun {
	return runtime.NewCancellableRun(runtime.NewCancellationToken())
}

// blockingBackend blocks on ctx.Done() so tests can exercise cancellation
// deterministically instead of racing a real run to completion.
type blockingBackend struct{}

func (b *blockingBackend) Identity() contract.BackendIdentity {
	return contract.BackendIdentity{ID: "slow"}
}

func (b *blockingBackend) Capabilities() contract.CapabilityManifest {
	return contract.NewCapabilityManifest()
}

func (b *blockingBackend) Run(ctx context.Context, runID uuid.UUID, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	<-ctx.Done()
	return contract.Receipt{}, ctx.Err()
}
