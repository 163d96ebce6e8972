package runtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/capability"
	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/policy"
	"github.com/agent-backplane/abp/telemetry"
	"github.com/agent-backplane/abp/workspace"
)

const backendEventBuffer = 256

// Runtime holds a registry of named Backends and orchestrates runs against
// them: preparing the work order's workspace, streaming events while the
// backend executes, and producing a hashed Receipt.
type Runtime struct {
	mu       sync.RWMutex
	backends map[string]Backend
	logger   telemetry.Logger
	metrics  *RunMetrics
}

// NewRuntime constructs a Runtime with no registered backends.
func NewRuntime(logger telemetry.Logger) *Runtime {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Runtime{backends: make(map[string]Backend), logger: logger, metrics: NewRunMetrics()}
}

// RegisterBackend adds or replaces the backend registered under name.
func (rt *Runtime) RegisterBackend(name string, backend Backend) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.backends[name] = backend
}

// BackendNames returns the names of every registered backend, sorted.
func (rt *Runtime) BackendNames() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	names := make([]string, 0, len(rt.backends))
	for name := range rt.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Backend returns the backend registered under name, if any.
func (rt *Runtime) Backend(name string) (Backend, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	b, ok := rt.backends[name]
	return b, ok
}

// Metrics returns the runtime's run-level metrics collector, updated once
// per completed run by drive.
func (rt *Runtime) Metrics() *RunMetrics { return rt.metrics }

// RunHandle is returned by RunStreaming: Events delivers AgentEvents as the
// backend produces them, and Receipt resolves once the run has finished
// (successfully or not) with the final Receipt or an error.
type RunHandle struct {
	RunID   uuid.UUID
	Events  <-chan contract.AgentEvent
	Receipt <-chan ReceiptOrError
}

// ReceiptOrError carries RunStreaming's terminal result on a one-shot channel.
type ReceiptOrError struct {
	Receipt contract.Receipt
	Err     error
}

// RunStreaming starts work order wo against the backend registered under
// backendName, cancellable via run. It performs every synchronous setup
// step first — unknown-backend lookup, capability negotiation, policy
// compilation, workspace preparation — and returns an error immediately if
// any of them fails, before any run is recorded in metrics. Once setup
// succeeds it returns a RunHandle; the run itself proceeds on a background
// goroutine that invokes the backend, multiplexes its events through to the
// caller, and produces a hashed Receipt. Cancelling run mid-flight forces
// the receipt to outcome failed with verification.harness_ok false.
func (rt *Runtime) RunStreaming(ctx context.Context, backendName string, wo contract.WorkOrder, run CancellableRun) (*RunHandle, error) {
	backend, ok := rt.Backend(backendName)
	if !ok {
		return nil, abperrors.Newf(abperrors.BackendNotFound, "unknown backend: %s", backendName)
	}

	manifest := backend.Capabilities()
	if unmet := capability.CheckRequirements(manifest, wo.Requirements); len(unmet) > 0 {
		rt.logger.Warn(ctx, "runtime: rejecting work order, unsatisfied capability requirements",
			"backend", backendName, "unmet", capability.FormatUnsatisfied(unmet))
		return nil, abperrors.New(abperrors.CapabilityUnsupported, capability.FormatUnsatisfied(unmet))
	}
	negotiation := capability.Negotiate(manifest, wo.Requirements)

	if _, err := policy.NewEngine(wo.Policy); err != nil {
		return nil, err
	}

	prepared, err := workspace.NewManager().Prepare(wo.Workspace)
	if err != nil {
		return nil, abperrors.Wrap(abperrors.WorkspaceInitFailed, "preparing workspace", err)
	}

	runID := uuid.New()
	fromBackend := make(chan contract.AgentEvent, backendEventBuffer)
	toCaller := make(chan contract.AgentEvent, backendEventBuffer)
	receiptCh := make(chan ReceiptOrError, 1)

	go rt.drive(ctx, backend, runID, wo, prepared, negotiation, run, fromBackend, toCaller, receiptCh)

	return &RunHandle{RunID: runID, Events: toCaller, Receipt: receiptCh}, nil
}

func (rt *Runtime) drive(
	ctx context.Context,
	backend Backend,
	runID uuid.UUID,
	wo contract.WorkOrder,
	prepared *workspace.Prepared,
	negotiation capability.NegotiationResult,
	run CancellableRun,
	fromBackend chan contract.AgentEvent,
	toCaller chan<- contract.AgentEvent,
	receiptCh chan<- ReceiptOrError,
) {
	defer close(toCaller)
	defer close(receiptCh)
	defer prepared.Cleanup()

	startedAt := time.Now().UTC()

	preparedWO := wo
	preparedWO.Workspace.Root = prepared.Path()

	rt.logger.Debug(ctx, "runtime: starting run", "backend", backend.Identity().ID, "run_id", runID.String())

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		select {
		case <-run.Token().Cancelled():
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	backendDone := make(chan backendResult, 1)
	go func() {
		receipt, err := backend.Run(runCtx, runID, preparedWO, fromBackend)
		backendDone <- backendResult{receipt: receipt, err: err}
		close(fromBackend)
	}()

	var trace []contract.AgentEvent
	var result backendResult
	var eventCount uint64
	resultReceived := false
	cancelled := false

	for !resultReceived {
		select {
		case ev, ok := <-fromBackend:
			if !ok {
				fromBackend = nil
				continue
			}
			trace = append(trace, ev)
			eventCount++
			select {
			case toCaller <- ev:
			case <-ctx.Done():
			}
		case <-run.Token().Cancelled():
			cancelled = true
		case result = <-backendDone:
			resultReceived = true
		}
	}

	// Drain any events the backend enqueued before returning.
	for ev := range fromBackend {
		trace = append(trace, ev)
		eventCount++
		select {
		case toCaller <- ev:
		case <-ctx.Done():
		}
	}

	finishedAt := time.Now().UTC()

	var receipt contract.Receipt
	switch {
	case cancelled:
		reason, _ := run.Reason()
		receipt = cancelledReceipt(runID, wo.ID, backend, startedAt, finishedAt, reason)
	case result.err != nil:
		receipt = crashedReceipt(runID, wo.ID, backend, startedAt, finishedAt)
	default:
		receipt = result.receipt
	}
	if len(receipt.Trace) == 0 {
		receipt.Trace = trace
	}
	if receipt.Verification.GitDiff == nil {
		if diff, ok := workspace.GitDiff(prepared.Path()); ok {
			receipt.Verification.GitDiff = &diff
		}
	}
	if receipt.Verification.GitStatus == nil {
		if status, ok := workspace.GitStatus(prepared.Path()); ok {
			receipt.Verification.GitStatus = &status
		}
	}
	receipt.UsageRaw = withCapabilityNegotiation(receipt.UsageRaw, negotiation)

	rt.metrics.RecordRun(uint64(finishedAt.Sub(startedAt).Milliseconds()), receipt.Outcome == contract.OutcomeComplete, eventCount)

	hashed, err := contract.WithHash(receipt)
	if err != nil {
		receiptCh <- ReceiptOrError{Err: abperrors.Wrap(abperrors.Internal, "hashing receipt", err)}
		return
	}

	receiptCh <- ReceiptOrError{Receipt: hashed}
}

type backendResult struct {
	receipt contract.Receipt
	err     error
}

// capabilityNegotiationRecord is the serializable form of a
// capability.NegotiationResult stashed under usage_raw.capability_negotiation.
type capabilityNegotiationRecord struct {
	Native      []contract.Capability `json:"native"`
	Emulatable  []contract.Capability `json:"emulatable"`
	Unsupported []contract.Capability `json:"unsupported"`
	Compatible  bool                  `json:"compatible"`
}

// withCapabilityNegotiation wraps a backend's raw usage payload alongside
// the pre-dispatch capability negotiation result, so the receipt always
// carries usage_raw.capability_negotiation regardless of what shape the
// backend's own raw usage value takes.
func withCapabilityNegotiation(raw any, negotiation capability.NegotiationResult) map[string]any {
	return map[string]any{
		"backend_raw": raw,
		"capability_negotiation": capabilityNegotiationRecord{
			Native:      negotiation.Native,
			Emulatable:  negotiation.Emulatable,
			Unsupported: negotiation.Unsupported,
			Compatible:  negotiation.IsCompatible(),
		},
	}
}

func crashedReceipt(runID, workOrderID uuid.UUID, backend Backend, startedAt, finishedAt time.Time) contract.Receipt {
	return contract.Receipt{
		Meta: contract.RunMetadata{
			RunID:           runID,
			WorkOrderID:     workOrderID,
			ContractVersion: contract.ContractVersion,
			StartedAt:       startedAt,
			FinishedAt:      finishedAt,
			DurationMs:      finishedAt.Sub(startedAt).Milliseconds(),
		},
		Backend:      backend.Identity(),
		Capabilities: backend.Capabilities(),
		UsageRaw:     map[string]any{"error": "no receipt"},
		Outcome:      contract.OutcomeFailed,
	}
}

// cancelledReceipt builds the receipt forced when a run is cancelled
// mid-flight: outcome failed and harness_ok false, by convention.
func cancelledReceipt(runID, workOrderID uuid.UUID, backend Backend, startedAt, finishedAt time.Time, reason CancellationReason) contract.Receipt {
	detail := "cancelled"
	if reason != "" {
		detail = reason.Description()
	}
	return contract.Receipt{
		Meta: contract.RunMetadata{
			RunID:           runID,
			WorkOrderID:     workOrderID,
			ContractVersion: contract.ContractVersion,
			StartedAt:       startedAt,
			FinishedAt:      finishedAt,
			DurationMs:      finishedAt.Sub(startedAt).Milliseconds(),
		},
		Backend:      backend.Identity(),
		Capabilities: backend.Capabilities(),
		UsageRaw:     map[string]any{"cancellation": detail},
		Verification: contract.VerificationReport{HarnessOK: false},
		Outcome:      contract.OutcomeFailed,
	}
}
