package runtime

import (
	"sync"
)

// CancellationReason classifies why a run was cancelled.
type CancellationReason string

const (
	CancelUserRequested   CancellationReason = "user_requested"
	CancelTimeout         CancellationReason = "timeout"
	CancelBudgetExhausted CancellationReason = "budget_exhausted"
	CancelPolicyViolation CancellationReason = "policy_violation"
	CancelSystemShutdown  CancellationReason = "system_shutdown"
)

// Description returns a human-readable description of the reason.
func (r CancellationReason) Description() string {
	switch r {
	case CancelUserRequested:
		return "cancelled by user request"
	case CancelTimeout:
		return "cancelled after exceeding its time budget"
	case CancelBudgetExhausted:
		return "cancelled after exhausting its resource budget"
	case CancelPolicyViolation:
		return "cancelled due to a policy violation"
	case CancelSystemShutdown:
		return "cancelled due to system shutdown"
	default:
		return "cancelled"
	}
}

// tokenState is the shared, mutable state behind a CancellationToken. Every
// clone of a token points at the same state, so cancelling any clone
// cancels them all.
type tokenState struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

// CancellationToken is a cheaply cloneable handle used to request and
// observe cancellation of a run. The zero value is not usable; construct
// one with NewCancellationToken.
type CancellationToken struct {
	state *tokenState
}

// NewCancellationToken constructs a fresh, not-yet-cancelled token.
func NewCancellationToken() CancellationToken {
	return CancellationToken{state: &tokenState{done: make(chan struct{})}}
}

// Clone returns a token sharing this token's underlying state: cancelling
// either the original or the clone cancels both.
func (t CancellationToken) Clone() CancellationToken {
	return CancellationToken{state: t.state}
}

// Cancel marks the token cancelled. Safe to call more than once; subsequent
// calls are no-ops.
func (t CancellationToken) Cancel() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	if t.state.cancelled {
		return
	}
	t.state.cancelled = true
	close(t.state.done)
}

// IsCancelled reports whether the token has been cancelled.
func (t CancellationToken) IsCancelled() bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	return t.state.cancelled
}

// Cancelled returns a channel that is closed when the token is cancelled.
// A token that is already cancelled returns an already-closed channel, so
// receiving from it never blocks.
func (t CancellationToken) Cancelled() <-chan struct{} {
	return t.state.done
}

// runState is the shared, mutable reason-tracking state behind a
// CancellableRun. Every clone of a CancellableRun points at the same
// state, mirroring how tokenState is shared across CancellationToken clones.
type runState struct {
	mu        sync.Mutex
	reason    CancellationReason
	reasonSet bool
}

// CancellableRun pairs a CancellationToken with the reason the run was
// cancelled, keeping the first reason given across repeated Cancel calls.
type CancellableRun struct {
	token CancellationToken
	state *runState
}

// NewCancellableRun wraps token with reason-tracking.
func NewCancellableRun(token CancellationToken) CancellableRun {
	return CancellableRun{token: token, state: &runState{}}
}

// Clone returns a CancellableRun sharing this one's underlying token and
// reason state.
func (r CancellableRun) Clone() CancellableRun {
	return r
}

// Cancel cancels the underlying token, recording reason if this is the
// first cancellation; later calls with a different reason are ignored.
func (r CancellableRun) Cancel(reason CancellationReason) {
	r.state.mu.Lock()
	if !r.state.reasonSet {
		r.state.reason = reason
		r.state.reasonSet = true
	}
	r.state.mu.Unlock()
	r.token.Cancel()
}

// IsCancelled reports whether the run has been cancelled.
func (r CancellableRun) IsCancelled() bool {
	return r.token.IsCancelled()
}

// Reason returns the first cancellation reason given, or false if the run
// has not been cancelled yet.
func (r CancellableRun) Reason() (CancellationReason, bool) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if !r.state.reasonSet {
		return "", false
	}
	return r.state.reason, true
}

// Token returns the underlying CancellationToken.
func (r CancellableRun) Token() CancellationToken { return r.token }
