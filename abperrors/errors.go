// Package abperrors defines the backplane's closed error-code taxonomy and
// the structured error type every component returns. Errors preserve message
// and causal context while still implementing the standard error interface,
// so callers can use errors.Is/errors.As across retries and adapter hops.
package abperrors

import (
	"errors"
	"fmt"
)

// Code is a closed, SCREAMING_SNAKE error code.
type Code string

const (
	// Protocol errors.
	ProtocolInvalidEnvelope  Code = "PROTOCOL_INVALID_ENVELOPE"
	ProtocolUnexpectedMsg    Code = "PROTOCOL_UNEXPECTED_MESSAGE"
	ProtocolVersionMismatch  Code = "PROTOCOL_VERSION_MISMATCH"

	// Backend errors.
	BackendNotFound Code = "BACKEND_NOT_FOUND"
	BackendTimeout  Code = "BACKEND_TIMEOUT"
	BackendCrashed  Code = "BACKEND_CRASHED"

	// Capability errors.
	CapabilityUnsupported      Code = "CAPABILITY_UNSUPPORTED"
	CapabilityEmulationFailed  Code = "CAPABILITY_EMULATION_FAILED"

	// Policy errors.
	PolicyDenied  Code = "POLICY_DENIED"
	PolicyInvalid Code = "POLICY_INVALID"

	// Workspace errors.
	WorkspaceInitFailed    Code = "WORKSPACE_INIT_FAILED"
	WorkspaceStagingFailed Code = "WORKSPACE_STAGING_FAILED"

	// IR / dialect errors.
	IRLoweringFailed   Code = "IR_LOWERING_FAILED"
	IRInvalid          Code = "IR_INVALID"
	DialectUnknown     Code = "DIALECT_UNKNOWN"
	DialectMappingFail Code = "DIALECT_MAPPING_FAILED"

	// Receipt errors.
	ReceiptHashMismatch Code = "RECEIPT_HASH_MISMATCH"
	ReceiptChainBroken  Code = "RECEIPT_CHAIN_BROKEN"

	// Config / internal errors.
	ConfigInvalid Code = "CONFIG_INVALID"
	Internal      Code = "INTERNAL"
)

// Error is the structured, user-visible DTO named in the error handling
// design: a code, a message, and an optional flat string context map. It
// also chains to an underlying cause for errors.Is/errors.As.
type Error struct {
	Code    Code
	Message string
	Context map[string]string
	Cause   error
}

// New constructs an Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf formats a message and constructs an Error.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error that chains to cause via Unwrap.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithContext returns a copy of e with the given context key set.
func (e *Error) WithContext(key, value string) *Error {
	cp := *e
	cp.Context = make(map[string]string, len(e.Context)+1)
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	cp.Context[key] = value
	return &cp
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error with the same Code, matching on
// taxonomy membership rather than full struct equality.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// As extracts the first *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Code sentinel helpers for one-shot construction without an explicit
// message, mirroring common taxonomy members used throughout the core.
func UnknownBackend(name string) *Error {
	return New(BackendNotFound, fmt.Sprintf("unknown backend %q", name)).WithContext("backend", name)
}
