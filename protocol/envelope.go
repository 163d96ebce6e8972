// Package protocol implements the sidecar wire protocol: the Envelope
// tagged union, its JSON Lines codec, an incremental stream parser for
// data arriving in arbitrary chunks, batch encode/decode, and contract
// version compatibility checks.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/agent-backplane/abp/contract"
)

// EnvelopeKind is a marker interface implemented by every Envelope variant.
type EnvelopeKind interface {
	isEnvelopeKind()
	// Tag returns this variant's wire discriminant ("t" field).
	Tag() string
}

type (
	// Hello is the sidecar's mandatory first frame.
	Hello struct {
		ContractVersion string                      `json:"contract_version"`
		Backend         contract.BackendIdentity     `json:"backend"`
		Capabilities    contract.CapabilityManifest  `json:"capabilities"`
		Mode            contract.ExecutionMode       `json:"mode"`
	}

	// Run asks the sidecar to execute a work order.
	Run struct {
		ID        string            `json:"id"`
		WorkOrder contract.WorkOrder `json:"work_order"`
	}

	// Event carries one AgentEvent produced during a run.
	Event struct {
		RefID string              `json:"ref_id"`
		Event contract.AgentEvent `json:"event"`
	}

	// Final ends a run's lifecycle successfully (including partial/failed outcomes).
	Final struct {
		RefID   string           `json:"ref_id"`
		Receipt contract.Receipt `json:"receipt"`
	}

	// Fatal ends a run's lifecycle abnormally, or reports a startup failure
	// when RefID is empty.
	Fatal struct {
		RefID     string `json:"ref_id,omitempty"`
		Error     string `json:"error"`
		ErrorCode string `json:"error_code,omitempty"`
	}

	// Cancel requests early termination of a run.
	Cancel struct {
		RefID  string `json:"ref_id"`
		Reason string `json:"reason,omitempty"`
	}

	// Ping is a liveness probe.
	Ping struct {
		Seq uint64 `json:"seq"`
	}

	// Pong answers a Ping.
	Pong struct {
		Seq uint64 `json:"seq"`
	}
)

func (Hello) isEnvelopeKind()  {}
func (Run) isEnvelopeKind()    {}
func (Event) isEnvelopeKind()  {}
func (Final) isEnvelopeKind()  {}
func (Fatal) isEnvelopeKind()  {}
func (Cancel) isEnvelopeKind() {}
func (Ping) isEnvelopeKind()   {}
func (Pong) isEnvelopeKind()   {}

func (Hello) Tag() string  { return "hello" }
func (Run) Tag() string    { return "run" }
func (Event) Tag() string  { return "event" }
func (Final) Tag() string  { return "final" }
func (Fatal) Tag() string  { return "fatal" }
func (Cancel) Tag() string { return "cancel" }
func (Ping) Tag() string   { return "ping" }
func (Pong) Tag() string   { return "pong" }

// NewHello builds a Hello envelope for the given backend and capabilities,
// defaulting ContractVersion to contract.ContractVersion and mode to mapped.
func NewHello(backend contract.BackendIdentity, caps contract.CapabilityManifest) Hello {
	return Hello{
		ContractVersion: contract.ContractVersion,
		Backend:         backend,
		Capabilities:    caps,
		Mode:            contract.ModeMapped,
	}
}

// Envelope is the top-level tagged union on field "t". Unknown top-level
// fields are tolerated on decode for forward compatibility.
type Envelope struct {
	Kind EnvelopeKind
}

// MarshalJSON flattens Kind's fields alongside the "t" discriminant.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Kind == nil {
		return nil, fmt.Errorf("protocol: envelope has no kind")
	}
	kindBytes, err := json.Marshal(e.Kind)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(kindBytes, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	m["t"] = e.Kind.Tag()
	return json.Marshal(m)
}

// UnmarshalJSON dispatches on the "t" field to the correct Envelope variant.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var tag struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("protocol: invalid envelope: %w", err)
	}
	var dst EnvelopeKind
	switch tag.T {
	case "hello":
		dst = &Hello{}
	case "run":
		dst = &Run{}
	case "event":
		dst = &Event{}
	case "final":
		dst = &Final{}
	case "fatal":
		dst = &Fatal{}
	case "cancel":
		dst = &Cancel{}
	case "ping":
		dst = &Ping{}
	case "pong":
		dst = &Pong{}
	default:
		return fmt.Errorf("protocol: unknown envelope tag %q", tag.T)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("protocol: invalid %s envelope: %w", tag.T, err)
	}
	switch v := dst.(type) {
	case *Hello:
		e.Kind = *v
	case *Run:
		e.Kind = *v
	case *Event:
		e.Kind = *v
	case *Final:
		e.Kind = *v
	case *Fatal:
		e.Kind = *v
	case *Cancel:
		e.Kind = *v
	case *Ping:
		e.Kind = *v
	case *Pong:
		e.Kind = *v
	}
	return nil
}
