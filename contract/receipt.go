package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Canonicalize produces the canonical JSON form of a receipt with
// receipt_sha256 forced to null, independent of any previously stored hash.
func Canonicalize(r Receipt) ([]byte, error) {
	r.ReceiptSHA256 = nil
	return CanonicalJSON(r)
}

// ComputeHash returns the lowercase hex SHA-256 of the receipt's canonical form.
func ComputeHash(r Receipt) (string, error) {
	canon, err := Canonicalize(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// WithHash returns a copy of r with ReceiptSHA256 populated by ComputeHash.
func WithHash(r Receipt) (Receipt, error) {
	hash, err := ComputeHash(r)
	if err != nil {
		return Receipt{}, err
	}
	r.ReceiptSHA256 = &hash
	return r, nil
}

// VerifyHash reports whether r's stored hash matches its recomputed hash. A
// receipt with no stored hash is considered valid (nothing to contradict).
func VerifyHash(r Receipt) bool {
	if r.ReceiptSHA256 == nil {
		return true
	}
	recomputed, err := ComputeHash(r)
	if err != nil {
		return false
	}
	return *r.ReceiptSHA256 == recomputed
}

// ReceiptBuilder fluently assembles a Receipt.
type ReceiptBuilder struct {
	backendID      string
	backendVersion *string
	adapterVersion *string
	capabilities   CapabilityManifest
	mode           ExecutionMode
	outcome        Outcome
	workOrderID    uuid.UUID
	runID          *uuid.UUID
	startedAt      time.Time
	finishedAt     time.Time
	usageRaw       any
	usage          UsageNormalized
	trace          []AgentEvent
	artifacts      []ArtifactRef
	verification   VerificationReport
}

// NewReceiptBuilder starts a builder for a run against the named backend.
func NewReceiptBuilder(backendID string) *ReceiptBuilder {
	now := time.Now().UTC()
	return &ReceiptBuilder{
		backendID:    backendID,
		capabilities: NewCapabilityManifest(),
		mode:         ModeMapped,
		outcome:      OutcomeComplete,
		startedAt:    now,
		finishedAt:   now,
		usageRaw:     map[string]any{},
	}
}

func (b *ReceiptBuilder) Outcome(o Outcome) *ReceiptBuilder { b.outcome = o; return b }

func (b *ReceiptBuilder) BackendID(id string) *ReceiptBuilder { b.backendID = id; return b }

func (b *ReceiptBuilder) BackendVersion(v string) *ReceiptBuilder { b.backendVersion = &v; return b }

func (b *ReceiptBuilder) AdapterVersion(v string) *ReceiptBuilder { b.adapterVersion = &v; return b }

func (b *ReceiptBuilder) StartedAt(t time.Time) *ReceiptBuilder { b.startedAt = t; return b }

func (b *ReceiptBuilder) FinishedAt(t time.Time) *ReceiptBuilder { b.finishedAt = t; return b }

func (b *ReceiptBuilder) WorkOrderID(id uuid.UUID) *ReceiptBuilder { b.workOrderID = id; return b }

func (b *ReceiptBuilder) RunID(id uuid.UUID) *ReceiptBuilder { b.runID = &id; return b }

func (b *ReceiptBuilder) Capabilities(m CapabilityManifest) *ReceiptBuilder {
	b.capabilities = m
	return b
}

func (b *ReceiptBuilder) Mode(m ExecutionMode) *ReceiptBuilder { b.mode = m; return b }

func (b *ReceiptBuilder) UsageRaw(raw any) *ReceiptBuilder { b.usageRaw = raw; return b }

func (b *ReceiptBuilder) Usage(u UsageNormalized) *ReceiptBuilder { b.usage = u; return b }

func (b *ReceiptBuilder) Verification(v VerificationReport) *ReceiptBuilder {
	b.verification = v
	return b
}

func (b *ReceiptBuilder) AddTraceEvent(e AgentEvent) *ReceiptBuilder {
	b.trace = append(b.trace, e)
	return b
}

func (b *ReceiptBuilder) AddArtifact(a ArtifactRef) *ReceiptBuilder {
	b.artifacts = append(b.artifacts, a)
	return b
}

// Build consumes the builder and produces a Receipt with no hash set.
func (b *ReceiptBuilder) Build() Receipt {
	durationMs := b.finishedAt.Sub(b.startedAt).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	runID := uuid.New()
	if b.runID != nil {
		runID = *b.runID
	}
	return Receipt{
		Meta: RunMetadata{
			RunID:           runID,
			WorkOrderID:     b.workOrderID,
			ContractVersion: ContractVersion,
			StartedAt:       b.startedAt,
			FinishedAt:      b.finishedAt,
			DurationMs:      durationMs,
		},
		Backend: BackendIdentity{
			ID:             b.backendID,
			BackendVersion: b.backendVersion,
			AdapterVersion: b.adapterVersion,
		},
		Capabilities: b.capabilities,
		Mode:         b.mode,
		UsageRaw:     b.usageRaw,
		Usage:        b.usage,
		Trace:        b.trace,
		Artifacts:    b.artifacts,
		Verification: b.verification,
		Outcome:      b.outcome,
	}
}

// WithHash builds the receipt and computes its hash.
func (b *ReceiptBuilder) WithHash() (Receipt, error) {
	return WithHash(b.Build())
}
