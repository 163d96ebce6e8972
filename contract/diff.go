package contract

import (
	"encoding/json"
	"fmt"
	"time"
)

// FieldDiff is a single field difference between two receipts.
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ReceiptDiff is the result of comparing two receipts field by field.
type ReceiptDiff struct {
	Changes []FieldDiff `json:"changes"`
}

// IsEmpty reports whether the two receipts compared equal.
func (d ReceiptDiff) IsEmpty() bool { return len(d.Changes) == 0 }

// DiffReceipts compares two receipts field by field: meta, backend identity,
// outcome, mode, usage_raw, usage and verification by value, trace and
// artifacts by length only. receipt_sha256 is excluded since it is a value
// derived from the rest of the receipt; capabilities are not compared.
func DiffReceipts(a, b Receipt) ReceiptDiff {
	var changes []FieldDiff
	add := func(field, oldV, newV string) {
		changes = append(changes, FieldDiff{Field: field, Old: oldV, New: newV})
	}

	if a.Meta.RunID != b.Meta.RunID {
		add("meta.run_id", a.Meta.RunID.String(), b.Meta.RunID.String())
	}
	if a.Meta.WorkOrderID != b.Meta.WorkOrderID {
		add("meta.work_order_id", a.Meta.WorkOrderID.String(), b.Meta.WorkOrderID.String())
	}
	if a.Meta.ContractVersion != b.Meta.ContractVersion {
		add("meta.contract_version", a.Meta.ContractVersion, b.Meta.ContractVersion)
	}
	if !a.Meta.StartedAt.Equal(b.Meta.StartedAt) {
		add("meta.started_at", fmtTime(a.Meta.StartedAt), fmtTime(b.Meta.StartedAt))
	}
	if !a.Meta.FinishedAt.Equal(b.Meta.FinishedAt) {
		add("meta.finished_at", fmtTime(a.Meta.FinishedAt), fmtTime(b.Meta.FinishedAt))
	}
	if a.Meta.DurationMs != b.Meta.DurationMs {
		add("meta.duration_ms", fmt.Sprint(a.Meta.DurationMs), fmt.Sprint(b.Meta.DurationMs))
	}
	if a.Backend.ID != b.Backend.ID {
		add("backend.id", a.Backend.ID, b.Backend.ID)
	}
	if !strPtrEqual(a.Backend.BackendVersion, b.Backend.BackendVersion) {
		add("backend.backend_version", fmtStrPtr(a.Backend.BackendVersion), fmtStrPtr(b.Backend.BackendVersion))
	}
	if !strPtrEqual(a.Backend.AdapterVersion, b.Backend.AdapterVersion) {
		add("backend.adapter_version", fmtStrPtr(a.Backend.AdapterVersion), fmtStrPtr(b.Backend.AdapterVersion))
	}
	if a.Outcome != b.Outcome {
		add("outcome", string(a.Outcome), string(b.Outcome))
	}
	diffJSONField(&changes, "mode", a.Mode, b.Mode)
	diffJSONField(&changes, "usage_raw", a.UsageRaw, b.UsageRaw)
	diffJSONField(&changes, "usage", a.Usage, b.Usage)
	if len(a.Trace) != len(b.Trace) {
		add("trace.len", fmt.Sprint(len(a.Trace)), fmt.Sprint(len(b.Trace)))
	}
	if len(a.Artifacts) != len(b.Artifacts) {
		add("artifacts.len", fmt.Sprint(len(a.Artifacts)), fmt.Sprint(len(b.Artifacts)))
	}
	diffJSONField(&changes, "verification", a.Verification, b.Verification)

	return ReceiptDiff{Changes: changes}
}

func diffJSONField(changes *[]FieldDiff, name string, a, b any) {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		*changes = append(*changes, FieldDiff{Field: name, Old: string(ja), New: string(jb)})
	}
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtStrPtr(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
