package policy

import "time"

// DecisionKind is the tagged outcome recorded in an AuditEntry.
type DecisionKind string

const (
	AuditAllow DecisionKind = "allow"
	AuditDeny  DecisionKind = "deny"
	AuditWarn  DecisionKind = "warn"
)

// AuditDecision is a recorded policy verdict: its kind and, for deny/warn,
// the reason.
type AuditDecision struct {
	Kind   DecisionKind
	Reason string
}

// AuditEntry is a single recorded policy evaluation.
type AuditEntry struct {
	Timestamp time.Time
	Action    string // "tool" | "read" | "write" | "network"
	Resource  string
	Decision  AuditDecision
}

// AuditSummary aggregates counts of recorded decisions.
type AuditSummary struct {
	Allowed int
	Denied  int
	Warned  int
}

// Auditor wraps an Engine and records every decision made through it.
type Auditor struct {
	engine *Engine
	log    []AuditEntry
	clock  func() time.Time
}

// NewAuditor wraps engine in an Auditor that timestamps entries with
// time.Now. Pass a custom clock via NewAuditorWithClock for deterministic tests.
func NewAuditor(engine *Engine) *Auditor {
	return &Auditor{engine: engine, clock: time.Now}
}

// NewAuditorWithClock wraps engine in an Auditor using clock to timestamp
// entries instead of time.Now.
func NewAuditorWithClock(engine *Engine, clock func() time.Time) *Auditor {
	return &Auditor{engine: engine, clock: clock}
}

func toAuditDecision(d Decision) AuditDecision {
	if d.Allowed {
		return AuditDecision{Kind: AuditAllow}
	}
	return AuditDecision{Kind: AuditDeny, Reason: d.Reason}
}

// CheckTool evaluates and records a tool-use decision.
func (a *Auditor) CheckTool(name string) AuditDecision {
	d := toAuditDecision(a.engine.CanUseTool(name))
	a.record("tool", name, d)
	return d
}

// CheckRead evaluates and records a path-read decision.
func (a *Auditor) CheckRead(path string) AuditDecision {
	d := toAuditDecision(a.engine.CanReadPath(path))
	a.record("read", path, d)
	return d
}

// CheckWrite evaluates and records a path-write decision.
func (a *Auditor) CheckWrite(path string) AuditDecision {
	d := toAuditDecision(a.engine.CanWritePath(path))
	a.record("write", path, d)
	return d
}

// CheckNetwork evaluates and records a network-access decision.
func (a *Auditor) CheckNetwork(host string) AuditDecision {
	d := toAuditDecision(a.engine.CanAccessHost(host))
	a.record("network", host, d)
	return d
}

// Entries returns every recorded entry in chronological order.
func (a *Auditor) Entries() []AuditEntry {
	out := make([]AuditEntry, len(a.log))
	copy(out, a.log)
	return out
}

// DeniedCount returns the number of denied decisions recorded so far.
func (a *Auditor) DeniedCount() int { return a.countKind(AuditDeny) }

// AllowedCount returns the number of allowed decisions recorded so far.
func (a *Auditor) AllowedCount() int { return a.countKind(AuditAllow) }

func (a *Auditor) countKind(kind DecisionKind) int {
	n := 0
	for _, e := range a.log {
		if e.Decision.Kind == kind {
			n++
		}
	}
	return n
}

// Summary aggregates every recorded decision into counts.
func (a *Auditor) Summary() AuditSummary {
	var s AuditSummary
	for _, e := range a.log {
		switch e.Decision.Kind {
		case AuditAllow:
			s.Allowed++
		case AuditDeny:
			s.Denied++
		case AuditWarn:
			s.Warned++
		}
	}
	return s
}

func (a *Auditor) record(action, resource string, d AuditDecision) {
	a.log = append(a.log, AuditEntry{
		Timestamp: a.clock(),
		Action:    action,
		Resource:  resource,
		Decision:  d,
	})
}
