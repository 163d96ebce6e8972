package runtime

import (
	"context"
	"sync"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/policy"
	"github.com/agent-backplane/abp/telemetry"
)

// PipelineStage inspects, and may mutate, a WorkOrder before it reaches a
// Backend. Returning an error short-circuits the remaining stages.
type PipelineStage interface {
	Process(ctx context.Context, wo *contract.WorkOrder) error
	Name() string
}

// Pipeline is an ordered chain of PipelineStages executed sequentially
// against a work order before a run starts.
type Pipeline struct {
	stages []PipelineStage
	logger telemetry.Logger
}

// NewPipeline constructs an empty pipeline. Append stages with Use.
func NewPipeline(logger telemetry.Logger) *Pipeline {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Pipeline{logger: logger}
}

// Use appends a stage to the pipeline and returns the pipeline, for chaining.
func (p *Pipeline) Use(stage PipelineStage) *Pipeline {
	p.stages = append(p.stages, stage)
	return p
}

// Len returns the number of stages in the pipeline.
func (p *Pipeline) Len() int { return len(p.stages) }

// Execute runs every stage in order against wo, stopping at the first error.
func (p *Pipeline) Execute(ctx context.Context, wo *contract.WorkOrder) error {
	for _, stage := range p.stages {
		p.logger.Debug(ctx, "pipeline: executing stage", "stage", stage.Name())
		if err := stage.Process(ctx, wo); err != nil {
			return err
		}
	}
	return nil
}

// ValidationStage rejects work orders that fail contract.ValidateWorkOrder
// (empty task, out-of-range max_turns or max_budget_usd, blank vendor or
// env keys). The workspace root is not checked.
type ValidationStage struct{}

// Process implements PipelineStage.
func (ValidationStage) Process(_ context.Context, wo *contract.WorkOrder) error {
	return contract.ValidateWorkOrder(*wo)
}

// Name implements PipelineStage.
func (ValidationStage) Name() string { return "validation" }

// PolicyStage compiles a policy.Engine from the work order's PolicyProfile
// and rejects the order if any tool named in AllowedTools is simultaneously
// blocked by the compiled engine (e.g. because it also appears in
// DisallowedTools).
type PolicyStage struct{}

// Process implements PipelineStage.
func (PolicyStage) Process(_ context.Context, wo *contract.WorkOrder) error {
	engine, err := policy.NewEngine(wo.Policy)
	if err != nil {
		return abperrors.Wrap(abperrors.PolicyInvalid, "compiling work order policy", err)
	}
	for _, tool := range wo.Policy.AllowedTools {
		decision := engine.CanUseTool(tool)
		if !decision.Allowed {
			reason := decision.Reason
			if reason == "" {
				reason = "denied by policy"
			}
			return abperrors.Newf(abperrors.PolicyDenied, "policy blocks tool %q: %s", tool, reason)
		}
	}
	return nil
}

// Name implements PipelineStage.
func (PolicyStage) Name() string { return "policy" }

// AuditEntry is a single record of a work order having passed through an
// AuditStage.
type AuditEntry struct {
	WorkOrderID string
	Task        string
}

// AuditStage records every work order it processes, never rejecting one.
type AuditStage struct {
	mu  sync.Mutex
	log []AuditEntry
}

// NewAuditStage constructs an AuditStage with an empty log.
func NewAuditStage() *AuditStage { return &AuditStage{} }

// Process implements PipelineStage.
func (s *AuditStage) Process(_ context.Context, wo *contract.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, AuditEntry{WorkOrderID: wo.ID.String(), Task: wo.Task})
	return nil
}

// Name implements PipelineStage.
func (*AuditStage) Name() string { return "audit" }

// Entries returns a snapshot of the audit log.
func (s *AuditStage) Entries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEntry, len(s.log))
	copy(out, s.log)
	return out
}
