// Package bedrock adapts the AWS Bedrock Converse API
// (github.com/aws/aws-sdk-go-v2/service/bedrockruntime) into a
// runtime.Backend: one work order becomes one Converse call, whose
// response content blocks are surfaced as AgentEvents and summarized into
// a Receipt.
package bedrock

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/backend"
	"github.com/agent-backplane/abp/contract"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client used by
// the adapter; matches *bedrockruntime.Client so tests can substitute a fake.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the Bedrock-backed Backend.
type Options struct {
	// DefaultModel is used when the work order's RuntimeConfig.Model is unset.
	DefaultModel string
}

// Backend implements runtime.Backend on top of AWS Bedrock Converse.
type Backend struct {
	runtime      RuntimeClient
	defaultModel string
}

// New builds a Backend from an already-constructed Bedrock runtime client.
func New(runtime RuntimeClient, opts Options) (*Backend, error) {
	if runtime == nil {
		return nil, abperrors.New(abperrors.ConfigInvalid, "bedrock: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, abperrors.New(abperrors.ConfigInvalid, "bedrock: default model identifier is required")
	}
	return &Backend{runtime: runtime, defaultModel: opts.DefaultModel}, nil
}

// Identity implements runtime.Backend.
func (b *Backend) Identity() contract.BackendIdentity {
	return contract.BackendIdentity{ID: "bedrock"}
}

// Capabilities implements runtime.Backend.
func (b *Backend) Capabilities() contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m[contract.CapStreaming] = contract.NativeLevel()
	m[contract.CapToolRead] = contract.NativeLevel()
	m[contract.CapToolWrite] = contract.NativeLevel()
	m[contract.CapToolExec] = contract.NativeLevel()
	m[contract.CapImageInput] = contract.NativeLevel()
	return m
}

// Run implements runtime.Backend: it issues one Converse call built from the
// work order's task, then maps the response into events and a hashed Receipt.
func (b *Backend) Run(ctx context.Context, runID uuid.UUID, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	caps := b.Capabilities()
	if err := backend.EnsureCapabilityRequirements(wo.Requirements, caps); err != nil {
		return contract.Receipt{}, err
	}

	started := time.Now().UTC()
	var trace []contract.AgentEvent
	emit := func(kind contract.EventKind) {
		ev := contract.AgentEvent{Timestamp: time.Now().UTC(), Kind: kind}
		trace = append(trace, ev)
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	emit(contract.RunStarted{Message: "bedrock backend starting: " + wo.Task})

	modelID := b.defaultModel
	if wo.Config.Model != nil && *wo.Config.Model != "" {
		modelID = *wo.Config.Model
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		Messages: []brtypes.Message{
			{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: wo.Task}},
			},
		},
	}

	output, err := b.runtime.Converse(ctx, input)
	if err != nil {
		emit(contract.ErrorEvent{Message: err.Error(), ErrorCode: string(abperrors.BackendCrashed)})
		return contract.Receipt{}, abperrors.Wrap(abperrors.BackendCrashed, "bedrock converse", err)
	}

	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				if v.Value != "" {
					emit(contract.AssistantMessage{Text: v.Value})
				}
			case *brtypes.ContentBlockMemberToolUse:
				name := ""
				if v.Value.Name != nil {
					name = *v.Value.Name
				}
				id := ""
				if v.Value.ToolUseId != nil {
					id = *v.Value.ToolUseId
				}
				emit(contract.ToolCall{ToolName: name, ToolUseID: id, Input: v.Value.Input})
			}
		}
	}
	emit(contract.RunCompleted{Message: "bedrock run complete"})

	finished := time.Now().UTC()

	var input64, output64 int64
	if output.Usage != nil {
		if output.Usage.InputTokens != nil {
			input64 = int64(*output.Usage.InputTokens)
		}
		if output.Usage.OutputTokens != nil {
			output64 = int64(*output.Usage.OutputTokens)
		}
	}

	receipt := contract.Receipt{
		Meta: contract.RunMetadata{
			RunID:           runID,
			WorkOrderID:     wo.ID,
			ContractVersion: contract.ContractVersion,
			StartedAt:       started,
			FinishedAt:      finished,
			DurationMs:      finished.Sub(started).Milliseconds(),
		},
		Backend:      b.Identity(),
		Capabilities: caps,
		Mode:         backend.ExtractExecutionMode(wo),
		UsageRaw:     output,
		Usage: contract.UsageNormalized{
			InputTokens:  &input64,
			OutputTokens: &output64,
		},
		Trace:        trace,
		Verification: contract.VerificationReport{HarnessOK: true},
		Outcome:      contract.OutcomeComplete,
	}

	return contract.WithHash(receipt)
}
