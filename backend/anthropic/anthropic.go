// Package anthropic adapts the Anthropic Claude Messages API
// (github.com/anthropics/anthropic-sdk-go) into a runtime.Backend: one
// work order becomes one non-streaming Messages.New call, whose response
// content blocks are surfaced as AgentEvents and summarized into a Receipt.
package anthropic

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/backend"
	"github.com/agent-backplane/abp/contract"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// adapter, satisfied by *sdk.MessageService so tests can substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the Anthropic-backed Backend.
type Options struct {
	// DefaultModel is used when the work order's RuntimeConfig.Model is unset.
	DefaultModel string
	// MaxTokens caps the completion length. Must be positive.
	MaxTokens int64
}

// Backend implements runtime.Backend on top of Anthropic Claude Messages.
type Backend struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int64
}

// New builds a Backend from an already-constructed Anthropic messages client.
func New(msg MessagesClient, opts Options) (*Backend, error) {
	if msg == nil {
		return nil, abperrors.New(abperrors.ConfigInvalid, "anthropic: messages client is required")
	}
	if opts.DefaultModel == "" {
		return nil, abperrors.New(abperrors.ConfigInvalid, "anthropic: default model is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Backend{msg: msg, defaultModel: opts.DefaultModel, maxTokens: maxTokens}, nil
}

// NewFromAPIKey constructs a Backend using the default Anthropic HTTP client
// authenticated with apiKey. An empty apiKey is rejected with CONFIG_INVALID.
func NewFromAPIKey(apiKey, defaultModel string) (*Backend, error) {
	if apiKey == "" {
		return nil, abperrors.New(abperrors.ConfigInvalid, "anthropic: api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Messages, Options{DefaultModel: defaultModel})
}

// Identity implements runtime.Backend.
func (b *Backend) Identity() contract.BackendIdentity {
	return contract.BackendIdentity{ID: "anthropic"}
}

// Capabilities implements runtime.Backend.
func (b *Backend) Capabilities() contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m[contract.CapStreaming] = contract.NativeLevel()
	m[contract.CapToolRead] = contract.NativeLevel()
	m[contract.CapToolWrite] = contract.NativeLevel()
	m[contract.CapToolExec] = contract.NativeLevel()
	m[contract.CapExtendedThinking] = contract.NativeLevel()
	m[contract.CapImageInput] = contract.NativeLevel()
	m[contract.CapPDFInput] = contract.NativeLevel()
	return m
}

// Run implements runtime.Backend: it issues one Messages.New call built from
// the work order's task and context, then maps the response into events and
// a hashed Receipt.
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

	emit(contract.RunStarted{Message: "anthropic backend starting: " + wo.Task})

	modelID := b.defaultModel
	if wo.Config.Model != nil && *wo.Config.Model != "" {
		modelID = *wo.Config.Model
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(modelID),
		MaxTokens: b.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(wo.Task)),
		},
	}

	msg, err := b.msg.New(ctx, params)
	if err != nil {
		emit(contract.ErrorEvent{Message: err.Error(), ErrorCode: string(abperrors.BackendCrashed)})
		return contract.Receipt{}, abperrors.Wrap(abperrors.BackendCrashed, "anthropic messages.new", err)
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				emit(contract.AssistantMessage{Text: block.Text})
			}
		case "tool_use":
			emit(contract.ToolCall{ToolName: block.Name, ToolUseID: block.ID, Input: block.Input})
		}
	}
	emit(contract.RunCompleted{Message: "anthropic run complete"})

	finished := time.Now().UTC()

	input := msg.Usage.InputTokens
	output := msg.Usage.OutputTokens
	cacheRead := msg.Usage.CacheReadInputTokens
	cacheWrite := msg.Usage.CacheCreationInputTokens

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
		UsageRaw:     msg,
		Usage: contract.UsageNormalized{
			InputTokens:      &input,
			OutputTokens:     &output,
			CacheReadTokens:  &cacheRead,
			CacheWriteTokens: &cacheWrite,
		},
		Trace:        trace,
		Verification: contract.VerificationReport{HarnessOK: true},
		Outcome:      contract.OutcomeComplete,
	}

	return contract.WithHash(receipt)
}
