// Package openai adapts the OpenAI Chat Completions API
// (github.com/openai/openai-go) into a runtime.Backend: one work order
// becomes one non-streaming chat completion call, whose response is
// surfaced as AgentEvents and summarized into a Receipt.
package openai

import (
	"context"
	"time"

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/backend"
	"github.com/agent-backplane/abp/contract"
)

// ChatClient captures the subset of the OpenAI SDK used by the adapter,
// satisfied by the client's Chat.Completions service so tests can
// substitute a fake.
type ChatClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Options configures the OpenAI-backed Backend.
type Options struct {
	// DefaultModel is used when the work order's RuntimeConfig.Model is unset.
	DefaultModel string
}

// Backend implements runtime.Backend on top of OpenAI Chat Completions.
type Backend struct {
	chat         ChatClient
	defaultModel string
}

// New builds a Backend from an already-constructed OpenAI chat client.
func New(chat ChatClient, opts Options) (*Backend, error) {
	if chat == nil {
		return nil, abperrors.New(abperrors.ConfigInvalid, "openai: chat client is required")
	}
	if opts.DefaultModel == "" {
		return nil, abperrors.New(abperrors.ConfigInvalid, "openai: default model is required")
	}
	return &Backend{chat: chat, defaultModel: opts.DefaultModel}, nil
}

// NewFromAPIKey constructs a Backend using the default OpenAI HTTP client
// authenticated with apiKey. An empty apiKey is rejected with CONFIG_INVALID.
func NewFromAPIKey(apiKey, defaultModel string) (*Backend, error) {
	if apiKey == "" {
		return nil, abperrors.New(abperrors.ConfigInvalid, "openai: api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Chat.Completions, Options{DefaultModel: defaultModel})
}

// Identity implements runtime.Backend.
func (b *Backend) Identity() contract.BackendIdentity {
	return contract.BackendIdentity{ID: "openai"}
}

// Capabilities implements runtime.Backend.
func (b *Backend) Capabilities() contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m[contract.CapStreaming] = contract.NativeLevel()
	m[contract.CapToolRead] = contract.NativeLevel()
	m[contract.CapToolWrite] = contract.NativeLevel()
	m[contract.CapToolExec] = contract.NativeLevel()
	m[contract.CapStructuredOutput] = contract.NativeLevel()
	m[contract.CapImageInput] = contract.NativeLevel()
	m[contract.CapLogprobs] = contract.NativeLevel()
	return m
}

// Run implements runtime.Backend: it issues one chat completion call built
// from the work order's task, then maps the response into events and a
// hashed Receipt.
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

	emit(contract.RunStarted{Message: "openai backend starting: " + wo.Task})

	modelID := b.defaultModel
	if wo.Config.Model != nil && *wo.Config.Model != "" {
		modelID = *wo.Config.Model
	}

	params := sdk.ChatCompletionNewParams{
		Model: modelID,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(wo.Task),
		},
	}

	resp, err := b.chat.New(ctx, params)
	if err != nil {
		emit(contract.ErrorEvent{Message: err.Error(), ErrorCode: string(abperrors.BackendCrashed)})
		return contract.Receipt{}, abperrors.Wrap(abperrors.BackendCrashed, "openai chat completions.new", err)
	}

	for _, choice := range resp.Choices {
		if choice.Message.Content != "" {
			emit(contract.AssistantMessage{Text: choice.Message.Content})
		}
		for _, call := range choice.Message.ToolCalls {
			emit(contract.ToolCall{ToolName: call.Function.Name, ToolUseID: call.ID, Input: call.Function.Arguments})
		}
	}
	emit(contract.RunCompleted{Message: "openai run complete"})

	finished := time.Now().UTC()

	input := resp.Usage.PromptTokens
	output := resp.Usage.CompletionTokens

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
		UsageRaw:     resp,
		Usage: contract.UsageNormalized{
			InputTokens:  &input,
			OutputTokens: &output,
		},
		Trace:        trace,
		Verification: contract.VerificationReport{HarnessOK: true},
		Outcome:      contract.OutcomeComplete,
	}

	return contract.WithHash(receipt)
}
