package openai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/backend/openai"
	"github.com/agent-backplane/abp/contract"
)

type fakeChatClient struct {
	resp *sdk.ChatCompletion
	err  error
	got  sdk.ChatCompletionNewParams
}

func (f *fakeChatClient) New(_ context.Context, body sdk.ChatCompletionNewParams, _ ...option.RequestOption) (*sdk.ChatCompletion, error) {
	f.got = body
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestWorkOrder(t *testing.T, task string) contract.WorkOrder {
	t.Helper()
	return contract.NewWorkOrderBuilder(task).
		Workspace(contract.WorkspaceSpec{Mode: contract.WorkspacePassThrough, Root: t.TempDir()}).
		Build()
}

func TestNewRejectsMissingClient(t *testing.T) {
	_, err := openai.New(nil, openai.Options{DefaultModel: "gpt-x"})
	require.Error(t, err)
}

func TestNewRejectsMissingDefaultModel(t *testing.T) {
	_, err := openai.New(&fakeChatClient{}, openai.Options{})
	require.Error(t, err)
}

func TestRunMapsMessageAndToolCallsIntoEvents(t *testing.T) {
	client := &fakeChatClient{
		resp: &sdk.ChatCompletion{
			Choices: []sdk.ChatCompletionChoice{
				{
					Message: sdk.ChatCompletionMessage{
						Content: "hello there",
						ToolCalls: []sdk.ChatCompletionMessageToolCall{
							{
								ID: "call_1",
								Function: sdk.ChatCompletionMessageToolCallFunction{
									Name:      "read_file",
									Arguments: `{"path":"a.go"}`,
								},
							},
						},
					},
				},
			},
			Usage: sdk.CompletionUsage{PromptTokens: 10, CompletionTokens: 5},
		},
	}
	b, err := openai.New(client, openai.Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	wo := newTestWorkOrder(t, "summarize a.go")
	events := make(chan contract.AgentEvent, 16)

	receipt, err := b.Run(context.Background(), uuid.New(), wo, events)
	require.NoError(t, err)
	close(events)

	var kinds []string
	for ev := range events {
		kinds = append(kinds, ev.Kind.Type())
	}
	assert.Equal(t, []string{"run_started", "assistant_message", "tool_call", "run_completed"}, kinds)

	assert.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	require.NotNil(t, receipt.Usage.InputTokens)
	assert.Equal(t, int64(10), *receipt.Usage.InputTokens)
	assert.Equal(t, int64(5), *receipt.Usage.OutputTokens)
	assert.True(t, contract.VerifyHash(receipt))
	assert.Equal(t, "gpt-x", client.got.Model)
}

func TestRunSurfacesBackendErrorAsErrorEvent(t *testing.T) {
	client := &fakeChatClient{err: errors.New("rate limited")}
	b, err := openai.New(client, openai.Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	wo := newTestWorkOrder(t, "do something")
	events := make(chan contract.AgentEvent, 16)

	_, err = b.Run(context.Background(), uuid.New(), wo, events)
	require.Error(t, err)
	close(events)

	var sawError bool
	for ev := range events {
		if ev.Kind.Type() == "error" {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestRunPrefersWorkOrderModelOverDefault(t *testing.T) {
	client := &fakeChatClient{resp: &sdk.ChatCompletion{}}
	b, err := openai.New(client, openai.Options{DefaultModel: "gpt-default"})
	require.NoError(t, err)

	model := "gpt-override"
	wo := newTestWorkOrder(t, "task")
	wo.Config.Model = &model
	events := make(chan contract.AgentEvent, 16)

	_, err = b.Run(context.Background(), uuid.New(), wo, events)
	require.NoError(t, err)
	assert.Equal(t, "gpt-override", client.got.Model)
}
