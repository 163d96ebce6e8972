package anthropic_test

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/backend/anthropic"
	"github.com/agent-backplane/abp/contract"
)

type fakeMessagesClient struct {
	resp *sdk.Message
	err  error
	got  sdk.MessageNewParams
}

func (f *fakeMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
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
	_, err := anthropic.New(nil, anthropic.Options{DefaultModel: "claude-x"})
	require.Error(t, err)
}

func TestNewRejectsMissingDefaultModel(t *testing.T) {
	_, err := anthropic.New(&fakeMessagesClient{}, anthropic.Options{})
	require.Error(t, err)
}

func TestNewDefaultsMaxTokensWhenUnset(t *testing.T) {
	b, err := anthropic.New(&fakeMessagesClient{resp: &sdk.Message{}}, anthropic.Options{DefaultModel: "claude-x"})
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestRunMapsTextAndToolUseBlocksIntoEvents(t *testing.T) {
	client := &fakeMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "hello there"},
				{Type: "tool_use", Name: "read_file", ID: "tu_1", Input: []byte(`{"path":"a.go"}`)},
			},
			Usage: sdk.Usage{InputTokens: 10, OutputTokens: 5},
		},
	}
	b, err := anthropic.New(client, anthropic.Options{DefaultModel: "claude-x", MaxTokens: 1024})
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
	assert.Equal(t, sdk.Model("claude-x"), client.got.Model)
}

func TestRunSurfacesBackendErrorAsErrorEvent(t *testing.T) {
	client := &fakeMessagesClient{err: errors.New("rate limited")}
	b, err := anthropic.New(client, anthropic.Options{DefaultModel: "claude-x"})
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
	client := &fakeMessagesClient{resp: &sdk.Message{}}
	b, err := anthropic.New(client, anthropic.Options{DefaultModel: "claude-default"})
	require.NoError(t, err)

	model := "claude-override"
	wo := newTestWorkOrder(t, "task")
	wo.Config.Model = &model
	events := make(chan contract.AgentEvent, 16)

	_, err = b.Run(context.Background(), uuid.New(), wo, events)
	require.NoError(t, err)
	assert.Equal(t, sdk.Model("claude-override"), client.got.Model)
}
