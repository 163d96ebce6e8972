package mock_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/backend/mock"
	"github.com/agent-backplane/abp/contract"
)

func TestMockBackendIdentity(t *testing.T) {
	b := mock.New()
	id := b.Identity()
	assert.Equal(t, "mock", id.ID)
	require.NotNil(t, id.BackendVersion)
	require.NotNil(t, id.AdapterVersion)
}

func TestMockBackendCapabilitiesAreNativeOrEmulated(t *testing.T) {
	caps := mock.New().Capabilities()
	streaming, ok := caps.Get(contract.CapStreaming)
	require.True(t, ok)
	assert.Equal(t, contract.NativeLevel(), streaming)
	toolRead, ok := caps.Get(contract.CapToolRead)
	require.True(t, ok)
	assert.Equal(t, contract.EmulatedLevel(), toolRead)
}

func TestMockBackendRunEmitsDeterministicSequenceAndReceipt(t *testing.T) {
	b := mock.New()
	wo := contract.NewWorkOrderBuilder("say hello").Build()
	events := make(chan contract.AgentEvent, 16)

	receipt, err := b.Run(context.Background(), uuid.New(), wo, events)
	require.NoError(t, err)
	close(events)

	var kinds []string
	for ev := range events {
		kinds = append(kinds, ev.Kind.Type())
	}
	assert.Equal(t, []string{"run_started", "assistant_message", "assistant_message", "run_completed"}, kinds)

	assert.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	assert.True(t, receipt.Verification.HarnessOK)
	require.NotNil(t, receipt.ReceiptSHA256)
	assert.True(t, contract.VerifyHash(receipt))
	require.NotNil(t, receipt.Usage.InputTokens)
	assert.Equal(t, int64(0), *receipt.Usage.InputTokens)
}

func TestMockBackendRejectsUnsatisfiableRequirement(t *testing.T) {
	b := mock.New()
	wo := contract.NewWorkOrderBuilder("needs native tool exec").
		Requirements(contract.CapabilityRequirements{Required: []contract.CapabilityRequirement{
			{Capability: contract.CapToolExec, MinSupport: contract.MinNative},
		}}).
		Build()
	events := make(chan contract.AgentEvent, 4)

	_, err := b.Run(context.Background(), uuid.New(), wo, events)
	require.Error(t, err)
}
