package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/runtime"
)

func TestEventRouterDispatchesByKind(t *testing.T) {
	router := runtime.NewEventRouter()

	var toolCalls, wildcard int
	router.On("tool_call", func(contract.AgentEvent) { toolCalls++ })
	router.OnAny(func(contract.AgentEvent) { wildcard++ })

	router.Dispatch(contract.AgentEvent{Kind: contract.ToolCall{ToolName: "bash"}})
	router.Dispatch(contract.AgentEvent{Kind: contract.RunStarted{}})

	assert.Equal(t, 1, toolCalls)
	assert.Equal(t, 2, wildcard)
}

func TestEventRouterMultipleHandlersForSameKind(t *testing.T) {
	router := runtime.NewEventRouter()

	var order []string
	router.On("warning", func(contract.AgentEvent) { order = append(order, "first") })
	router.On("warning", func(contract.AgentEvent) { order = append(order, "second") })

	router.Dispatch(contract.AgentEvent{Kind: contract.Warning{Message: "careful"}})

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 2, router.HandlerCount("warning"))
}

func TestEventRouterHandlerCountForUnknownKindIsZero(t *testing.T) {
	router := runtime.NewEventRouter()
	assert.Equal(t, 0, router.HandlerCount("nonexistent"))
}
