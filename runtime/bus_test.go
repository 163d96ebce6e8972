package runtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/runtime"
)

func TestEventBusDeliversToAllSubscribers(t *testing.T) {
	bus := runtime.NewEventBus()
	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()
	defer sub1.Close()
	defer sub2.Close()

	bus.Publish(contract.AgentEvent{Kind: contract.RunStarted{Message: "go"}})

	for _, sub := range []*runtime.EventSubscription{sub1, sub2} {
		select {
		case ev := <-sub.C():
			_, ok := ev.Kind.(contract.RunStarted)
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}

	stats := bus.Stats()
	assert.Equal(t, uint64(1), stats.TotalPublished)
	assert.Equal(t, 2, stats.ActiveSubscribers)
	assert.Equal(t, uint64(0), stats.DroppedEvents)
}

func TestEventBusCloseUnsubscribes(t *testing.T) {
	bus := runtime.NewEventBus()
	sub := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	sub.Close()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, ok := <-sub.C()
	assert.False(t, ok, "channel should be closed")
}

func TestEventBusDropsWhenSubscriberBufferFull(t *testing.T) {
	bus := runtime.NewEventBusWithCapacity(1)
	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(contract.AgentEvent{Kind: contract.RunStarted{}})
	bus.Publish(contract.AgentEvent{Kind: contract.RunCompleted{}})

	stats := bus.Stats()
	assert.Equal(t, uint64(2), stats.TotalPublished)
	assert.Equal(t, uint64(1), stats.DroppedEvents)
}

func TestEventBusSubscribeAfterPublishMissesEarlierEvents(t *testing.T) {
	bus := runtime.NewEventBus()
	bus.Publish(contract.AgentEvent{Kind: contract.RunStarted{}})

	sub := bus.Subscribe()
	defer sub.Close()

	select {
	case <-sub.C():
		t.Fatal("should not have received an event published before subscribing")
	case <-time.After(50 * time.Millisecond):
	}
}
