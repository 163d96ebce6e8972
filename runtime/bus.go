package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/agent-backplane/abp/contract"
)

// defaultBusCapacity is each subscriber channel's buffer size.
const defaultBusCapacity = 256

// EventBus fans an AgentEvent out to every current subscriber, tracking
// publish/drop statistics the way the runtime's metrics surface them.
// Publishing when a subscriber's buffer is full drops the event for that
// subscriber rather than blocking the publisher.
type EventBus struct {
	mu             sync.RWMutex
	subs           map[chan contract.AgentEvent]struct{}
	capacity       int
	totalPublished atomic.Uint64
	droppedEvents  atomic.Uint64
}

// NewEventBus constructs an EventBus with the default subscriber buffer size.
func NewEventBus() *EventBus {
	return NewEventBusWithCapacity(defaultBusCapacity)
}

// NewEventBusWithCapacity constructs an EventBus whose subscriber channels
// buffer up to capacity events before Publish starts dropping for them.
func NewEventBusWithCapacity(capacity int) *EventBus {
	return &EventBus{
		subs:     make(map[chan contract.AgentEvent]struct{}),
		capacity: capacity,
	}
}

// Subscribe registers a new subscription that receives every event
// published after this call.
func (b *EventBus) Subscribe() *EventSubscription {
	ch := make(chan contract.AgentEvent, b.capacity)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return &EventSubscription{ch: ch, bus: b}
}

// Publish delivers event to every current subscriber. A subscriber whose
// buffer is full has the event dropped for it and counted in statistics,
// rather than stalling every other subscriber or the publisher.
func (b *EventBus) Publish(event contract.AgentEvent) {
	b.totalPublished.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Stats returns a point-in-time snapshot of bus statistics.
func (b *EventBus) Stats() EventBusStats {
	return EventBusStats{
		TotalPublished:    b.totalPublished.Load(),
		ActiveSubscribers: b.SubscriberCount(),
		DroppedEvents:     b.droppedEvents.Load(),
	}
}

func (b *EventBus) unsubscribe(ch chan contract.AgentEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// EventBusStats is a snapshot of an EventBus's publish/drop counters.
type EventBusStats struct {
	TotalPublished    uint64
	ActiveSubscribers int
	DroppedEvents     uint64
}

// EventSubscription is a live registration on an EventBus.
type EventSubscription struct {
	ch   chan contract.AgentEvent
	bus  *EventBus
	once sync.Once
}

// C returns the receive-only channel events are delivered on. It is closed
// when Close is called.
func (s *EventSubscription) C() <-chan contract.AgentEvent { return s.ch }

// Close unregisters the subscription. Idempotent and safe to call more than once.
func (s *EventSubscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s.ch)
	})
}
