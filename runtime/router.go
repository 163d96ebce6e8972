package runtime

import (
	"sync"

	"github.com/agent-backplane/abp/contract"
)

// EventHandler reacts to a single AgentEvent.
type EventHandler func(event contract.AgentEvent)

// EventRouter dispatches events to handlers registered by EventKind tag,
// plus any handlers registered to receive every event regardless of kind.
// It is the synchronous complement to EventBus: where EventBus fans an
// event out to independent subscriber channels, EventRouter calls
// in-process handlers directly on the publishing goroutine.
type EventRouter struct {
	mu       sync.RWMutex
	byKind   map[string][]EventHandler
	wildcard []EventHandler
}

// NewEventRouter constructs an empty EventRouter.
func NewEventRouter() *EventRouter {
	return &EventRouter{byKind: make(map[string][]EventHandler)}
}

// On registers handler to be invoked for every event whose Kind tag matches
// kind (e.g. "message_delta", "tool_call").
func (r *EventRouter) On(kind string, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[kind] = append(r.byKind[kind], handler)
}

// OnAny registers handler to be invoked for every event regardless of kind.
func (r *EventRouter) OnAny(handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wildcard = append(r.wildcard, handler)
}

// Dispatch invokes every handler registered for event's kind, followed by
// every wildcard handler, in registration order.
func (r *EventRouter) Dispatch(event contract.AgentEvent) {
	kind := event.Kind.Type()

	r.mu.RLock()
	handlers := append([]EventHandler(nil), r.byKind[kind]...)
	wildcard := append([]EventHandler(nil), r.wildcard...)
	r.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	for _, h := range wildcard {
		h(event)
	}
}

// HandlerCount returns the number of handlers registered for kind, not
// counting wildcard handlers.
func (r *EventRouter) HandlerCount(kind string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKind[kind])
}
