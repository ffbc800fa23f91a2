// Package events carries pipeline notifications to downstream consumers.
//
// The original callback-style emitter is expressed here as an explicit
// subscription abstraction: consumers subscribe to the event types they care
// about and receive them on a channel. Publishing never blocks the pipeline;
// a subscriber that falls behind loses events rather than stalling a
// regeneration run.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type identifies a pipeline event.
type Type string

// The set of emitted event types is part of the external contract.
const (
	SchemaExtracted        Type = "schema-extracted"
	RegenerationComplete   Type = "regeneration-complete"
	RegenerationError      Type = "regeneration-error"
	WatcherError           Type = "watcher-error"
	FrontendUpdateRequired Type = "frontend-update-required"
)

// Event is a single pipeline notification.
type Event struct {
	Type      Type                   `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// subscriber is one registered consumer with its type filter.
type subscriber struct {
	ch    chan Event
	types map[Type]bool // empty = all types
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	logger *zap.SugaredLogger
}

// subscriberBuffer is the per-subscriber channel depth. Bursts beyond this
// while the consumer is away are dropped, not queued unboundedly.
const subscriberBuffer = 16

// NewBus creates an event bus.
func NewBus(logger *zap.SugaredLogger) *Bus {
	return &Bus{
		subs:   make(map[int]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a consumer for the given event types (all types when
// none are given). The returned cancel function unregisters the consumer and
// closes its channel; it is safe to call more than once.
func (b *Bus) Subscribe(types ...Type) (<-chan Event, func()) {
	sub := &subscriber{
		ch:    make(chan Event, subscriberBuffer),
		types: make(map[Type]bool, len(types)),
	}
	for _, t := range types {
		sub.types[t] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to every matching subscriber without blocking.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.types) > 0 && !sub.types[evt.Type] {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.logger.Warnw("Dropping event for slow subscriber",
				"event_type", evt.Type)
		}
	}
}

// Emit is a convenience wrapper building an Event from a type and payload.
func (b *Bus) Emit(t Type, payload map[string]interface{}) {
	b.Publish(Event{Type: t, Timestamp: time.Now(), Payload: payload})
}
