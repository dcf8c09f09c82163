// Package bus is the in-process event bus that keeps every surface showing
// membership state reconciled after a toggle.
package bus

import (
	"context"
	"sync"

	"academia/internal/models"
	"academia/internal/observability"
)

// MembershipEvent is published after every membership toggle. The JSON field
// names are part of the client contract and must not change.
//
// Academy carries the full document as of the publication: the client's
// optimistic copy for the provisional publication, the server's document for
// the authoritative one. Subscribers replace their copy wholesale rather
// than merging fields.
type MembershipEvent struct {
	AcademyID string          `json:"academyId"`
	Academy   *models.Academy `json:"academy"`
	IsJoining bool            `json:"isJoining"`
	UserID    string          `json:"userId"`

	// Provisional marks the optimistic publication that precedes the server
	// round trip. The authoritative publication after a confirmed toggle has
	// it unset. Never serialized; surfaces use it to decide whether a later
	// event may still supersede this one.
	Provisional bool `json:"-"`
}

// Handler receives membership events. Handlers run synchronously on the
// publishing goroutine; a slow handler delays the publisher.
type Handler func(ctx context.Context, event MembershipEvent)

// Bus fans membership events out to subscribed surfaces in-process.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes it.
// Events published before Subscribe returns are not delivered to the
// handler; surfaces mounting late fetch current state instead.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every subscribed handler.
func (b *Bus) Publish(ctx context.Context, event MembershipEvent) {
	phase := "authoritative"
	if event.Provisional {
		phase = "provisional"
	}
	observability.EventsPublished.WithLabelValues("membership", phase).Inc()

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
