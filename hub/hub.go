package hub

import (
	"log"
	"sync"
	"time"
)

// Publisher is the outbound side of the hub; the lifecycle engine emits
// events through it without knowing about subscriptions.
type Publisher interface {
	Publish(event Event, scopes ...Scope)
}

// subscriberBuffer is the per-subscriber channel capacity. Delivery is
// non-blocking: a subscriber that falls this far behind loses events and
// heals through the reconciliation poll.
const subscriberBuffer = 32

// Subscriber is one connected client's event feed
type Subscriber struct {
	C      <-chan Event
	ch     chan Event
	hub    *Hub
	scopes map[Scope]struct{}
	mu     sync.Mutex
	closed bool
}

// Hub owns the scope-membership table and fans lifecycle events out to the
// matching subscribers. Membership is ephemeral, in-memory state: a restart
// drops all subscriptions and clients re-join on reconnect.
type Hub struct {
	mu      sync.RWMutex
	members map[Scope]map[*Subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		members: make(map[Scope]map[*Subscriber]struct{}),
	}
}

// Subscribe creates a subscriber joined to the given scopes
func (h *Hub) Subscribe(scopes ...Scope) *Subscriber {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscriber{
		C:      ch,
		ch:     ch,
		hub:    h,
		scopes: make(map[Scope]struct{}),
	}
	for _, scope := range scopes {
		h.Join(sub, scope)
	}
	return sub
}

// Join adds the subscriber to a scope. Joining a scope twice is a no-op.
func (h *Hub) Join(sub *Subscriber, scope Scope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.members[scope]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.members[scope] = set
	}
	set[sub] = struct{}{}

	sub.mu.Lock()
	sub.scopes[scope] = struct{}{}
	sub.mu.Unlock()
}

// Leave removes the subscriber from a scope; delivery to other subscribers
// of the scope is unaffected.
func (h *Hub) Leave(sub *Subscriber, scope Scope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.members[scope]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.members, scope)
		}
	}

	sub.mu.Lock()
	delete(sub.scopes, scope)
	sub.mu.Unlock()
}

// Unsubscribe removes the subscriber from every scope and closes its channel
func (h *Hub) Unsubscribe(sub *Subscriber) {
	sub.mu.Lock()
	scopes := make([]Scope, 0, len(sub.scopes))
	for scope := range sub.scopes {
		scopes = append(scopes, scope)
	}
	alreadyClosed := sub.closed
	sub.closed = true
	sub.mu.Unlock()

	for _, scope := range scopes {
		h.Leave(sub, scope)
	}
	if !alreadyClosed {
		close(sub.ch)
	}
}

// Scopes returns the scopes the subscriber currently holds
func (s *Subscriber) Scopes() []Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	scopes := make([]Scope, 0, len(s.scopes))
	for scope := range s.scopes {
		scopes = append(scopes, scope)
	}
	return scopes
}

// Publish delivers the event to every subscriber of the given scopes. A
// subscriber holding several of the scopes receives the event once per
// publish at most; delivery never blocks the publisher.
func (h *Hub) Publish(event Event, scopes ...Scope) {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}

	h.mu.RLock()
	seen := make(map[*Subscriber]struct{})
	var targets []*Subscriber
	for _, scope := range scopes {
		for sub := range h.members[scope] {
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber is not draining; drop and let the poll heal it.
			log.Printf("hub: dropping %s event for slow subscriber", event.Type)
		}
		sub.mu.Unlock()
	}
}

// SubscriberCount returns the number of subscribers in a scope
func (h *Hub) SubscriberCount(scope Scope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[scope])
}
