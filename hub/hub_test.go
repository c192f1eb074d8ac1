package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maribel-ponce/comanda-api/models"
)

func drain(sub *Subscriber) []Event {
	var events []Event
	for {
		select {
		case e, open := <-sub.C:
			if !open {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestPublish_ScopedDelivery(t *testing.T) {
	h := NewHub()

	kitchen := h.Subscribe(KitchenScope(1))
	waiter := h.Subscribe(RestaurantScope(1), WaiterScope("auth0|waiter1"))
	customer := h.Subscribe(TableScope(1, 7))
	otherRestaurant := h.Subscribe(RestaurantScope(2))

	h.Publish(Event{Type: EventOrderCreated, Order: &models.Order{RestaurantID: 1, TableID: 7}},
		RestaurantScope(1), TableScope(1, 7), KitchenScope(1))

	assert.Len(t, drain(kitchen), 1)
	assert.Len(t, drain(waiter), 1)
	assert.Len(t, drain(customer), 1)
	assert.Empty(t, drain(otherRestaurant))
}

func TestPublish_MultiScopeSubscriberReceivesOnce(t *testing.T) {
	h := NewHub()

	// A waiter dashboard typically holds both the restaurant scope and its
	// personal feed; one publish must not arrive twice.
	sub := h.Subscribe(RestaurantScope(1), WaiterScope("auth0|waiter1"))

	h.Publish(Event{Type: EventOrderItemReady}, RestaurantScope(1), WaiterScope("auth0|waiter1"))

	assert.Len(t, drain(sub), 1)
}

func TestJoinLeave(t *testing.T) {
	h := NewHub()

	sub := h.Subscribe(RestaurantScope(1))
	assert.Equal(t, 1, h.SubscriberCount(RestaurantScope(1)))

	h.Join(sub, KitchenScope(1))
	h.Publish(Event{Type: EventOrderItemStatusChanged}, KitchenScope(1))
	assert.Len(t, drain(sub), 1)

	// Leaving a scope stops delivery for it but not for other subscribers
	other := h.Subscribe(KitchenScope(1))
	h.Leave(sub, KitchenScope(1))
	h.Publish(Event{Type: EventOrderItemStatusChanged}, KitchenScope(1))
	assert.Empty(t, drain(sub))
	assert.Len(t, drain(other), 1)
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	h := NewHub()

	sub := h.Subscribe(RestaurantScope(1), KitchenScope(1))
	h.Unsubscribe(sub)

	assert.Equal(t, 0, h.SubscriberCount(RestaurantScope(1)))
	assert.Equal(t, 0, h.SubscriberCount(KitchenScope(1)))

	_, open := <-sub.C
	assert.False(t, open)

	// Publishing after unsubscribe must not panic on the closed channel
	h.Publish(Event{Type: EventNotification}, RestaurantScope(1))
}

func TestPublish_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()

	sub := h.Subscribe(RestaurantScope(1))

	// Fill well past the buffer; Publish must return promptly every time
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(Event{Type: EventOrderStatusChanged}, RestaurantScope(1))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The subscriber still gets the buffered prefix
	assert.Len(t, drain(sub), subscriberBuffer)
}

func TestPublish_StampsEmittedAt(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(TableScope(1, 7))

	h.Publish(Event{Type: EventOrderCreated}, TableScope(1, 7))

	events := drain(sub)
	require.Len(t, events, 1)
	assert.False(t, events[0].EmittedAt.IsZero())
}

func TestScopeNames(t *testing.T) {
	assert.Equal(t, Scope("restaurant:1"), RestaurantScope(1))
	assert.Equal(t, Scope("table:1:7"), TableScope(1, 7))
	assert.Equal(t, Scope("kitchen:1"), KitchenScope(1))
	assert.Equal(t, Scope("waiter:auth0|w1"), WaiterScope("auth0|w1"))
}
