package hub

import (
	"fmt"
	"time"

	"github.com/maribel-ponce/comanda-api/models"
)

// EventType identifies a lifecycle event on the stream
type EventType string

const (
	EventOrderCreated           EventType = "order_created"
	EventOrderAccepted          EventType = "order_accepted"
	EventOrderMerged            EventType = "order_merged"
	EventOrderRejected          EventType = "order_rejected"
	EventOrderStatusChanged     EventType = "order_status_changed"
	EventOrderItemStatusChanged EventType = "order_item_status_changed"
	EventOrderItemReady         EventType = "order_item_ready"
	EventNotification           EventType = "notification"
	EventRequestBill            EventType = "request_bill"
)

// Event is the payload fanned out to subscribers. Payloads are
// self-describing: they carry the full new state, so a client that sees an
// event twice or out of order reconciles against its local copy instead of
// blindly appending.
type Event struct {
	Type           EventType         `json:"type"`
	Order          *models.Order     `json:"order,omitempty"`
	Item           *models.OrderItem `json:"item,omitempty"`
	PreviousStatus string            `json:"previous_status,omitempty"`
	NewStatus      string            `json:"new_status,omitempty"`
	SourceOrderID  uint              `json:"source_order_id,omitempty"` // set on order_merged
	TargetOrderID  uint              `json:"target_order_id,omitempty"` // set on order_merged
	Message        string            `json:"message,omitempty"`
	EmittedAt      time.Time         `json:"emitted_at"`
}

// Scope names a broadcast-membership group. A connection may hold several
// scopes at once; it only receives events published to scopes it has joined.
type Scope string

// RestaurantScope covers all staff dashboards of a restaurant
func RestaurantScope(restaurantID uint) Scope {
	return Scope(fmt.Sprintf("restaurant:%d", restaurantID))
}

// TableScope covers the customer session pinned to one table
func TableScope(restaurantID, tableID uint) Scope {
	return Scope(fmt.Sprintf("table:%d:%d", restaurantID, tableID))
}

// KitchenScope covers the kitchen-display terminals of a restaurant
func KitchenScope(restaurantID uint) Scope {
	return Scope(fmt.Sprintf("kitchen:%d", restaurantID))
}

// WaiterScope is a specific waiter's personal feed
func WaiterScope(userID string) Scope {
	return Scope(fmt.Sprintf("waiter:%s", userID))
}
