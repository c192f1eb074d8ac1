package models

import (
	"time"

	"gorm.io/gorm"
)

// Order status values. PendingReview and Pending are both "awaiting waiter
// acceptance"; new orders are always created as pending_review.
const (
	OrderStatusPendingReview = "pending_review"
	OrderStatusPending       = "pending"
	OrderStatusInProgress    = "in_progress"
	OrderStatusCompleted     = "completed"
	OrderStatusCancelled     = "cancelled"
)

// CancelReasonMerged marks an order that was cancelled because its items
// were merged into another active order for the same table.
const CancelReasonMerged = "merged"

// Order represents a dine-in order (a "ticket") for one table
type Order struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	RestaurantID uint           `gorm:"not null;index:idx_orders_restaurant_table" json:"restaurant_id"`
	TableID      uint           `gorm:"not null;index:idx_orders_restaurant_table" json:"table_id"`
	Status       string         `gorm:"not null;default:'pending_review';index" json:"status"`
	TotalAmount  int64          `gorm:"not null;default:0" json:"total_amount"` // derived from items, never trusted from clients
	GuestCount   int            `gorm:"not null;default:1" json:"guest_count"`
	Note         string         `gorm:"type:text" json:"note"`
	WaiterID     *string        `gorm:"index" json:"waiter_id"`   // opaque identity from the auth collaborator
	CustomerID   *string        `gorm:"index" json:"customer_id"` // opaque identity from the auth collaborator
	CancelReason *string        `json:"cancel_reason,omitempty"`
	Items        []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	Payment      *Payment       `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// NonTerminalOrderStatuses are the statuses in which an order still occupies
// its table. At most one order per (restaurant, table) may hold one of these.
func NonTerminalOrderStatuses() []string {
	return []string{OrderStatusPendingReview, OrderStatusPending, OrderStatusInProgress}
}

// IsTerminal reports whether the order accepts no further transitions
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// ComputeTotal derives the order total from its non-cancelled items:
// pricePerUnit*quantity plus each modifier's priceAdjustment*quantity.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for i := range o.Items {
		if o.Items[i].Status == ItemStatusCancelled {
			continue
		}
		total += o.Items[i].LineTotal()
	}
	return total
}
