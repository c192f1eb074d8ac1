package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem status values
const (
	ItemStatusQueued    = "queued"
	ItemStatusPreparing = "preparing"
	ItemStatusReady     = "ready"
	ItemStatusServed    = "served"
	ItemStatusCancelled = "cancelled"
)

// OrderItem represents one line of an order. PricePerUnit is snapshotted from
// the catalog at creation time and never changes afterwards.
type OrderItem struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	OrderID      uint                `gorm:"not null;index" json:"order_id"`
	MenuItemID   uint                `gorm:"not null;index" json:"menu_item_id"` // reference into the external catalog
	Name         string              `gorm:"not null" json:"name"`               // denormalized catalog snapshot
	Quantity     int                 `gorm:"not null;check:quantity > 0" json:"quantity"`
	PricePerUnit int64               `gorm:"not null" json:"price_per_unit"`
	Status       string              `gorm:"not null;default:'queued';index" json:"status"`
	Note         *string             `gorm:"type:text" json:"note,omitempty"`
	Modifiers    []OrderItemModifier `gorm:"foreignKey:OrderItemID" json:"modifiers"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	DeletedAt    gorm.DeletedAt      `gorm:"index" json:"-"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal returns pricePerUnit*quantity plus modifier adjustments per unit
func (i *OrderItem) LineTotal() int64 {
	total := i.PricePerUnit * int64(i.Quantity)
	for m := range i.Modifiers {
		total += i.Modifiers[m].PriceAdjustment * int64(i.Quantity)
	}
	return total
}

// OrderItemModifier is a priced option attached to an order item. Name and
// price adjustment are snapshotted from the catalog; the row is immutable.
type OrderItemModifier struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OrderItemID      uint      `gorm:"not null;index" json:"order_item_id"`
	ModifierOptionID *uint     `json:"modifier_option_id,omitempty"` // reference into the external catalog
	ModifierName     string    `gorm:"not null" json:"modifier_name"`
	PriceAdjustment  int64     `gorm:"not null;default:0" json:"price_adjustment"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderItemModifier model
func (OrderItemModifier) TableName() string {
	return "order_item_modifiers"
}
