package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment method values
const (
	PaymentMethodCash    = "cash"
	PaymentMethodCard    = "card"
	PaymentMethodEWallet = "e_wallet"
)

// PaymentStatusCompleted is the only status the core records; capture and
// settlement happen in the external payment collaborator.
const PaymentStatusCompleted = "completed"

// Payment records the completed payment for an order. One-to-one with a
// completed order; created only when the order reaches completed.
type Payment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   uint           `gorm:"not null;uniqueIndex" json:"order_id"`
	Amount    int64          `gorm:"not null" json:"amount"`
	Method    string         `gorm:"not null" json:"method"`
	Status    string         `gorm:"not null;default:'completed'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
