package models

import "time"

const (
	PaymentStatusCreated  = "created"
	PaymentStatusPaid     = "paid"
	PaymentStatusOverdue  = "overdue"
	PaymentStatusRefunded = "refunded"
	PaymentStatusCanceled = "canceled"
	PaymentStatusUpdated  = "updated"
	PaymentStatusUnknown  = "unknown"
)

// Payment is one charge reported by the payment gateway. ExternalID is the
// idempotency key: the unique index guarantees at most one row per gateway
// payment id even when webhook deliveries race (losing insert fails and the
// retry lands as an update).
type Payment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SubscriptionID uint       `gorm:"index" json:"subscription_id"`
	UserID         uint       `gorm:"index" json:"user_id"`
	ExternalID     string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_external_id" json:"external_id"`
	Amount         float64    `gorm:"type:numeric(10,2);not null;default:0" json:"amount"`
	Status         string     `gorm:"type:varchar(32);not null;default:'created';index" json:"status"`
	Method         string     `gorm:"type:varchar(32);not null;default:''" json:"method"`
	DueDate        *time.Time `gorm:"type:timestamp;default:null" json:"due_date,omitempty"`
	PaidDate       *time.Time `gorm:"type:timestamp;default:null" json:"paid_date,omitempty"`
	Description    string     `gorm:"type:text" json:"description"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
