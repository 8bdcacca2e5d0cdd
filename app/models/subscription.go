package models

import "time"

const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusExpired  = "expired"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusUpdated  = "updated"
)

// Subscription mirrors the gateway subscription state for a user and carries
// the plan the user is billed for. A user has at most one active subscription;
// rows are closed (canceled/expired), never deleted.
type Subscription struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index:idx_subscriptions_user_status,priority:1" json:"user_id"`
	PlanID        string     `gorm:"type:varchar(50);not null;index" json:"plan_id"`
	PendingPlanID string     `gorm:"type:varchar(50);not null;default:''" json:"pending_plan_id,omitempty"`
	ExternalID    string     `gorm:"type:varchar(191);not null;default:'';uniqueIndex:ux_subscriptions_external_id" json:"external_id"`
	Status        string     `gorm:"type:varchar(32);not null;default:'active';index:idx_subscriptions_user_status,priority:2" json:"status"`
	BillingCycle  string     `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	Price         float64    `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	NextDueDate   *time.Time `gorm:"type:timestamp;default:null" json:"next_due_date,omitempty"`
	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	LastPaymentAt *time.Time `gorm:"type:timestamp;default:null" json:"last_payment_at,omitempty"`
	AutoRenew     bool       `gorm:"default:true" json:"auto_renew"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the subscription entitles the user right now.
// Staleness of NextDueDate is handled by the billing resolver, not here.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// HasPendingChange reports whether a deferred plan change is waiting for the
// next renewal boundary.
func (s *Subscription) HasPendingChange() bool {
	return s.PendingPlanID != "" && s.PendingPlanID != s.PlanID
}
