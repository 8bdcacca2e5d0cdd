package billing

import (
	"context"
	"time"
)

// SubscriptionStatus is the internal subscription state vocabulary. All
// gateway statuses pass through TranslateEvent; nothing else may mint values.
type SubscriptionStatus string

const (
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusExpired  SubscriptionStatus = "expired"
	SubStatusCanceled SubscriptionStatus = "canceled"
	SubStatusUpdated  SubscriptionStatus = "updated"
	SubStatusUnknown  SubscriptionStatus = "unknown"
)

// PaymentStatus is the internal payment state vocabulary.
type PaymentStatus string

const (
	PayStatusCreated  PaymentStatus = "created"
	PayStatusPaid     PaymentStatus = "paid"
	PayStatusOverdue  PaymentStatus = "overdue"
	PayStatusRefunded PaymentStatus = "refunded"
	PayStatusCanceled PaymentStatus = "canceled"
	PayStatusUpdated  PaymentStatus = "updated"
	PayStatusUnknown  PaymentStatus = "unknown"
)

// EventKind partitions gateway events by their payload object.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindPayment
	EventKindSubscription
)

// WebhookEvent is the decoded gateway notification. Exactly one of Payment
// and Subscription is set for known event kinds.
type WebhookEvent struct {
	Event        string               `json:"event"`
	Payment      *PaymentPayload      `json:"payment,omitempty"`
	Subscription *SubscriptionPayload `json:"subscription,omitempty"`
}

// PaymentPayload is the gateway's payment object as delivered in webhooks.
type PaymentPayload struct {
	ID           string  `json:"id"`
	Subscription string  `json:"subscription"`
	Customer     string  `json:"customer"`
	Value        float64 `json:"value"`
	BillingType  string  `json:"billingType"`
	DueDate      string  `json:"dueDate"`
	PaymentDate  string  `json:"paymentDate"`
	Description  string  `json:"description"`
}

// SubscriptionPayload is the gateway's subscription object as delivered in
// webhooks.
type SubscriptionPayload struct {
	ID          string  `json:"id"`
	Customer    string  `json:"customer"`
	Value       float64 `json:"value"`
	NextDueDate string  `json:"nextDueDate"`
	Status      string  `json:"status"`
	Cycle       string  `json:"cycle"`
	Deleted     bool    `json:"deleted"`
}

// SubscriptionInfo is the resolver's public view of a subscription.
type SubscriptionInfo struct {
	PlanID        string       `json:"plan_id"`
	PendingPlanID string       `json:"pending_plan_id,omitempty"`
	Price         float64      `json:"price"`
	Cycle         BillingCycle `json:"cycle"`
	NextDueDate   *time.Time   `json:"next_due_date,omitempty"`
	AutoRenew     bool         `json:"auto_renew"`
}

// StatusResult is the resolver contract: Status is "active", "expired" or
// "inactive"; Subscription is set only for "active".
type StatusResult struct {
	Status       string            `json:"status"`
	Subscription *SubscriptionInfo `json:"subscription,omitempty"`
}

// ChangeResult is the plan-change orchestrator contract. Upgrades carry a
// checkout redirect; downgrades set Deferred and no URL.
type ChangeResult struct {
	CheckoutURL string  `json:"checkout_url,omitempty"`
	AmountDue   float64 `json:"amount_due"`
	Deferred    bool    `json:"deferred"`
}

// CheckoutRequest is what the orchestrator sends to the gateway for an
// upgrade or first subscription.
type CheckoutRequest struct {
	UserID      uint
	CustomerRef string
	PlanID      string
	Cycle       BillingCycle
	Amount      float64
	Description string
}

// Checkout is the gateway's answer: the external ids to correlate later
// webhook events, plus the page the user must be redirected to.
type Checkout struct {
	PaymentID      string
	SubscriptionID string
	RedirectURL    string
}

// Gateway abstracts the payment provider. The production implementation is
// the Asaas REST client; tests inject a fake.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	CancelSubscription(ctx context.Context, externalID string) error
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	TokenValid      bool
}
