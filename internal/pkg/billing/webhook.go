package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

const gatewayDateLayout = "2006-01-02"

// ParseWebhookEvent decodes a raw webhook body. An empty event name is a
// malformed delivery and gets rejected before any translation happens.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrInvalidInput)
	}
	return &event, nil
}

// HandleWebhookEvent applies a decoded gateway notification to local state.
//
// Payment events upsert the payment row keyed on the gateway payment id, so a
// redelivered webhook converges on the same row instead of duplicating it.
// Subscription events update the matching subscription row; events that
// reference nothing we know are acknowledged and dropped, since retrying them
// can never succeed.
func (s *Service) HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidInput)
	}

	kind, payStatus, subStatus := TranslateEvent(event.Event)
	switch kind {
	case EventKindPayment:
		return s.handlePaymentEvent(ctx, event, payStatus)
	case EventKindSubscription:
		return s.handleSubscriptionEvent(ctx, event, subStatus)
	}

	// Unknown event families are acknowledged so the gateway stops
	// redelivering them. The raw payload stays in billing_webhook_events.
	return nil
}

func (s *Service) handlePaymentEvent(ctx context.Context, event *WebhookEvent, status PaymentStatus) error {
	_ = ctx
	if event.Payment == nil || event.Payment.ID == "" {
		return fmt.Errorf("%w: payment event without payment object", ErrInvalidInput)
	}
	if status == PayStatusUnknown {
		return nil
	}

	payload := event.Payment
	sub, err := s.repo.SubscriptionByExternalID(payload.Subscription)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Payment for a subscription we never created. Nothing to attach
			// it to; drop it.
			return nil
		}
		return err
	}

	payment := &models.Payment{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		ExternalID:     payload.ID,
		Amount:         payload.Value,
		Status:         string(status),
		Method:         payload.BillingType,
		Description:    payload.Description,
	}
	if due, ok := parseGatewayDate(payload.DueDate); ok {
		payment.DueDate = &due
	}
	if paid, ok := parseGatewayDate(payload.PaymentDate); ok {
		payment.PaidDate = &paid
	}
	if err := s.repo.UpsertPayment(payment); err != nil {
		return err
	}

	switch status {
	case PayStatusPaid:
		return s.activateOnPayment(sub, payment)
	case PayStatusOverdue:
		sub.Status = models.SubscriptionStatusExpired
		return s.repo.SaveSubscription(sub)
	}
	return nil
}

// activateOnPayment is the renewal boundary: the subscription becomes active,
// a deferred plan change (if any) is promoted, and the next due date advances
// by one cycle from the payment date.
func (s *Service) activateOnPayment(sub *models.Subscription, payment *models.Payment) error {
	paidAt := time.Now()
	if payment.PaidDate != nil {
		paidAt = *payment.PaidDate
	}

	if sub.PendingPlanID != "" {
		if pending, ok := PlanByID(sub.PendingPlanID); ok {
			sub.PlanID = pending.ID
			sub.Price = pending.Price
			sub.BillingCycle = string(pending.Cycle)
		}
		sub.PendingPlanID = ""
	}

	plan, ok := PlanByID(sub.PlanID)
	if !ok {
		plan = Plan{Cycle: BillingCycle(sub.BillingCycle)}
	}
	next := paidAt.AddDate(0, 0, plan.CycleDays())

	sub.Status = models.SubscriptionStatusActive
	sub.LastPaymentAt = &paidAt
	sub.NextDueDate = &next
	if sub.StartedAt.IsZero() {
		sub.StartedAt = paidAt
	}
	return s.repo.SaveSubscription(sub)
}

func (s *Service) handleSubscriptionEvent(ctx context.Context, event *WebhookEvent, status SubscriptionStatus) error {
	_ = ctx
	if event.Subscription == nil || event.Subscription.ID == "" {
		return fmt.Errorf("%w: subscription event without subscription object", ErrInvalidInput)
	}
	if status == SubStatusUnknown {
		return nil
	}

	payload := event.Subscription
	sub, err := s.repo.SubscriptionByExternalID(payload.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The gateway knows subscriptions we did not create through a
			// checkout. Those are not ours to track.
			return nil
		}
		return err
	}

	switch status {
	case SubStatusActive:
		sub.Status = models.SubscriptionStatusActive
	case SubStatusCanceled:
		sub.Status = models.SubscriptionStatusCanceled
		sub.AutoRenew = false
		sub.PendingPlanID = ""
	case SubStatusExpired:
		sub.Status = models.SubscriptionStatusExpired
	case SubStatusUpdated:
		// Price or schedule changed at the gateway; mirror the fields but
		// keep the lifecycle status. "updated" only marks checkout limbo
		// rows, and demoting an active row here would revoke access on a
		// mere price change.
		if payload.Value > 0 {
			sub.Price = payload.Value
		}
		if cycle, ok := parseGatewayCycle(payload.Cycle); ok {
			sub.BillingCycle = cycle
		}
		if payload.Deleted {
			sub.Status = models.SubscriptionStatusCanceled
			sub.AutoRenew = false
			sub.PendingPlanID = ""
		}
	}

	if next, ok := parseGatewayDate(payload.NextDueDate); ok {
		sub.NextDueDate = &next
	}
	return s.repo.SaveSubscription(sub)
}

// parseGatewayCycle maps the gateway's MONTHLY/YEARLY vocabulary onto the
// internal cycle values. Other cycles the gateway offers have no plan here.
func parseGatewayCycle(v string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "MONTHLY":
		return string(CycleMonthly), true
	case "YEARLY":
		return string(CycleYearly), true
	}
	return "", false
}

func parseGatewayDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(gatewayDateLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
