package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

// Status values returned by GetStatus. "inactive" means no subscription row
// exists at all; "expired" is also persisted on the row when observed.
const (
	StatusActive   = "active"
	StatusExpired  = "expired"
	StatusInactive = "inactive"
)

// Service implements the subscription lifecycle: status resolution, plan
// changes and webhook ingestion. Repository and Gateway are injected; there
// is no package-level client state.
type Service struct {
	repo    Repository
	gateway Gateway
}

// NewService creates a billing service from an injected repository and
// gateway.
func NewService(repo Repository, gateway Gateway) *Service {
	return &Service{repo: repo, gateway: gateway}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway Gateway) *Service {
	return NewService(NewRepository(db), gateway)
}

// GetStatus resolves the user's current subscription state. A stale
// NextDueDate transitions the row to expired on read and the transition is
// persisted; there is no background job doing this.
func (s *Service) GetStatus(ctx context.Context, userID uint) (StatusResult, error) {
	_ = ctx
	if userID == 0 {
		return StatusResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	sub, err := s.repo.ActiveSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatusResult{Status: StatusInactive}, nil
		}
		return StatusResult{}, err
	}

	if sub.NextDueDate != nil && sub.NextDueDate.Before(time.Now()) {
		sub.Status = models.SubscriptionStatusExpired
		if err := s.repo.SaveSubscription(sub); err != nil {
			return StatusResult{}, err
		}
		return StatusResult{Status: StatusExpired}, nil
	}

	return StatusResult{
		Status: StatusActive,
		Subscription: &SubscriptionInfo{
			PlanID:        sub.PlanID,
			PendingPlanID: sub.PendingPlanID,
			Price:         sub.Price,
			Cycle:         BillingCycle(sub.BillingCycle),
			NextDueDate:   sub.NextDueDate,
			AutoRenew:     sub.AutoRenew,
		},
	}, nil
}

// ChangePlan decides the upgrade/downgrade path for a plan change request.
//
// Upgrades create a pro-rated gateway checkout and leave local state
// untouched: the webhook ingestor is the sole writer of confirmed status, so
// a crash between checkout creation and webhook delivery cannot corrupt the
// subscription. Downgrades are recorded as a pending plan on the row and
// applied at the next confirmed renewal.
func (s *Service) ChangePlan(ctx context.Context, userID uint, customerRef, newPlanID string) (ChangeResult, error) {
	if userID == 0 {
		return ChangeResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	newPlan, ok := PlanByID(newPlanID)
	if !ok {
		return ChangeResult{}, fmt.Errorf("%w: %q", ErrPlanNotFound, newPlanID)
	}

	st, err := s.GetStatus(ctx, userID)
	if err != nil {
		return ChangeResult{}, err
	}

	// Without an active subscription the user is on the implicit free plan:
	// no credit, full price, straight to checkout.
	if st.Status != StatusActive || st.Subscription == nil {
		if newPlan.IsFree() {
			return ChangeResult{}, fmt.Errorf("%w: free plan needs no subscription", ErrSamePlan)
		}
		return s.createCheckout(ctx, userID, customerRef, newPlan, newPlan.Price)
	}

	current, ok := PlanByID(st.Subscription.PlanID)
	if !ok {
		// Plan removed from the catalog between releases; treat the stored
		// price as authoritative for the comparison below.
		current = Plan{ID: st.Subscription.PlanID, Price: st.Subscription.Price, Cycle: st.Subscription.Cycle}
	}
	if current.ID == newPlan.ID {
		return ChangeResult{}, ErrSamePlan
	}

	if newPlan.Price > current.Price {
		days := daysRemaining(st.Subscription.NextDueDate, current.CycleDays())
		amount := ProRate(current, newPlan, days)
		return s.createCheckout(ctx, userID, customerRef, newPlan, amount)
	}

	// Downgrade (or equal price): no charge now, annotate the row and apply
	// at the renewal boundary.
	sub, err := s.repo.ActiveSubscriptionByUser(userID)
	if err != nil {
		return ChangeResult{}, err
	}
	sub.PendingPlanID = newPlan.ID
	if err := s.repo.SaveSubscription(sub); err != nil {
		return ChangeResult{}, err
	}
	return ChangeResult{Deferred: true}, nil
}

func (s *Service) createCheckout(ctx context.Context, userID uint, customerRef string, plan Plan, amount float64) (ChangeResult, error) {
	checkout, err := s.gateway.CreateCheckout(ctx, CheckoutRequest{
		UserID:      userID,
		CustomerRef: customerRef,
		PlanID:      plan.ID,
		Cycle:       plan.Cycle,
		Amount:      Round2(amount),
		Description: fmt.Sprintf("TrocaLar plano %s", plan.Name),
	})
	if err != nil {
		return ChangeResult{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	// The checkout's subscription id must be resolvable once the first
	// payment webhook arrives, so the row is created here in created/updated
	// limbo only when the gateway minted a subscription up front. Plans that
	// charge via one-off checkout get their row on SUBSCRIPTION_CREATED.
	if checkout.SubscriptionID != "" {
		if _, err := s.repo.SubscriptionByExternalID(checkout.SubscriptionID); errors.Is(err, gorm.ErrRecordNotFound) {
			sub := &models.Subscription{
				UserID:       userID,
				PlanID:       plan.ID,
				ExternalID:   checkout.SubscriptionID,
				Status:       models.SubscriptionStatusUpdated,
				BillingCycle: string(plan.Cycle),
				Price:        plan.Price,
				AutoRenew:    true,
			}
			if err := s.repo.CreateSubscription(sub); err != nil {
				return ChangeResult{}, err
			}
		}
	}

	return ChangeResult{
		CheckoutURL: checkout.RedirectURL,
		AmountDue:   Round2(amount),
	}, nil
}

// CancelSubscription turns off auto-renewal at the gateway. The subscription
// stays active until its paid period runs out; the lazy expiry in GetStatus
// closes it after NextDueDate.
func (s *Service) CancelSubscription(ctx context.Context, userID uint) error {
	if userID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	sub, err := s.repo.ActiveSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSubscription
		}
		return err
	}
	if sub.ExternalID != "" {
		if err := s.gateway.CancelSubscription(ctx, sub.ExternalID); err != nil {
			return fmt.Errorf("%w: %v", ErrGateway, err)
		}
	}
	sub.AutoRenew = false
	sub.PendingPlanID = ""
	return s.repo.SaveSubscription(sub)
}

// ListPayments returns the user's payment history, newest first.
func (s *Service) ListPayments(ctx context.Context, userID uint, offset, limit int) ([]models.Payment, error) {
	_ = ctx
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListPaymentsByUser(userID, offset, limit)
}

// RecordWebhookEvent persists webhook payloads idempotently. Events without a
// delivery id are keyed on the payload hash.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		TokenValid:      in.TokenValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return fmt.Errorf("%w: webhook event id is required", ErrInvalidInput)
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// daysRemaining converts the time left until the due date into whole days,
// clamped to [0, cycle].
func daysRemaining(nextDue *time.Time, cycleDays int) int {
	if nextDue == nil {
		return 0
	}
	left := time.Until(*nextDue)
	if left <= 0 {
		return 0
	}
	days := int(left.Hours() / 24)
	if days > cycleDays {
		return cycleDays
	}
	return days
}
