package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trocalar/TrocaLar/app/models"
)

type fakeGateway struct {
	checkouts []CheckoutRequest
	checkout  *Checkout
	canceled  []string
	err       error
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	g.checkouts = append(g.checkouts, req)
	if g.err != nil {
		return nil, g.err
	}
	if g.checkout != nil {
		return g.checkout, nil
	}
	return &Checkout{
		PaymentID:      "pay_fake",
		SubscriptionID: "sub_fake",
		RedirectURL:    "https://pay.example/invoice/pay_fake",
	}, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, externalID string) error {
	g.canceled = append(g.canceled, externalID)
	return g.err
}

func seedActiveSubscription(t *testing.T, repo *MemoryRepository, userID uint, planID string, nextDue time.Time) *models.Subscription {
	t.Helper()
	plan, ok := PlanByID(planID)
	if !ok {
		t.Fatalf("unknown plan %q", planID)
	}
	sub := &models.Subscription{
		UserID:       userID,
		PlanID:       plan.ID,
		ExternalID:   "sub_" + plan.ID,
		Status:       models.SubscriptionStatusActive,
		BillingCycle: string(plan.Cycle),
		Price:        plan.Price,
		NextDueDate:  &nextDue,
		StartedAt:    time.Now().Add(-20 * 24 * time.Hour),
		AutoRenew:    true,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub
}

func TestGetStatusInactiveWithoutSubscription(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})

	st, err := svc.GetStatus(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != StatusInactive {
		t.Fatalf("status = %q, want %q", st.Status, StatusInactive)
	}
	if st.Subscription != nil {
		t.Fatalf("expected no subscription info for inactive user")
	}
}

func TestGetStatusActive(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})
	seedActiveSubscription(t, repo, 1, PlanBasico, time.Now().Add(15*24*time.Hour))

	st, err := svc.GetStatus(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != StatusActive {
		t.Fatalf("status = %q, want %q", st.Status, StatusActive)
	}
	if st.Subscription == nil || st.Subscription.PlanID != PlanBasico {
		t.Fatalf("subscription info = %+v, want plan %q", st.Subscription, PlanBasico)
	}
}

func TestGetStatusLazyExpiryIsPersisted(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})
	sub := seedActiveSubscription(t, repo, 1, PlanBasico, time.Now().Add(-24*time.Hour))

	st, err := svc.GetStatus(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != StatusExpired {
		t.Fatalf("status = %q, want %q", st.Status, StatusExpired)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load stored subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusExpired {
		t.Fatalf("stored status = %q, want %q", stored.Status, models.SubscriptionStatusExpired)
	}

	// The expired row no longer counts as active.
	st, err = svc.GetStatus(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetStatus after expiry: %v", err)
	}
	if st.Status != StatusInactive {
		t.Fatalf("status after expiry = %q, want %q", st.Status, StatusInactive)
	}
}

func TestChangePlanUnknownPlan(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})

	_, err := svc.ChangePlan(context.Background(), 1, "cus_1", "enterprise")
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestChangePlanSamePlanConflict(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &fakeGateway{}
	svc := NewService(repo, gw)
	sub := seedActiveSubscription(t, repo, 1, PlanBasico, time.Now().Add(15*24*time.Hour))

	_, err := svc.ChangePlan(context.Background(), 1, "cus_1", PlanBasico)
	if !errors.Is(err, ErrSamePlan) {
		t.Fatalf("err = %v, want ErrSamePlan", err)
	}
	if len(gw.checkouts) != 0 {
		t.Fatalf("gateway was called %d times, want 0", len(gw.checkouts))
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load stored subscription: %v", err)
	}
	if stored.PendingPlanID != "" || stored.PlanID != PlanBasico {
		t.Fatalf("subscription was mutated: %+v", stored)
	}
}

func TestChangePlanUpgradeProRatesAndChecksOut(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &fakeGateway{checkout: &Checkout{
		PaymentID:      "pay_up",
		SubscriptionID: "sub_up",
		RedirectURL:    "https://pay.example/invoice/pay_up",
	}}
	svc := NewService(repo, gw)
	// One extra hour so the 10 remaining days survive the truncation to whole days.
	sub := seedActiveSubscription(t, repo, 1, PlanBasico, time.Now().Add(10*24*time.Hour+time.Hour))

	res, err := svc.ChangePlan(context.Background(), 1, "cus_1", PlanPremium)
	if err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if res.Deferred {
		t.Fatalf("upgrade must not be deferred")
	}
	if res.CheckoutURL != "https://pay.example/invoice/pay_up" {
		t.Fatalf("checkout url = %q", res.CheckoutURL)
	}
	if res.AmountDue != 39.93 {
		t.Fatalf("amount due = %v, want 39.93", res.AmountDue)
	}
	if len(gw.checkouts) != 1 || gw.checkouts[0].CustomerRef != "cus_1" {
		t.Fatalf("gateway checkouts = %+v", gw.checkouts)
	}

	// The current subscription stays untouched until the webhook confirms.
	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load stored subscription: %v", err)
	}
	if stored.PlanID != PlanBasico || stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("current subscription was mutated: %+v", stored)
	}

	// A limbo row exists for the new gateway subscription.
	limbo, err := repo.SubscriptionByExternalID("sub_up")
	if err != nil {
		t.Fatalf("limbo subscription missing: %v", err)
	}
	if limbo.Status != models.SubscriptionStatusUpdated || limbo.PlanID != PlanPremium {
		t.Fatalf("limbo subscription = %+v", limbo)
	}
}

func TestChangePlanDowngradeIsDeferred(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &fakeGateway{}
	svc := NewService(repo, gw)
	sub := seedActiveSubscription(t, repo, 1, PlanPremium, time.Now().Add(15*24*time.Hour))

	res, err := svc.ChangePlan(context.Background(), 1, "cus_1", PlanBasico)
	if err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if !res.Deferred || res.CheckoutURL != "" {
		t.Fatalf("downgrade result = %+v, want deferred without checkout", res)
	}
	if len(gw.checkouts) != 0 {
		t.Fatalf("gateway was called for a downgrade")
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load stored subscription: %v", err)
	}
	if stored.PendingPlanID != PlanBasico {
		t.Fatalf("pending plan = %q, want %q", stored.PendingPlanID, PlanBasico)
	}
	if stored.PlanID != PlanPremium {
		t.Fatalf("current plan changed to %q before renewal", stored.PlanID)
	}
}

func TestChangePlanWithoutSubscriptionChargesFullPrice(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &fakeGateway{}
	svc := NewService(repo, gw)

	res, err := svc.ChangePlan(context.Background(), 1, "cus_1", PlanPremium)
	if err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if res.AmountDue != 49.90 {
		t.Fatalf("amount due = %v, want full price 49.90", res.AmountDue)
	}

	// Picking free while already on the implicit free plan is a conflict.
	if _, err := svc.ChangePlan(context.Background(), 1, "cus_1", PlanFree); !errors.Is(err, ErrSamePlan) {
		t.Fatalf("err = %v, want ErrSamePlan", err)
	}
}

func TestChangePlanGatewayFailure(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &fakeGateway{err: errors.New("boom")}
	svc := NewService(repo, gw)

	_, err := svc.ChangePlan(context.Background(), 1, "cus_1", PlanPremium)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
}

func TestCancelSubscription(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &fakeGateway{}
	svc := NewService(repo, gw)
	sub := seedActiveSubscription(t, repo, 1, PlanBasico, time.Now().Add(15*24*time.Hour))

	if err := svc.CancelSubscription(context.Background(), 1); err != nil {
		t.Fatalf("CancelSubscription: %v", err)
	}
	if len(gw.canceled) != 1 || gw.canceled[0] != sub.ExternalID {
		t.Fatalf("gateway cancellations = %v", gw.canceled)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load stored subscription: %v", err)
	}
	if stored.AutoRenew {
		t.Fatalf("auto renew still on after cancel")
	}
	// The paid period keeps running until NextDueDate.
	if stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active until period end", stored.Status)
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})
	if err := svc.CancelSubscription(context.Background(), 1); !errors.Is(err, ErrNoSubscription) {
		t.Fatalf("err = %v, want ErrNoSubscription", err)
	}
}
