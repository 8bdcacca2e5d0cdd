package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trocalar/TrocaLar/app/models"
)

func TestParseWebhookEvent(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(`{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_1","subscription":"sub_1","value":29.9}}`))
	if err != nil {
		t.Fatalf("ParseWebhookEvent: %v", err)
	}
	if event.Event != "PAYMENT_RECEIVED" || event.Payment == nil || event.Payment.ID != "pay_1" {
		t.Fatalf("parsed event = %+v", event)
	}

	if _, err := ParseWebhookEvent([]byte(`not json`)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("malformed body err = %v, want ErrInvalidInput", err)
	}
	if _, err := ParseWebhookEvent([]byte(`{"payment":{"id":"pay_1"}}`)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing event name err = %v, want ErrInvalidInput", err)
	}
}

func TestPaymentReceivedActivatesSubscription(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:       7,
		PlanID:       PlanBasico,
		ExternalID:   "sub_123",
		Status:       models.SubscriptionStatusUpdated,
		BillingCycle: models.BillingCycleMonthly,
		Price:        29.90,
		AutoRenew:    true,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	event := &WebhookEvent{
		Event: "PAYMENT_RECEIVED",
		Payment: &PaymentPayload{
			ID:           "pay_1",
			Subscription: "sub_123",
			Value:        29.90,
			BillingType:  "PIX",
			DueDate:      "2026-08-01",
			PaymentDate:  "2026-08-01",
		},
	}
	if err := svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	payment, err := repo.PaymentByExternalID("pay_1")
	if err != nil {
		t.Fatalf("payment missing: %v", err)
	}
	if payment.Status != models.PaymentStatusPaid || payment.UserID != 7 || payment.SubscriptionID != sub.ID {
		t.Fatalf("payment = %+v", payment)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", stored.Status)
	}
	if stored.LastPaymentAt == nil || stored.LastPaymentAt.Format("2006-01-02") != "2026-08-01" {
		t.Fatalf("last payment at = %v", stored.LastPaymentAt)
	}
	if stored.NextDueDate == nil || stored.NextDueDate.Format("2006-01-02") != "2026-08-31" {
		t.Fatalf("next due date = %v, want 30 days after payment", stored.NextDueDate)
	}
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:       7,
		PlanID:       PlanBasico,
		ExternalID:   "sub_123",
		Status:       models.SubscriptionStatusUpdated,
		BillingCycle: models.BillingCycleMonthly,
		Price:        29.90,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	event := &WebhookEvent{
		Event: "PAYMENT_CONFIRMED",
		Payment: &PaymentPayload{
			ID:           "pay_1",
			Subscription: "sub_123",
			Value:        29.90,
			PaymentDate:  "2026-08-01",
		},
	}

	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhookEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	if n := repo.PaymentCount(); n != 1 {
		t.Fatalf("payment rows = %d, want 1", n)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", stored.Status)
	}
	if stored.NextDueDate == nil || stored.NextDueDate.Format("2006-01-02") != "2026-08-31" {
		t.Fatalf("next due date drifted on redelivery: %v", stored.NextDueDate)
	}
}

func TestPaidRenewalAppliesPendingDowngrade(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	next := time.Now().Add(24 * time.Hour)
	sub := &models.Subscription{
		UserID:        7,
		PlanID:        PlanPremium,
		PendingPlanID: PlanBasico,
		ExternalID:    "sub_123",
		Status:        models.SubscriptionStatusActive,
		BillingCycle:  models.BillingCycleMonthly,
		Price:         49.90,
		NextDueDate:   &next,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	event := &WebhookEvent{
		Event: "PAYMENT_RECEIVED",
		Payment: &PaymentPayload{
			ID:           "pay_renewal",
			Subscription: "sub_123",
			Value:        29.90,
			PaymentDate:  "2026-09-01",
		},
	}
	if err := svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.PlanID != PlanBasico {
		t.Fatalf("plan = %q, want deferred downgrade to %q", stored.PlanID, PlanBasico)
	}
	if stored.Price != 29.90 {
		t.Fatalf("price = %v, want 29.90", stored.Price)
	}
	if stored.PendingPlanID != "" {
		t.Fatalf("pending plan not cleared: %q", stored.PendingPlanID)
	}
}

func TestPaymentOverdueExpiresSubscription(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:       7,
		PlanID:       PlanBasico,
		ExternalID:   "sub_123",
		Status:       models.SubscriptionStatusActive,
		BillingCycle: models.BillingCycleMonthly,
		Price:        29.90,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	event := &WebhookEvent{
		Event: "PAYMENT_OVERDUE",
		Payment: &PaymentPayload{
			ID:           "pay_late",
			Subscription: "sub_123",
			Value:        29.90,
			DueDate:      "2026-08-01",
		},
	}
	if err := svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusExpired {
		t.Fatalf("status = %q, want expired", stored.Status)
	}
}

func TestOrphanEventsAreDropped(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	// Payment for a subscription we never created.
	err := svc.HandleWebhookEvent(context.Background(), &WebhookEvent{
		Event:   "PAYMENT_RECEIVED",
		Payment: &PaymentPayload{ID: "pay_x", Subscription: "sub_unknown", Value: 10},
	})
	if err != nil {
		t.Fatalf("orphan payment event: %v", err)
	}
	if n := repo.PaymentCount(); n != 0 {
		t.Fatalf("payment rows = %d, want 0", n)
	}

	// Subscription event for an unknown external id.
	err = svc.HandleWebhookEvent(context.Background(), &WebhookEvent{
		Event:        "SUBSCRIPTION_CANCELED",
		Subscription: &SubscriptionPayload{ID: "sub_unknown"},
	})
	if err != nil {
		t.Fatalf("orphan subscription event: %v", err)
	}
}

func TestSubscriptionCanceledEvent(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:        7,
		PlanID:        PlanBasico,
		PendingPlanID: PlanFree,
		ExternalID:    "sub_123",
		Status:        models.SubscriptionStatusActive,
		BillingCycle:  models.BillingCycleMonthly,
		Price:         29.90,
		AutoRenew:     true,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	err := svc.HandleWebhookEvent(context.Background(), &WebhookEvent{
		Event:        "SUBSCRIPTION_CANCELED",
		Subscription: &SubscriptionPayload{ID: "sub_123"},
	})
	if err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusCanceled || stored.AutoRenew || stored.PendingPlanID != "" {
		t.Fatalf("subscription after cancel = %+v", stored)
	}
}

func TestSubscriptionUpdatedMirrorsGatewayFields(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:       7,
		PlanID:       PlanPremium,
		ExternalID:   "sub_123",
		Status:       models.SubscriptionStatusActive,
		BillingCycle: models.BillingCycleMonthly,
		Price:        49.90,
		AutoRenew:    true,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	err := svc.HandleWebhookEvent(context.Background(), &WebhookEvent{
		Event: "SUBSCRIPTION_UPDATED",
		Subscription: &SubscriptionPayload{
			ID:          "sub_123",
			Value:       54.90,
			Cycle:       "YEARLY",
			NextDueDate: "2026-10-01",
		},
	})
	if err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Price != 54.90 || stored.BillingCycle != models.BillingCycleYearly {
		t.Fatalf("mirrored fields = price %v cycle %q", stored.Price, stored.BillingCycle)
	}
	if stored.NextDueDate == nil || stored.NextDueDate.Format("2006-01-02") != "2026-10-01" {
		t.Fatalf("next due date = %v", stored.NextDueDate)
	}
	// An update never demotes the lifecycle status of a paying user.
	if stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", stored.Status)
	}
}

func TestSubscriptionUpdatedDeletedFlagCancels(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:        7,
		PlanID:        PlanBasico,
		PendingPlanID: PlanFree,
		ExternalID:    "sub_123",
		Status:        models.SubscriptionStatusActive,
		BillingCycle:  models.BillingCycleMonthly,
		Price:         29.90,
		AutoRenew:     true,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	err := svc.HandleWebhookEvent(context.Background(), &WebhookEvent{
		Event:        "SUBSCRIPTION_UPDATED",
		Subscription: &SubscriptionPayload{ID: "sub_123", Deleted: true},
	})
	if err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusCanceled || stored.AutoRenew || stored.PendingPlanID != "" {
		t.Fatalf("subscription after deleted update = %+v", stored)
	}
}

func TestUnlistedPaymentEventAckedWithoutRow(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})

	sub := &models.Subscription{
		UserID:       7,
		PlanID:       PlanBasico,
		ExternalID:   "sub_123",
		Status:       models.SubscriptionStatusActive,
		BillingCycle: models.BillingCycleMonthly,
		Price:        29.90,
	}
	if err := repo.CreateSubscription(sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	err := svc.HandleWebhookEvent(context.Background(), &WebhookEvent{
		Event:   "PAYMENT_CHARGEBACK_REQUESTED",
		Payment: &PaymentPayload{ID: "pay_cb", Subscription: "sub_123", Value: 29.90},
	})
	if err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	// The raw event lives in billing_webhook_events; no payment row is minted
	// when the status mapping comes back unknown.
	if n := repo.PaymentCount(); n != 0 {
		t.Fatalf("payment rows = %d, want 0", n)
	}

	stored, err := repo.SubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("status changed by unlisted event: %q", stored.Status)
	}
}

func TestMalformedPaymentEventRejected(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})

	err := svc.HandleWebhookEvent(context.Background(), &WebhookEvent{Event: "PAYMENT_RECEIVED"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRecordWebhookEventIdempotent(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})
	ctx := context.Background()

	in := WebhookEventInput{
		ProviderEventID: "evt_1",
		EventType:       "PAYMENT_RECEIVED",
		PayloadJSON:     `{"event":"PAYMENT_RECEIVED"}`,
		TokenValid:      true,
	}

	created, first, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil || !created {
		t.Fatalf("first delivery: created=%v err=%v", created, err)
	}
	created, second, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if created {
		t.Fatalf("second delivery must be a duplicate")
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate resolved to a different row: %d vs %d", first.ID, second.ID)
	}
}

func TestRecordWebhookEventHashFallback(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})
	ctx := context.Background()

	in := WebhookEventInput{
		EventType:   "PAYMENT_RECEIVED",
		PayloadJSON: `{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_1"}}`,
	}

	created, _, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil || !created {
		t.Fatalf("first delivery: created=%v err=%v", created, err)
	}
	// Identical payload without a delivery id hashes to the same key.
	created, _, err = svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if created {
		t.Fatalf("identical payload must be detected as duplicate")
	}
}

func TestVerifyWebhookToken(t *testing.T) {
	if !VerifyWebhookToken("anything", "") {
		t.Fatalf("empty expected token must disable verification")
	}
	if !VerifyWebhookToken("s3cret", "s3cret") {
		t.Fatalf("matching token rejected")
	}
	if VerifyWebhookToken("wrong", "s3cret") {
		t.Fatalf("mismatched token accepted")
	}
}
