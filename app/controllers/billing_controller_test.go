package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/billing"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

type stubGateway struct {
	checkout *billing.Checkout
	err      error
}

func (g *stubGateway) CreateCheckout(_ context.Context, _ billing.CheckoutRequest) (*billing.Checkout, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.checkout != nil {
		return g.checkout, nil
	}
	return &billing.Checkout{
		PaymentID:      "pay_stub",
		SubscriptionID: "sub_stub",
		RedirectURL:    "https://pay.example/invoice/pay_stub",
	}, nil
}

func (g *stubGateway) CancelSubscription(_ context.Context, _ string) error {
	return g.err
}

type stubDirectory struct {
	ref string
	err error
}

func (d *stubDirectory) EnsureCustomer(_ context.Context, _, _, _ string) (string, error) {
	return d.ref, d.err
}

// newBillingTestApp wires the controller against the in-memory repository and
// registers the routes the way the router does, with a fake logged-in user.
func newBillingTestApp(repo billing.Repository, userID uint) *fiber.App {
	svc := billing.NewService(repo, &stubGateway{})
	bc := NewBillingController(svc, repo, &stubDirectory{ref: "cus_stub"})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("USER_CONTEXT", usercontext.UserContext{
				UserID:     userID,
				Username:   "teste",
				IsLoggedIn: true,
			})
		}
		return c.Next()
	})
	app.Get("/planos", bc.HandlePlans)
	app.Get("/assinatura", bc.HandleSubscriptionStatus)
	app.Post("/assinatura/sincronizar", bc.HandleResyncSubscription)
	app.Get("/assinatura/pagamentos", bc.HandleListPayments)
	app.Post("/webhooks/asaas", bc.HandleAsaasWebhook)
	return app
}

func seedSubscription(t *testing.T, repo *billing.MemoryRepository, userID uint, planID, externalID, status string, nextDue *time.Time) *models.Subscription {
	t.Helper()
	plan, ok := billing.PlanByID(planID)
	require.True(t, ok, "unknown plan %q", planID)

	sub := &models.Subscription{
		UserID:       userID,
		PlanID:       plan.ID,
		ExternalID:   externalID,
		Status:       status,
		BillingCycle: string(plan.Cycle),
		Price:        plan.Price,
		NextDueDate:  nextDue,
		StartedAt:    time.Now().Add(-20 * 24 * time.Hour),
		AutoRenew:    true,
	}
	require.NoError(t, repo.CreateSubscription(sub))
	return sub
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandlePlansListsCatalog(t *testing.T) {
	app := newBillingTestApp(billing.NewMemoryRepository(), 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/planos", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	plans, ok := body["plans"].([]any)
	require.True(t, ok)
	assert.Len(t, plans, len(billing.Plans()))

	first, ok := plans[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, billing.PlanFree, first["id"])
}

func TestHandleSubscriptionStatusActive(t *testing.T) {
	repo := billing.NewMemoryRepository()
	nextDue := time.Now().Add(15 * 24 * time.Hour)
	seedSubscription(t, repo, 7, billing.PlanPremium, "sub_7", models.SubscriptionStatusActive, &nextDue)
	app := newBillingTestApp(repo, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/assinatura", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, billing.StatusActive, body["status"])

	sub, ok := body["subscription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, billing.PlanPremium, sub["plan_id"])
}

func TestHandleSubscriptionStatusInactive(t *testing.T) {
	app := newBillingTestApp(billing.NewMemoryRepository(), 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/assinatura", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, billing.StatusInactive, body["status"])
	assert.NotContains(t, body, "subscription")
}

func TestHandleResyncSubscriptionReturnsResolvedStatus(t *testing.T) {
	repo := billing.NewMemoryRepository()
	nextDue := time.Now().Add(-24 * time.Hour)
	seed := seedSubscription(t, repo, 7, billing.PlanBasico, "sub_stale", models.SubscriptionStatusActive, &nextDue)
	app := newBillingTestApp(repo, 7)

	resp, err := app.Test(httptest.NewRequest("POST", "/assinatura/sincronizar", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, billing.StatusExpired, body["status"])

	// The stale row was closed by the lazy expiry during resync.
	stored, err := repo.SubscriptionByID(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, stored.Status)
}

func TestWebhookRejectsBadToken(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "segredo")
	app := newBillingTestApp(billing.NewMemoryRepository(), 0)

	req := httptest.NewRequest("POST", "/webhooks/asaas", strings.NewReader(`{"id":"evt_1","event":"PAYMENT_CONFIRMED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("asaas-access-token", "errado")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "segredo")
	app := newBillingTestApp(billing.NewMemoryRepository(), 0)

	req := httptest.NewRequest("POST", "/webhooks/asaas", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("asaas-access-token", "segredo")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookPaymentConfirmedActivatesSubscription(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "segredo")
	repo := billing.NewMemoryRepository()
	// Checkout left this row in limbo; the webhook confirms it.
	seed := seedSubscription(t, repo, 7, billing.PlanPremium, "sub_up", models.SubscriptionStatusUpdated, nil)
	app := newBillingTestApp(repo, 0)

	payload := `{
		"id": "evt_42",
		"event": "PAYMENT_CONFIRMED",
		"payment": {
			"id": "pay_42",
			"subscription": "sub_up",
			"value": 49.90,
			"billingType": "PIX",
			"dueDate": "2026-09-05",
			"paymentDate": "2026-08-30"
		}
	}`
	req := httptest.NewRequest("POST", "/webhooks/asaas", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("asaas-access-token", "segredo")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["received"])
	assert.NotContains(t, body, "duplicate")

	stored, err := repo.SubscriptionByID(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
	require.NotNil(t, stored.NextDueDate)

	payment, err := repo.PaymentByExternalID("pay_42")
	require.NoError(t, err)
	assert.Equal(t, uint(7), payment.UserID)
	assert.Equal(t, string(billing.PayStatusPaid), payment.Status)
}

func TestWebhookDuplicateDeliveryIsAcknowledgedOnce(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "segredo")
	repo := billing.NewMemoryRepository()
	seedSubscription(t, repo, 7, billing.PlanBasico, "sub_dup", models.SubscriptionStatusUpdated, nil)
	app := newBillingTestApp(repo, 0)

	payload := `{
		"id": "evt_dup",
		"event": "PAYMENT_CONFIRMED",
		"payment": {"id": "pay_dup", "subscription": "sub_dup", "value": 29.90, "paymentDate": "2026-08-30"}
	}`
	send := func() *map[string]any {
		req := httptest.NewRequest("POST", "/webhooks/asaas", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("asaas-access-token", "segredo")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp.Body)
		return &body
	}

	first := *send()
	assert.NotContains(t, first, "duplicate")

	second := *send()
	assert.Equal(t, true, second["duplicate"])

	assert.Equal(t, 1, repo.PaymentCount())
}

// flakySubscriptionRepo fails a configured number of subscription saves
// before behaving normally, simulating a transient database error.
type flakySubscriptionRepo struct {
	*billing.MemoryRepository
	saveFailures int
}

func (r *flakySubscriptionRepo) SaveSubscription(sub *models.Subscription) error {
	if r.saveFailures > 0 {
		r.saveFailures--
		return errors.New("connection reset")
	}
	return r.MemoryRepository.SaveSubscription(sub)
}

func TestWebhookRetryAfterFailureReprocessesEvent(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "segredo")
	mem := billing.NewMemoryRepository()
	seed := seedSubscription(t, mem, 7, billing.PlanPremium, "sub_retry", models.SubscriptionStatusUpdated, nil)
	repo := &flakySubscriptionRepo{MemoryRepository: mem, saveFailures: 1}
	app := newBillingTestApp(repo, 0)

	payload := `{
		"id": "evt_retry",
		"event": "PAYMENT_CONFIRMED",
		"payment": {"id": "pay_retry", "subscription": "sub_retry", "value": 49.90, "paymentDate": "2026-08-30"}
	}`
	send := func() (int, map[string]any) {
		req := httptest.NewRequest("POST", "/webhooks/asaas", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("asaas-access-token", "segredo")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode, decodeBody(t, resp.Body)
	}

	// First delivery hits the transient error and asks the provider to retry.
	status, _ := send()
	assert.Equal(t, fiber.StatusInternalServerError, status)

	// The retry must run the handler again, not be acked as a duplicate.
	status, body := send()
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["received"])
	assert.NotContains(t, body, "duplicate")

	stored, err := mem.SubscriptionByID(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)

	payment, err := mem.PaymentByExternalID("pay_retry")
	require.NoError(t, err)
	assert.Equal(t, string(billing.PayStatusPaid), payment.Status)

	// Only once the event completed cleanly does a redelivery short-circuit.
	status, body = send()
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["duplicate"])
}

func TestWebhookSubscriptionCanceled(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "segredo")
	repo := billing.NewMemoryRepository()
	nextDue := time.Now().Add(10 * 24 * time.Hour)
	seed := seedSubscription(t, repo, 7, billing.PlanBasico, "sub_cancel", models.SubscriptionStatusActive, &nextDue)
	app := newBillingTestApp(repo, 0)

	payload := `{
		"id": "evt_cancel",
		"event": "SUBSCRIPTION_CANCELED",
		"subscription": {"id": "sub_cancel"}
	}`
	req := httptest.NewRequest("POST", "/webhooks/asaas", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("asaas-access-token", "segredo")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	stored, err := repo.SubscriptionByID(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCanceled, stored.Status)
	assert.False(t, stored.AutoRenew)
}

func TestHandleListPayments(t *testing.T) {
	repo := billing.NewMemoryRepository()
	require.NoError(t, repo.UpsertPayment(&models.Payment{
		UserID:     7,
		ExternalID: "pay_hist",
		Amount:     29.90,
		Status:     string(billing.PayStatusPaid),
	}))
	app := newBillingTestApp(repo, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/assinatura/pagamentos", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, float64(1), body["page"])
	payments, ok := body["payments"].([]any)
	require.True(t, ok)
	require.Len(t, payments, 1)
}
