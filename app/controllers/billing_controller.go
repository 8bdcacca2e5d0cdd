package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/billing"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/mail"
	"github.com/trocalar/TrocaLar/internal/pkg/session"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

// CustomerDirectory resolves our user to a gateway customer id. The production
// implementation is the Asaas client; tests inject a stub.
type CustomerDirectory interface {
	EnsureCustomer(ctx context.Context, name, email, externalRef string) (string, error)
}

// BillingController serves the subscription endpoints. All collaborators come
// in through the constructor so tests can run against the in-memory billing
// repository and a fake gateway.
type BillingController struct {
	svc       *billing.Service
	repo      billing.Repository
	customers CustomerDirectory
}

func NewBillingController(svc *billing.Service, repo billing.Repository, customers CustomerDirectory) *BillingController {
	return &BillingController{svc: svc, repo: repo, customers: customers}
}

// HandlePlans returns the public plan catalog.
func (bc *BillingController) HandlePlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": billing.Plans()})
}

// HandleSubscriptionStatus returns the resolved subscription state of the
// logged-in user.
func (bc *BillingController) HandleSubscriptionStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	status, err := bc.svc.GetStatus(c.Context(), userCtx.UserID)
	if err != nil {
		log.Errorf("Failed to resolve subscription of user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao consultar a assinatura")
	}

	return c.JSON(status)
}

type changePlanRequest struct {
	PlanID string `json:"plan_id"`
}

// HandleChangePlan starts an upgrade checkout or records a deferred
// downgrade.
func (bc *BillingController) HandleChangePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Usuário não encontrado")
	}

	customerRef, err := bc.customers.EnsureCustomer(c.Context(), user.Name, user.Email, strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		log.Errorf("Failed to ensure gateway customer for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusBadGateway, "O provedor de pagamento está indisponível. Tente novamente mais tarde.")
	}

	result, err := bc.svc.ChangePlan(c.Context(), userCtx.UserID, customerRef, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPlanNotFound):
			return jsonError(c, fiber.StatusBadRequest, "Plano desconhecido")
		case errors.Is(err, billing.ErrSamePlan):
			return jsonError(c, fiber.StatusConflict, "Você já está neste plano")
		case errors.Is(err, billing.ErrGateway):
			return jsonError(c, fiber.StatusBadGateway, "O provedor de pagamento está indisponível. Tente novamente mais tarde.")
		case errors.Is(err, billing.ErrInvalidInput):
			return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
		}
		log.Errorf("Plan change failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao alterar o plano")
	}

	if result.Deferred {
		return c.JSON(fiber.Map{
			"deferred": true,
			"message":  "A mudança de plano será aplicada na próxima renovação",
		})
	}

	return c.JSON(fiber.Map{
		"checkout_url": result.CheckoutURL,
		"amount_due":   result.AmountDue,
	})
}

// HandleCancelSubscription turns off auto-renew at the gateway. Access stays
// until the paid period ends.
func (bc *BillingController) HandleCancelSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if err := bc.svc.CancelSubscription(c.Context(), userCtx.UserID); err != nil {
		switch {
		case errors.Is(err, billing.ErrNoSubscription):
			return jsonError(c, fiber.StatusNotFound, "Você não tem uma assinatura ativa")
		case errors.Is(err, billing.ErrGateway):
			return jsonError(c, fiber.StatusBadGateway, "O provedor de pagamento está indisponível. Tente novamente mais tarde.")
		}
		log.Errorf("Cancel failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao cancelar a assinatura")
	}

	return c.JSON(fiber.Map{
		"message": "Assinatura cancelada. Seu acesso continua até o fim do período pago.",
	})
}

// HandleResyncSubscription re-derives the entitlement plan from the stored
// subscription and returns the resolved status. Covers missed webhook
// deliveries and the return from a checkout page.
func (bc *BillingController) HandleResyncSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	status, err := bc.svc.GetStatus(c.Context(), userCtx.UserID)
	if err != nil {
		log.Errorf("Failed to resolve subscription of user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao sincronizar a assinatura")
	}

	if sub, err := bc.repo.ActiveSubscriptionByUser(userCtx.UserID); err == nil {
		bc.syncUserPlan(sub)
	} else {
		bc.setUserPlan(userCtx.UserID, billing.PlanFree)
	}

	return c.JSON(status)
}

// HandleListPayments returns the user's payment history.
func (bc *BillingController) HandleListPayments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	const pageSize = 20

	payments, err := bc.svc.ListPayments(c.Context(), userCtx.UserID, (page-1)*pageSize, pageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os pagamentos")
	}

	return c.JSON(fiber.Map{
		"page":     page,
		"payments": payments,
	})
}

// webhookEnvelope extracts the delivery id the gateway sends alongside the
// event body.
type webhookEnvelope struct {
	ID    string `json:"id"`
	Event string `json:"event"`
}

// HandleAsaasWebhook ingests gateway notifications.
//
// Order of operations: verify the access token, persist the raw event
// (idempotent on the delivery id), translate and apply it, then mark it
// processed. A replayed delivery is acknowledged without reprocessing only
// once the stored event completed cleanly; retries of a failed or
// interrupted delivery run the handler again so a transient error cannot
// strand the event.
func (bc *BillingController) HandleAsaasWebhook(c *fiber.Ctx) error {
	token := c.Get("asaas-access-token")
	if !billing.VerifyWebhookToken(token, billing.WebhookTokenFromEnv()) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid webhook token")
	}

	body := c.Body()

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed webhook body")
	}

	created, record, err := bc.svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		ProviderEventID: envelope.ID,
		EventType:       envelope.Event,
		PayloadJSON:     string(body),
		TokenValid:      true,
	})
	if err != nil {
		log.Errorf("Failed to record webhook event: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to record event")
	}
	if !created && record.ProcessedAt != nil && record.ProcessingError == "" {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	event, err := billing.ParseWebhookEvent(body)
	if err != nil {
		if markErr := bc.svc.MarkWebhookProcessed(c.Context(), record.ID, err); markErr != nil {
			log.Errorf("Failed to mark webhook %d: %v", record.ID, markErr)
		}
		return jsonError(c, fiber.StatusBadRequest, "malformed webhook event")
	}

	handleErr := bc.svc.HandleWebhookEvent(c.Context(), event)
	if markErr := bc.svc.MarkWebhookProcessed(c.Context(), record.ID, handleErr); markErr != nil {
		log.Errorf("Failed to mark webhook %d: %v", record.ID, markErr)
	}
	if handleErr != nil {
		if errors.Is(handleErr, billing.ErrInvalidInput) {
			return jsonError(c, fiber.StatusBadRequest, "invalid event payload")
		}
		log.Errorf("Webhook %s failed: %v", envelope.Event, handleErr)
		return jsonError(c, fiber.StatusInternalServerError, "failed to apply event")
	}

	bc.afterWebhookApplied(event)

	return c.JSON(fiber.Map{"received": true})
}

// afterWebhookApplied syncs the entitlement plan and sends the payment mail.
// Everything here is best effort; the event itself is already applied.
func (bc *BillingController) afterWebhookApplied(event *billing.WebhookEvent) {
	kind, payStatus, _ := billing.TranslateEvent(event.Event)

	var externalID string
	switch kind {
	case billing.EventKindPayment:
		if event.Payment != nil {
			externalID = event.Payment.Subscription
		}
	case billing.EventKindSubscription:
		if event.Subscription != nil {
			externalID = event.Subscription.ID
		}
	}
	if externalID == "" {
		return
	}

	sub, err := bc.repo.SubscriptionByExternalID(externalID)
	if err != nil {
		return
	}

	bc.syncUserPlan(sub)

	if kind == billing.EventKindPayment && payStatus == billing.PayStatusPaid && event.Payment != nil {
		bc.notifyPaymentConfirmed(sub, event.Payment.Value)
	}
}

// syncUserPlan mirrors the subscription outcome onto user_settings, which is
// what the entitlement checks read.
func (bc *BillingController) syncUserPlan(sub *models.Subscription) {
	plan := billing.PlanFree
	if sub.IsActive() {
		plan = sub.PlanID
	}
	bc.setUserPlan(sub.UserID, plan)
}

func (bc *BillingController) setUserPlan(userID uint, plan string) {
	db := database.GetDB()
	if db == nil {
		return
	}

	settings, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil || settings.Plan == plan {
		return
	}

	settings.Plan = plan
	if err := db.Save(settings).Error; err != nil {
		log.Errorf("Failed to sync plan of user %d: %v", userID, err)
		return
	}

	// Sessions cache the plan; flag it for reload on the next request
	session.MarkUserPlanDirty(userID)
}

func (bc *BillingController) notifyPaymentConfirmed(sub *models.Subscription, amount float64) {
	db := database.GetDB()
	if db == nil {
		return
	}

	settings, err := models.GetOrCreateUserSettings(db, sub.UserID)
	if err != nil || !settings.NotifyPayments {
		return
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(sub.UserID)
	if err != nil {
		return
	}

	planName := sub.PlanID
	if plan, ok := billing.PlanByID(sub.PlanID); ok {
		planName = plan.Name
	}

	go func(email, name, planName string, amount float64) {
		if err := mail.SendPaymentConfirmedMail(email, name, planName, amount); err != nil {
			log.Errorf("Failed to send payment mail to %s: %v", email, err)
		}
	}(user.Email, user.Name, planName, amount)
}
