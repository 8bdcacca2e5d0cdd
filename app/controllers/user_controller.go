package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/entitlements"
	"github.com/trocalar/TrocaLar/internal/pkg/mail"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
	"github.com/trocalar/TrocaLar/internal/pkg/utils"
)

// HandleUserProfile returns the logged-in user's profile with listing and
// proposal counts.
func HandleUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Usuário não encontrado")
	}

	stats, err := userRepo.GetStatsByUserID(user.ID)
	if err != nil {
		log.Errorf("Failed to load stats for user %d: %v", user.ID, err)
		stats = &repository.UserStats{}
	}

	avatar := user.AvatarURL
	if avatar == "" {
		avatar = utils.GetGravatarURL(user.Email, 200)
	}

	limits := entitlements.ForPlan(userCtx.Plan)

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"phone":      user.Phone,
			"city":       user.City,
			"uf":         user.UF,
			"bio":        user.Bio,
			"avatar_url": avatar,
			"created_at": user.CreatedAt,
		},
		"plan": userCtx.Plan,
		"limits": fiber.Map{
			"max_listings": limits.MaxListings,
			"max_photos":   limits.MaxPhotos,
			"can_feature":  limits.CanFeature,
		},
		"stats": fiber.Map{
			"listings":  stats.ListingCount,
			"proposals": stats.ProposalCount,
		},
	})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city"`
	UF    string `json:"uf"`
	Bio   string `json:"bio"`
}

// HandleUpdateProfile updates the editable profile fields.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Usuário não encontrado")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	user.Phone = req.Phone
	user.City = req.City
	user.UF = strings.ToUpper(strings.TrimSpace(req.UF))
	user.Bio = req.Bio

	if err := user.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados de perfil inválidos")
	}

	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar o perfil")
	}

	return c.JSON(fiber.Map{"message": "Perfil atualizado"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword changes the password after checking the current one.
func HandleChangePassword(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	if len(req.NewPassword) < 6 {
		return jsonError(c, fiber.StatusBadRequest, "A nova senha deve ter pelo menos 6 caracteres")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Usuário não encontrado")
	}

	if !user.CheckPassword(req.CurrentPassword) {
		return jsonError(c, fiber.StatusUnauthorized, "Senha atual incorreta")
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao alterar a senha")
	}

	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a nova senha")
	}

	return c.JSON(fiber.Map{"message": "Senha alterada com sucesso"})
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// HandleRequestEmailChange stores a pending e-mail and mails the confirmation
// link to the new address.
func HandleRequestEmailChange(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req emailChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	newEmail := strings.TrimSpace(strings.ToLower(req.NewEmail))
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return jsonError(c, fiber.StatusBadRequest, "E-mail inválido")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()

	if existing, err := userRepo.GetByEmail(newEmail); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "Este e-mail já está em uso")
	}

	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Usuário não encontrado")
	}

	user.PendingEmail = newEmail
	if err := user.GenerateEmailChangeToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro interno")
	}
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a solicitação")
	}

	go func(email, name, token string) {
		if err := mail.SendEmailChangeMail(email, name, token); err != nil {
			log.Errorf("Failed to send email change mail to %s: %v", email, err)
		}
	}(newEmail, user.Name, user.EmailChangeToken)

	return c.JSON(fiber.Map{
		"message": "Enviamos um link de confirmação para o novo e-mail",
	})
}

// HandleUserSettings returns notification preferences and API key metadata.
func HandleUserSettings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as preferências")
	}

	return c.JSON(fiber.Map{
		"plan":                 settings.Plan,
		"notify_proposals":     settings.NotifyProposals,
		"notify_payments":      settings.NotifyPayments,
		"notify_newsletter":    settings.NotifyNewsletter,
		"contact_phone_public": settings.ContactPhonePublic,
		"api_key": fiber.Map{
			"active":       settings.HasActiveAPIKey(),
			"prefix":       settings.APIKeyPrefix,
			"created_at":   settings.APIKeyCreatedAt,
			"last_used_at": settings.APIKeyLastUsedAt,
		},
	})
}

type updateSettingsRequest struct {
	NotifyProposals    *bool `json:"notify_proposals"`
	NotifyPayments     *bool `json:"notify_payments"`
	NotifyNewsletter   *bool `json:"notify_newsletter"`
	ContactPhonePublic *bool `json:"contact_phone_public"`
}

// HandleUpdateUserSettings updates notification preferences. Only fields
// present in the body are touched.
func HandleUpdateUserSettings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as preferências")
	}

	if req.NotifyProposals != nil {
		settings.NotifyProposals = *req.NotifyProposals
	}
	if req.NotifyPayments != nil {
		settings.NotifyPayments = *req.NotifyPayments
	}
	if req.NotifyNewsletter != nil {
		settings.NotifyNewsletter = *req.NotifyNewsletter
	}
	if req.ContactPhonePublic != nil {
		settings.ContactPhonePublic = *req.ContactPhonePublic
	}

	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar as preferências")
	}

	return c.JSON(fiber.Map{"message": "Preferências atualizadas"})
}

// HandleIssueAPIKey creates a new API key. The raw secret is returned exactly
// once; only the hash is stored.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as preferências")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao gerar a chave de API")
	}

	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a chave de API")
	}

	return c.JSON(fiber.Map{
		"message": "Chave de API criada. Guarde-a em local seguro: ela não será exibida novamente.",
		"api_key": rawKey,
		"prefix":  settings.APIKeyPrefix,
	})
}

// HandleRevokeAPIKey invalidates the current API key.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as preferências")
	}

	if !settings.HasActiveAPIKey() {
		return jsonError(c, fiber.StatusNotFound, "Nenhuma chave de API ativa")
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao revogar a chave de API")
	}

	return c.JSON(fiber.Map{"message": "Chave de API revogada"})
}
