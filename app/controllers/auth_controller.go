package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/env"
	"github.com/trocalar/TrocaLar/internal/pkg/hcaptcha"
	"github.com/trocalar/TrocaLar/internal/pkg/mail"
	"github.com/trocalar/TrocaLar/internal/pkg/session"
	"github.com/trocalar/TrocaLar/internal/pkg/statistics"
	"gorm.io/gorm"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"h_captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new inactive account and mails the activation link.
func HandleRegister(c *fiber.Ctx) error {
	if !models.GetAppSettings().IsRegistrationEnabled() {
		return jsonError(c, fiber.StatusForbidden, "Cadastro de novos usuários está desativado no momento")
	}

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados de cadastro inválidos")
	}

	// Captcha is only enforced when a secret is configured
	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		valid, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !valid {
			log.Warnf("hCaptcha validation failed: %v", err)
			return jsonError(c, fiber.StatusBadRequest, "Falha na validação do captcha. Tente novamente.")
		}
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()

	if existing, err := userRepo.GetByEmail(req.Email); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "Já existe uma conta com este e-mail")
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Não foi possível criar a conta: verifique os dados informados")
	}

	if err := user.GenerateActivationToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro interno ao criar a conta")
	}

	if err := userRepo.Create(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a conta")
	}

	go func(email, name, token string) {
		if err := mail.SendActivationMail(email, name, token); err != nil {
			log.Errorf("Failed to send activation mail to %s: %v", email, err)
		}
	}(user.Email, user.Name, user.ActivationToken)

	go statistics.UpdateStatisticsCache()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Cadastro realizado! Verifique seu e-mail para ativar a conta.",
	})
}

// HandleActivate activates an account via the mailed token.
func HandleActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "Token de ativação ausente")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByActivationToken(token)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Token de ativação inválido ou expirado")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao ativar a conta")
	}

	return c.JSON(fiber.Map{
		"message": "Conta ativada com sucesso! Você já pode entrar.",
	})
}

// HandleLogin authenticates the user and starts a session.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados de login inválidos")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(req.Email)
	if err != nil || user == nil {
		// Same message for unknown e-mail and wrong password
		return jsonError(c, fiber.StatusUnauthorized, "E-mail ou senha incorretos")
	}

	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "E-mail ou senha incorretos")
	}

	if !user.IsActive() {
		if user.Status == models.STATUS_DISABLED {
			return jsonError(c, fiber.StatusForbidden, "Esta conta foi desativada")
		}
		return jsonError(c, fiber.StatusForbidden, "Ative sua conta pelo link enviado por e-mail")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao iniciar a sessão")
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.IsAdmin())

	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a sessão")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		log.Errorf("Failed to update last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login realizado com sucesso",
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"is_admin": user.IsAdmin(),
		},
	})
}

// HandleLogout destroys the current session.
func HandleLogout(c *fiber.Ctx) error {
	if err := session.DestroySession(c); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao encerrar a sessão")
	}

	c.Locals(FROM_PROTECTED, false)

	return c.JSON(fiber.Map{
		"message": "Sessão encerrada. Até logo!",
	})
}

// HandleConfirmEmailChange applies a pending e-mail change via the mailed token.
func HandleConfirmEmailChange(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "Token ausente")
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("email_change_token = ?", token).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return jsonError(c, fiber.StatusNotFound, "Token inválido ou expirado")
		}
		return jsonError(c, fiber.StatusInternalServerError, "Erro interno")
	}

	if !user.IsEmailChangeTokenValid(token) || !user.HasPendingEmailChange() {
		return jsonError(c, fiber.StatusNotFound, "Token inválido ou expirado")
	}

	user.Email = user.PendingEmail
	user.PendingEmail = ""
	user.EmailChangeToken = ""
	user.EmailChangeSentAt = nil
	if err := db.Save(&user).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao confirmar o novo e-mail")
	}

	return c.JSON(fiber.Map{
		"message": "E-mail atualizado com sucesso",
	})
}
