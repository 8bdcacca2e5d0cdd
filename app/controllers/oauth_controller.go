package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/env"
	"github.com/trocalar/TrocaLar/internal/pkg/session"
)

func frontendBase() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

// HandleOAuthBegin starts the provider redirect dance. The provider name
// comes from the :provider route parameter.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback finishes the provider flow, creating the local account
// on first login. OAuth accounts are active immediately; the provider already
// verified the e-mail.
func HandleOAuthCallback(c *fiber.Ctx) error {
	gothUser, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("OAuth callback failed: %v", err)
		return c.Redirect(frontendBase() + "/entrar?error=oauth")
	}

	email := strings.TrimSpace(strings.ToLower(gothUser.Email))
	if email == "" {
		return c.Redirect(frontendBase() + "/entrar?error=oauth_no_email")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()

	user, err := userRepo.GetByEmail(email)
	if err != nil || user == nil {
		name := gothUser.Name
		if name == "" {
			name = strings.Split(email, "@")[0]
		}

		// OAuth users never use the password; store a random one
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return c.Redirect(frontendBase() + "/entrar?error=oauth")
		}

		user, err = models.CreateUser(name, email, hex.EncodeToString(buf))
		if err != nil {
			log.Errorf("Failed to create OAuth user %s: %v", email, err)
			return c.Redirect(frontendBase() + "/entrar?error=oauth")
		}
		user.Status = models.STATUS_ACTIVE
		if gothUser.AvatarURL != "" {
			user.AvatarURL = gothUser.AvatarURL
		}

		if err := userRepo.Create(user); err != nil {
			log.Errorf("Failed to save OAuth user %s: %v", email, err)
			return c.Redirect(frontendBase() + "/entrar?error=oauth")
		}
	}

	if user.Status == models.STATUS_DISABLED {
		return c.Redirect(frontendBase() + "/entrar?error=disabled")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Redirect(frontendBase() + "/entrar?error=session")
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.IsAdmin())
	if err := sess.Save(); err != nil {
		return c.Redirect(frontendBase() + "/entrar?error=session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		log.Errorf("Failed to update last login for user %d: %v", user.ID, err)
	}

	return c.Redirect(frontendBase() + "/")
}

// HandleOAuthLogout clears the provider session and the app session.
func HandleOAuthLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		log.Warnf("OAuth logout failed: %v", err)
	}
	if err := session.DestroySession(c); err != nil {
		log.Warnf("Session destroy failed: %v", err)
	}
	return c.Redirect(frontendBase() + "/")
}
