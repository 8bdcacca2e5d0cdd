package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/trocalar/TrocaLar/app/controllers"
	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/env"
	"github.com/trocalar/TrocaLar/internal/pkg/middleware"
	"github.com/trocalar/TrocaLar/internal/pkg/oauth"
	"github.com/trocalar/TrocaLar/internal/pkg/session"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

type HttpRouter struct {
	billing *controllers.BillingController
}

func NewHttpRouter(billing *controllers.BillingController) *HttpRouter {
	return &HttpRouter{billing: billing}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)
	app.Use(maintenanceGate)

	// CSRF double-submit via header; webhooks, OAuth and the API-key surface
	// carry their own authentication and are excluded.
	csrfConf := csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/webhooks/") ||
				strings.HasPrefix(path, "/auth/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	h.registerPublicRoutes(group)
	h.registerUserRoutes(group)
	h.registerAdminRoutes(group)
}

// maintenanceGate returns 503 for everything except health, login and admin
// traffic while maintenance mode is on.
func maintenanceGate(c *fiber.Ctx) error {
	if !models.GetAppSettings().IsMaintenanceMode() {
		return c.Next()
	}

	path := c.Path()
	if path == "/saude" || path == "/entrar" || path == "/sair" ||
		strings.HasPrefix(path, "/auth/") ||
		strings.HasPrefix(path, "/webhooks/") ||
		strings.HasPrefix(path, "/admin") {
		return c.Next()
	}
	if userCtx := usercontext.GetUserContext(c); userCtx.IsAdmin {
		return c.Next()
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error":   true,
		"message": "O TrocaLar está em manutenção. Voltamos em breve.",
	})
}
