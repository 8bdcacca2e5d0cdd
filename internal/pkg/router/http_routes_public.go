package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trocalar/TrocaLar/app/controllers"
	"github.com/trocalar/TrocaLar/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(group fiber.Router) {
	group.Get("/", controllers.HandleHome)
	group.Get("/saude", controllers.HandleHealth)

	// CSRF bootstrap for the SPA: the middleware sets the cookie, the handler
	// hands the token over for the X-Csrf-Token header.
	group.Get("/csrf", func(c *fiber.Ctx) error {
		token, _ := c.Locals("csrf").(string)
		return c.JSON(fiber.Map{"token": token})
	})

	// Account lifecycle
	group.Post("/cadastro", controllers.HandleRegister)
	group.Get("/ativar-conta", controllers.HandleActivate)
	group.Post("/entrar", controllers.HandleLogin)
	group.Post("/sair", middleware.RequireAuth, controllers.HandleLogout)
	group.Get("/confirmar-email", controllers.HandleConfirmEmailChange)

	// Public listing search and detail
	group.Get("/anuncios", controllers.HandleSearchProperties)
	group.Get("/anuncios/recentes", controllers.HandleRecentProperties)
	group.Get("/anuncios/:uuid", controllers.HandleGetProperty)
	group.Get("/l/:slug", controllers.HandleShareLink)
	group.Get("/fotos/:uuid/status", controllers.HandlePhotoStatus)

	// Plan catalog is public; the pricing page needs no login
	group.Get("/planos", h.billing.HandlePlans)

	// Social OAuth
	group.Get("/auth/:provider", controllers.HandleOAuthBegin)
	group.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	group.Get("/auth/logout", controllers.HandleOAuthLogout)

	// Billing provider webhooks (no CSRF, token-verified in the controller)
	group.Post("/webhooks/asaas", h.billing.HandleAsaasWebhook)
}
