package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/trocalar/TrocaLar/app/controllers"
	apiv1 "github.com/trocalar/TrocaLar/internal/api/v1"
	"github.com/trocalar/TrocaLar/internal/pkg/middleware"
)

type ApiRouter struct {
	billing *controllers.BillingController
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "TrocaLar API",
		})
	})

	apiServer := apiv1.NewAPIServer(h.billing)

	// Ping needs no key
	api.Get("/v1/ping", apiServer.GetPing)

	// Everything else authenticates via X-API-Key
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter(billing *controllers.BillingController) *ApiRouter {
	return &ApiRouter{billing: billing}
}
