package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trocalar/TrocaLar/app/controllers"
	"github.com/trocalar/TrocaLar/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(group fiber.Router) {
	admin := group.Group("/admin", middleware.RequireAdmin)

	admin.Get("/", controllers.HandleAdminDashboard)

	admin.Get("/usuarios", controllers.HandleAdminUsers)
	admin.Put("/usuarios/:id/status", controllers.HandleAdminSetUserStatus)

	admin.Get("/anuncios", controllers.HandleAdminListings)
	admin.Delete("/anuncios/:uuid", controllers.HandleAdminRemoveListing)

	admin.Get("/pagamentos", controllers.HandleAdminPayments)

	admin.Get("/configuracoes", controllers.HandleAdminGetSettings)
	admin.Put("/configuracoes", controllers.HandleAdminSaveSettings)

	admin.Get("/fila", controllers.HandleAdminQueueStats)
}
