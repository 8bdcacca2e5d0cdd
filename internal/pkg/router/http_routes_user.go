package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trocalar/TrocaLar/app/controllers"
	"github.com/trocalar/TrocaLar/internal/pkg/middleware"
)

func (h HttpRouter) registerUserRoutes(group fiber.Router) {
	user := group.Group("", middleware.RequireAuth)

	// Profile and preferences
	user.Get("/perfil", controllers.HandleUserProfile)
	user.Put("/perfil", controllers.HandleUpdateProfile)
	user.Put("/perfil/senha", controllers.HandleChangePassword)
	user.Post("/perfil/email", controllers.HandleRequestEmailChange)
	user.Get("/preferencias", controllers.HandleUserSettings)
	user.Put("/preferencias", controllers.HandleUpdateUserSettings)
	user.Post("/preferencias/api-key", controllers.HandleIssueAPIKey)
	user.Delete("/preferencias/api-key", controllers.HandleRevokeAPIKey)

	// Listings
	user.Post("/anuncios", controllers.HandleCreateProperty)
	user.Get("/meus-anuncios", controllers.HandleMyProperties)
	user.Put("/anuncios/:uuid", controllers.HandleUpdateProperty)
	user.Delete("/anuncios/:uuid", controllers.HandleDeleteProperty)
	user.Post("/anuncios/:uuid/publicar", controllers.HandlePublishProperty)
	user.Post("/anuncios/:uuid/pausar", controllers.HandlePauseProperty)

	// Photos
	user.Post("/anuncios/:uuid/fotos/token", controllers.HandleRequestUploadToken)
	user.Post("/anuncios/:uuid/fotos", controllers.HandleUploadPhoto)
	user.Put("/anuncios/:uuid/fotos/ordem", controllers.HandleReorderPhotos)
	user.Delete("/fotos/:uuid", controllers.HandleDeletePhoto)

	// Swap proposals
	user.Post("/propostas", controllers.HandleCreateProposal)
	user.Get("/propostas/enviadas", controllers.HandleSentProposals)
	user.Get("/propostas/recebidas", controllers.HandleReceivedProposals)
	user.Post("/propostas/:id/aceitar", controllers.HandleAcceptProposal)
	user.Post("/propostas/:id/recusar", controllers.HandleRejectProposal)
	user.Post("/propostas/:id/retirar", controllers.HandleWithdrawProposal)

	// Subscription
	user.Get("/assinatura", h.billing.HandleSubscriptionStatus)
	user.Post("/assinatura/trocar-plano", h.billing.HandleChangePlan)
	user.Post("/assinatura/cancelar", h.billing.HandleCancelSubscription)
	user.Post("/assinatura/sincronizar", h.billing.HandleResyncSubscription)
	user.Get("/assinatura/pagamentos", h.billing.HandleListPayments)
}
