package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to the web controllers to keep response shapes consistent
	"github.com/trocalar/TrocaLar/app/controllers"
)

// ServerInterface lists the v1 operations. The route layer binds them; the
// API key middleware supplies the user context.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetAccount(c *fiber.Ctx) error
	GetListings(c *fiber.Ctx) error
	PostListing(c *fiber.Ctx) error
	GetPhotoStatus(c *fiber.Ctx) error
	GetSubscription(c *fiber.Ctx) error
}

// RegisterHandlers binds the authenticated v1 operations onto the router.
// Ping stays outside: it needs no key.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/account", si.GetAccount)
	router.Get("/listings", si.GetListings)
	router.Post("/listings", si.PostListing)
	router.Get("/photos/:uuid/status", si.GetPhotoStatus)
	router.Get("/subscription", si.GetSubscription)
}

// APIServer implements the ServerInterface
type APIServer struct {
	billing *controllers.BillingController
}

// NewAPIServer creates a new API server instance
func NewAPIServer(billing *controllers.BillingController) *APIServer {
	return &APIServer{billing: billing}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetAccount returns account information for the key owner.
func (s *APIServer) GetAccount(c *fiber.Ctx) error {
	return controllers.HandleUserProfile(c)
}

// GetListings returns the key owner's listings.
func (s *APIServer) GetListings(c *fiber.Ctx) error {
	return controllers.HandleMyProperties(c)
}

// PostListing creates a draft listing for the key owner.
func (s *APIServer) PostListing(c *fiber.Ctx) error {
	return controllers.HandleCreateProperty(c)
}

// GetPhotoStatus reports thumbnail processing progress.
func (s *APIServer) GetPhotoStatus(c *fiber.Ctx) error {
	return controllers.HandlePhotoStatus(c)
}

// GetSubscription returns the key owner's resolved subscription state.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	return s.billing.HandleSubscriptionStatus(c)
}
