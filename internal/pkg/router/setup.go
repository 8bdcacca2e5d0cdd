package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trocalar/TrocaLar/app/controllers"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires all route groups. HttpRouter goes first: it initializes
// the session store, the OAuth providers and the global user context
// middleware the API group depends on.
func InstallRouter(app *fiber.App, billing *controllers.BillingController) {
	setup(app, NewHttpRouter(billing), NewApiRouter(billing))
}

func setup(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}
