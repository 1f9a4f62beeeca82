package router

import (
	"github.com/ManuelReschke/CareFund/app/controllers"
	"github.com/ManuelReschke/CareFund/internal/pkg/middleware"
	"github.com/ManuelReschke/CareFund/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	// Apply UserContext middleware globally
	app.Use(middleware.UserContextMiddleware)

	// Initialize controllers with repositories and the payment module
	controllers.InitializeControllers()

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
