package router

import (
	"time"

	"github.com/ManuelReschke/CareFund/app/controllers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ApiRouter serves the JSON endpoints used by the donation frontend.
type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	donate := app.Group("/donate", cors.New(), limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}))
	donate.Get("/config", controllers.HandleDonateConfig)
	donate.Post("/create-payment-intent", controllers.HandleCreatePaymentIntent)
	donate.Post("/create-checkout-session", controllers.HandleCreateCheckoutSession)
	donate.Post("/confirm-payment", controllers.HandleConfirmPayment)
	donate.Get("/verify/:sessionId", controllers.HandleVerifySession)
	donate.Get("/impact", controllers.HandleImpact)

	app.Get("/children", controllers.HandleListChildren)
	app.Get("/children/:id", controllers.HandleGetChild)
	app.Post("/sponsorships", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}), controllers.HandleCreateSponsorship)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
