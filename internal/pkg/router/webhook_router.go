package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/CareFund/app/controllers"
)

// InstallWebhookRoutes registers processor webhooks. It runs before any
// other middleware is added so the handler sees the untouched body and no
// session layer interferes with the processor's requests.
func InstallWebhookRoutes(app *fiber.App) {
	app.Post("/stripe/webhook", recover.New(), controllers.HandleStripeWebhook)
}
