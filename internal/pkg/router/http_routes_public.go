package router

import (
	"time"

	"github.com/ManuelReschke/CareFund/app/controllers"
	"github.com/ManuelReschke/CareFund/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth
	auth := app.Group("/auth", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}))
	auth.Post("/donor/register", controllers.HandleDonorRegister)
	auth.Post("/donor/login", controllers.HandleDonorLogin)
	auth.Post("/admin/login", controllers.HandleAdminLogin)
	auth.Post("/logout", controllers.HandleLogout)

	// Donor area
	donor := app.Group("/donor", middleware.RequireDonor)
	donor.Get("/profile", controllers.HandleDonorProfile)
	donor.Get("/donations", controllers.HandleDonorDonations)
}
