package router

import (
	"github.com/ManuelReschke/CareFund/app/controllers"
	"github.com/ManuelReschke/CareFund/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/donations", controllers.HandleAdminDonations)
	adminGroup.Get("/sponsorships", controllers.HandleAdminSponsorships)
	adminGroup.Get("/sponsorships/:id", controllers.HandleAdminSponsorship)
	adminGroup.Get("/children", controllers.HandleAdminChildren)
	adminGroup.Post("/children", controllers.HandleAdminCreateChild)

	// Payment review
	adminGroup.Get("/payments/unrecorded", controllers.HandleAdminUnrecordedPayments)
	adminGroup.Post("/receipts/backfill", controllers.HandleAdminReceiptBackfill)
}
