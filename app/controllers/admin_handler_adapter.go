package controllers

import (
	"github.com/ManuelReschke/CareFund/app/repository"
	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
	"github.com/gofiber/fiber/v2"
)

// Global controller instances
var (
	adminController       *AdminController
	authController        *AuthController
	sponsorshipController *SponsorshipController
)

// InitializeControllers builds the repository-backed controllers from the
// global repository factory and payment module.
func InitializeControllers() {
	repos := repository.GetGlobalRepositories()
	module := payment.GetModule()

	adminController = NewAdminController(repos, module)
	authController = NewAuthController(repos)
	sponsorshipController = NewSponsorshipController(repos, module)
	InitializeDonateController()
}

func GetAdminController() *AdminController {
	if adminController == nil {
		InitializeControllers()
	}
	return adminController
}

func GetAuthController() *AuthController {
	if authController == nil {
		InitializeControllers()
	}
	return authController
}

func GetSponsorshipController() *SponsorshipController {
	if sponsorshipController == nil {
		InitializeControllers()
	}
	return sponsorshipController
}

// Adapter functions used by the router

func HandleAdminDonations(c *fiber.Ctx) error {
	return GetAdminController().HandleDonations(c)
}

func HandleAdminSponsorships(c *fiber.Ctx) error {
	return GetAdminController().HandleSponsorships(c)
}

func HandleAdminSponsorship(c *fiber.Ctx) error {
	return GetAdminController().HandleSponsorship(c)
}

func HandleAdminChildren(c *fiber.Ctx) error {
	return GetAdminController().HandleChildren(c)
}

func HandleAdminUnrecordedPayments(c *fiber.Ctx) error {
	return GetAdminController().HandleUnrecordedPayments(c)
}

func HandleAdminReceiptBackfill(c *fiber.Ctx) error {
	return GetAdminController().HandleReceiptBackfill(c)
}

func HandleAdminCreateChild(c *fiber.Ctx) error {
	return GetAdminController().HandleCreateChild(c)
}

func HandleDonorRegister(c *fiber.Ctx) error {
	return GetAuthController().HandleDonorRegister(c)
}

func HandleDonorLogin(c *fiber.Ctx) error {
	return GetAuthController().HandleDonorLogin(c)
}

func HandleAdminLogin(c *fiber.Ctx) error {
	return GetAuthController().HandleAdminLogin(c)
}

func HandleLogout(c *fiber.Ctx) error {
	return GetAuthController().HandleLogout(c)
}

func HandleDonorProfile(c *fiber.Ctx) error {
	return GetAuthController().HandleDonorProfile(c)
}

func HandleDonorDonations(c *fiber.Ctx) error {
	return GetAuthController().HandleDonorDonations(c)
}

func HandleListChildren(c *fiber.Ctx) error {
	return GetSponsorshipController().HandleListChildren(c)
}

func HandleGetChild(c *fiber.Ctx) error {
	return GetSponsorshipController().HandleGetChild(c)
}

func HandleCreateSponsorship(c *fiber.Ctx) error {
	return GetSponsorshipController().HandleCreateSponsorship(c)
}
