package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
)

var donateController *DonateController

// InitializeDonateController wires the controller to the payment module
// installed by payment.Setup.
func InitializeDonateController() {
	donateController = NewDonateController(payment.GetModule())
}

func GetDonateController() *DonateController {
	if donateController == nil {
		InitializeDonateController()
	}
	return donateController
}

func HandleCreatePaymentIntent(c *fiber.Ctx) error {
	return GetDonateController().HandleCreatePaymentIntent(c)
}

func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	return GetDonateController().HandleCreateCheckoutSession(c)
}

func HandleConfirmPayment(c *fiber.Ctx) error {
	return GetDonateController().HandleConfirmPayment(c)
}

func HandleVerifySession(c *fiber.Ctx) error {
	return GetDonateController().HandleVerifySession(c)
}

func HandleDonateConfig(c *fiber.Ctx) error {
	return GetDonateController().HandleConfig(c)
}

func HandleStripeWebhook(c *fiber.Ctx) error {
	return GetDonateController().HandleStripeWebhook(c)
}

func HandleImpact(c *fiber.Ctx) error {
	return GetDonateController().HandleImpact(c)
}
