package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
	"github.com/ManuelReschke/CareFund/internal/pkg/statistics"
	"github.com/ManuelReschke/CareFund/internal/pkg/usercontext"
)

// DonateController serves the public donation flow and the processor webhook.
type DonateController struct {
	module *payment.Module
}

func NewDonateController(module *payment.Module) *DonateController {
	return &DonateController{module: module}
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (dc *DonateController) parseDonation(c *fiber.Ctx) (payment.DonationRequest, error) {
	var req payment.DonationRequest
	if err := c.BodyParser(&req); err != nil {
		return req, err
	}
	req.DonorID = usercontext.GetUserContext(c).DonorID()
	return req, nil
}

// HandleCreatePaymentIntent creates an embedded card payment.
func (dc *DonateController) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	req, err := dc.parseDonation(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed donation request")
	}

	res, err := dc.module.Gateway.CreatePaymentIntent(c.UserContext(), req)
	if err != nil {
		return writePaymentError(c, dc.module.Config.BankTransfer, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// HandleCreateCheckoutSession creates a hosted checkout payment.
func (dc *DonateController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	req, err := dc.parseDonation(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed donation request")
	}

	res, err := dc.module.Gateway.CreateCheckoutSession(c.UserContext(), req)
	if err != nil {
		return writePaymentError(c, dc.module.Config.BankTransfer, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// HandleConfirmPayment is called by the client once an embedded payment
// finished.
func (dc *DonateController) HandleConfirmPayment(c *fiber.Ctx) error {
	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed confirmation request")
	}

	res, err := dc.module.Reconciler.ConfirmPayment(c.UserContext(), req.PaymentIntentID)
	if err != nil {
		return writePaymentError(c, dc.module.Config.BankTransfer, err)
	}
	if res.Recorded {
		statistics.Invalidate()
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// HandleVerifySession is hit when the donor returns from hosted checkout.
func (dc *DonateController) HandleVerifySession(c *fiber.Ctx) error {
	res, err := dc.module.Reconciler.VerifySession(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return writePaymentError(c, dc.module.Config.BankTransfer, err)
	}
	if res.Recorded {
		statistics.Invalidate()
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// HandleConfig exposes what the donation form needs to render.
func (dc *DonateController) HandleConfig(c *fiber.Ctx) error {
	cfg := dc.module.Config
	return c.JSON(fiber.Map{
		"cardPaymentsEnabled": dc.module.Gateway.Configured(),
		"publishableKey":      cfg.PublishableKey,
		"baseCurrency":        cfg.BaseCurrency,
		"currencies":          cfg.SupportedCurrencies(),
		"minimumAmounts":      cfg.MinimumAmounts,
		"maximumAmount":       cfg.MaximumAmount,
		"exchangeRates":       cfg.Rates,
		"ratesUpdatedAt":      cfg.RatesUpdatedAt,
		"categories":          models.DonationCategories,
		"bankTransfer":        cfg.BankTransfer,
	})
}

// HandleStripeWebhook must see the body exactly as sent; it is registered
// ahead of every body-consuming middleware.
func (dc *DonateController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	out, err := dc.module.Reconciler.HandleWebhook(ctx, rawBody, signature)
	if err != nil {
		if errors.Is(err, payment.ErrWebhookSignatureInvalid) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
		}
		log.Errorf("[StripeWebhook] Processing failed, asking for redelivery: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "webhook_processing_failed", "Webhook could not be processed")
	}
	if out.Recorded {
		statistics.Invalidate()
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"received":  true,
		"duplicate": out.Duplicate,
		"handled":   out.Handled,
	})
}

// HandleImpact returns the cached public totals.
func (dc *DonateController) HandleImpact(c *fiber.Ctx) error {
	data := statistics.GetImpactData()
	return c.JSON(fiber.Map{
		"baseCurrency": dc.module.Config.BaseCurrency,
		"impact":       data,
	})
}
