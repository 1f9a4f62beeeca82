package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// writePaymentError maps payment errors onto HTTP responses. Card payment
// outages answer 503 with the bank transfer details so the client can fall
// back to a manual payment.
func writePaymentError(c *fiber.Ctx, bank payment.BankTransferDetails, err error) error {
	if ve, ok := payment.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_failed",
			"field":   ve.Field,
			"message": ve.Message,
		})
	}

	switch {
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":        "payment_unavailable",
			"message":      "Card payments are currently unavailable. Please use bank transfer.",
			"bankTransfer": bank,
		})
	case errors.Is(err, payment.ErrPaymentNotFound):
		return jsonError(c, fiber.StatusNotFound, "payment_not_found", "Payment not found")
	case errors.Is(err, payment.ErrPaymentNotSucceeded):
		return jsonError(c, fiber.StatusPaymentRequired, "payment_not_completed", "Payment has not been completed")
	}

	log.Errorf("[Payment] %s %s failed: %v", c.Method(), c.Path(), err)
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Payment request failed")
}

// pagination reads ?page and ?per_page and returns offset and limit.
func pagination(c *fiber.Ctx) (int, int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.Query("per_page", strconv.Itoa(defaultPageSize)))
	if err != nil || perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	return (page - 1) * perPage, perPage
}

// clientIP prefers proxy headers over the socket address.
func clientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}
