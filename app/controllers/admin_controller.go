package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/app/repository"
	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
)

// AdminController serves the staff review endpoints.
type AdminController struct {
	repos  *repository.Repositories
	module *payment.Module
}

func NewAdminController(repos *repository.Repositories, module *payment.Module) *AdminController {
	return &AdminController{repos: repos, module: module}
}

func (ac *AdminController) HandleDonations(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	donations, err := ac.repos.Donation.List(offset, limit)
	if err != nil {
		log.Errorf("[Admin] Failed to list donations: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load donations")
	}
	total, err := ac.repos.Donation.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count donations")
	}
	sum, err := ac.repos.Donation.TotalAmount()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to sum donations")
	}
	return c.JSON(fiber.Map{
		"donations":    donations,
		"total":        total,
		"totalAmount":  sum,
		"baseCurrency": ac.module.Config.BaseCurrency,
	})
}

func (ac *AdminController) HandleSponsorships(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	switch status {
	case "", models.SponsorshipStatusActive, models.SponsorshipStatusPaused, models.SponsorshipStatusEnded:
	default:
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "unknown status filter")
	}

	sponsorships, err := ac.repos.Sponsorship.List(status, offset, limit)
	if err != nil {
		log.Errorf("[Admin] Failed to list sponsorships: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load sponsorships")
	}
	return c.JSON(fiber.Map{"sponsorships": sponsorships})
}

func (ac *AdminController) HandleSponsorship(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid sponsorship id")
	}
	s, err := ac.repos.Sponsorship.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Sponsorship not found")
		}
		log.Errorf("[Admin] Failed to load sponsorship %d: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load sponsorship")
	}
	return c.JSON(fiber.Map{"sponsorship": s})
}

// HandleChildren lists every child, sponsored or not.
func (ac *AdminController) HandleChildren(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	children, err := ac.repos.Child.List(offset, limit)
	if err != nil {
		log.Errorf("[Admin] Failed to list children: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load children")
	}
	return c.JSON(fiber.Map{"children": children})
}

// HandleUnrecordedPayments lists payments that were claimed but could not be
// recorded and need manual entry.
func (ac *AdminController) HandleUnrecordedPayments(c *fiber.Ctx) error {
	_, limit := pagination(c)
	claims, err := ac.module.UnrecordedClaims(c.UserContext(), limit)
	if err != nil {
		log.Errorf("[Admin] Failed to list unrecorded payments: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load unrecorded payments")
	}
	return c.JSON(fiber.Map{"payments": claims})
}

// HandleReceiptBackfill runs one receipt sweep on demand.
func (ac *AdminController) HandleReceiptBackfill(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := ac.module.Backfill.RunOnce(ctx)
	if err != nil {
		return writePaymentError(c, ac.module.Config.BankTransfer, err)
	}
	return c.JSON(report)
}

type createChildRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photoUrl"`
}

func (ac *AdminController) HandleCreateChild(c *fiber.Ctx) error {
	var req createChildRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed child request")
	}

	child := &models.Child{
		Name:     strings.TrimSpace(req.Name),
		Age:      req.Age,
		Bio:      strings.TrimSpace(req.Bio),
		PhotoURL: strings.TrimSpace(req.PhotoURL),
	}
	if err := child.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := ac.repos.Child.Create(child); err != nil {
		log.Errorf("[Admin] Failed to create child: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create child")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"child": child})
}
