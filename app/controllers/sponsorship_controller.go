package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/app/repository"
	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
	"github.com/ManuelReschke/CareFund/internal/pkg/usercontext"
)

// SponsorshipController handles child listings and new sponsorships.
type SponsorshipController struct {
	children     repository.ChildRepository
	sponsorships repository.SponsorshipRepository
	module       *payment.Module
}

func NewSponsorshipController(repos *repository.Repositories, module *payment.Module) *SponsorshipController {
	return &SponsorshipController{
		children:     repos.Child,
		sponsorships: repos.Sponsorship,
		module:       module,
	}
}

type createSponsorshipRequest struct {
	ChildID       uint   `json:"childId"`
	SponsorName   string `json:"sponsorName"`
	SponsorEmail  string `json:"sponsorEmail"`
	SponsorPhone  string `json:"sponsorPhone"`
	MonthlyAmount int64  `json:"monthlyAmount"`
	PaymentMethod string `json:"paymentMethod"`
	Notes         string `json:"notes"`
}

// HandleListChildren returns children that are still waiting for a sponsor.
func (sc *SponsorshipController) HandleListChildren(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	children, err := sc.children.ListAvailable(offset, limit)
	if err != nil {
		log.Errorf("[Sponsorship] Failed to list children: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load children")
	}
	return c.JSON(fiber.Map{"children": children})
}

func (sc *SponsorshipController) HandleGetChild(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid child id")
	}
	child, err := sc.children.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "child_not_found", "Child not found")
		}
		log.Errorf("[Sponsorship] Failed to load child %d: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load child")
	}
	return c.JSON(fiber.Map{"child": child})
}

// HandleCreateSponsorship creates a pending sponsorship. Card sponsorships
// also get a payment intent for the first monthly payment.
func (sc *SponsorshipController) HandleCreateSponsorship(c *fiber.Ctx) error {
	var req createSponsorshipRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed sponsorship request")
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = models.PaymentMethodCard
	}
	s := &models.Sponsorship{
		ChildID:       req.ChildID,
		DonorID:       usercontext.GetUserContext(c).DonorID(),
		SponsorName:   strings.TrimSpace(req.SponsorName),
		SponsorEmail:  strings.ToLower(strings.TrimSpace(req.SponsorEmail)),
		SponsorPhone:  strings.TrimSpace(req.SponsorPhone),
		MonthlyAmount: req.MonthlyAmount,
		StartDate:     time.Now(),
		Status:        models.SponsorshipStatusActive,
		PaymentMethod: method,
		PaymentStatus: models.PaymentStatusPending,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if s.ChildID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "childId is required")
	}
	if err := s.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	cfg := sc.module.Config
	if err := cfg.ValidateAmount(s.MonthlyAmount, cfg.BaseCurrency); err != nil {
		return writePaymentError(c, cfg.BankTransfer, err)
	}
	if method == models.PaymentMethodCard && !sc.module.Gateway.Configured() {
		return writePaymentError(c, cfg.BankTransfer, payment.ErrGatewayUnavailable)
	}

	if err := sc.sponsorships.CreateForChild(s); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return jsonError(c, fiber.StatusNotFound, "child_not_found", "Child not found")
		case errors.Is(err, repository.ErrChildAlreadySponsored):
			return jsonError(c, fiber.StatusConflict, "child_already_sponsored", "This child already has a sponsor")
		}
		log.Errorf("[Sponsorship] Failed to create sponsorship for child %d: %v", s.ChildID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create sponsorship")
	}

	resp := fiber.Map{"sponsorship": s}
	if method == models.PaymentMethodBankTransfer {
		resp["bankTransfer"] = cfg.BankTransfer
		return c.Status(fiber.StatusCreated).JSON(resp)
	}

	intent, err := sc.module.Gateway.CreateSponsorshipIntent(c.UserContext(), s)
	if err != nil {
		log.Errorf("[Sponsorship] Sponsorship %d created but payment intent failed: %v", s.ID, err)
		// Free the child so the donor can retry, e.g. by bank transfer.
		if relErr := sc.sponsorships.ReleaseChild(s.ID); relErr != nil {
			log.Errorf("[Sponsorship] Failed to release child %d after sponsorship %d failed: %v", s.ChildID, s.ID, relErr)
		}
		return writePaymentError(c, cfg.BankTransfer, err)
	}
	if err := sc.sponsorships.SetPaymentIntent(s.ID, intent.PaymentIntentID); err != nil {
		log.Errorf("[Sponsorship] Failed to link payment %s to sponsorship %d: %v", intent.PaymentIntentID, s.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create sponsorship")
	}
	s.StripePaymentIntentID = &intent.PaymentIntentID

	resp["clientSecret"] = intent.ClientSecret
	resp["paymentIntentId"] = intent.PaymentIntentID
	return c.Status(fiber.StatusCreated).JSON(resp)
}
