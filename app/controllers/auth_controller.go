package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/app/repository"
	"github.com/ManuelReschke/CareFund/internal/pkg/session"
	"github.com/ManuelReschke/CareFund/internal/pkg/usercontext"
)

// AuthController handles donor and admin logins. Identities live in the
// session store with a fixed timeout.
type AuthController struct {
	donors       repository.DonorRepository
	admins       repository.AdminRepository
	donations    repository.DonationRepository
	sponsorships repository.SponsorshipRepository
}

func NewAuthController(repos *repository.Repositories) *AuthController {
	return &AuthController{
		donors:       repos.Donor,
		admins:       repos.Admin,
		donations:    repos.Donation,
		sponsorships: repos.Sponsorship,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const loginFailedMessage = "There is a problem with the login process"

// HandleDonorRegister creates a donor account and logs it in.
func (ac *AuthController) HandleDonorRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed registration request")
	}

	donor, err := models.CreateDonor(req.Name, req.Email, req.Password)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation_failed",
				"field":   strings.ToLower(verrs[0].Field()),
				"message": verrs[0].Error(),
			})
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	if _, err := ac.donors.GetByEmail(donor.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Auth] Donor lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	if err := ac.donors.Create(donor); err != nil {
		log.Errorf("[Auth] Failed to create donor: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	if err := startSession(c, donor.ID, donor.Name, usercontext.RoleDonor); err != nil {
		log.Errorf("[Auth] Failed to start session for donor %d: %v", donor.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"donor": donor})
}

// HandleDonorLogin checks donor credentials and starts a session.
func (ac *AuthController) HandleDonorLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed login request")
	}

	donor, err := ac.donors.GetByEmail(req.Email)
	if err != nil || !donor.CheckPassword(req.Password) {
		log.Warnf("[Auth] Failed donor login for %q from %s", req.Email, clientIP(c))
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", loginFailedMessage)
	}

	if err := startSession(c, donor.ID, donor.Name, usercontext.RoleDonor); err != nil {
		log.Errorf("[Auth] Failed to start session for donor %d: %v", donor.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}
	if err := ac.donors.TouchLastLogin(donor.ID); err != nil {
		log.Warnf("[Auth] Failed to update last login for donor %d: %v", donor.ID, err)
	}
	return c.JSON(fiber.Map{"donor": donor})
}

// HandleAdminLogin checks admin credentials and starts a session.
func (ac *AuthController) HandleAdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed login request")
	}

	admin, err := ac.admins.GetByEmail(req.Email)
	if err != nil || !admin.IsActive() || !admin.CheckPassword(req.Password) {
		log.Warnf("[Auth] Failed admin login for %q from %s", req.Email, clientIP(c))
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", loginFailedMessage)
	}

	if err := startSession(c, admin.ID, admin.Name, usercontext.RoleAdmin); err != nil {
		log.Errorf("[Auth] Failed to start session for admin %d: %v", admin.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}
	if err := ac.admins.TouchLastLogin(admin.ID); err != nil {
		log.Warnf("[Auth] Failed to update last login for admin %d: %v", admin.ID, err)
	}
	return c.JSON(fiber.Map{"admin": admin})
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		return c.JSON(fiber.Map{"ok": true})
	}
	sess, err := store.Get(c)
	if err != nil {
		return c.JSON(fiber.Map{"ok": true})
	}
	if err := sess.Destroy(); err != nil {
		log.Errorf("[Auth] Failed to destroy session: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Logout failed")
	}
	c.Locals(usercontext.KeyFromProtected, false)
	return c.JSON(fiber.Map{"ok": true})
}

// HandleDonorProfile returns the logged-in donor's account.
func (ac *AuthController) HandleDonorProfile(c *fiber.Ctx) error {
	donor, err := ac.donors.GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Donor not found")
		}
		log.Errorf("[Auth] Failed to load donor profile: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load profile")
	}
	return c.JSON(fiber.Map{"donor": donor})
}

// HandleDonorDonations lists the logged-in donor's giving history.
func (ac *AuthController) HandleDonorDonations(c *fiber.Ctx) error {
	donorID := usercontext.GetUserID(c)
	offset, limit := pagination(c)

	donations, err := ac.donations.ListByDonor(donorID, offset, limit)
	if err != nil {
		log.Errorf("[Auth] Failed to load donations for donor %d: %v", donorID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load donations")
	}
	sponsorships, err := ac.sponsorships.ListByDonor(donorID)
	if err != nil {
		log.Errorf("[Auth] Failed to load sponsorships for donor %d: %v", donorID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load sponsorships")
	}
	return c.JSON(fiber.Map{
		"donations":    donations,
		"sponsorships": sponsorships,
	})
}

// startSession replaces any existing session id before storing the identity.
func startSession(c *fiber.Ctx, id uint, name, role string) error {
	store := session.GetSessionStore()
	if store == nil {
		return errors.New("session store not initialized")
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}

	sess.Set(usercontext.KeyUserID, id)
	sess.Set(usercontext.KeyUsername, name)
	sess.Set(usercontext.KeyRole, role)
	return sess.Save()
}
