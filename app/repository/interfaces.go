package repository

import (
	"errors"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

// ErrChildAlreadySponsored is returned when a sponsorship targets a child
// that already has an active sponsor.
var ErrChildAlreadySponsored = errors.New("child already sponsored")

// ErrSponsorshipNotPending is returned when releasing a sponsorship whose
// payment already left the pending state.
var ErrSponsorshipNotPending = errors.New("sponsorship payment is not pending")

// DonorRepository defines the interface for donor account operations
type DonorRepository interface {
	Create(donor *models.Donor) error
	GetByID(id uint) (*models.Donor, error)
	GetByEmail(email string) (*models.Donor, error)
	TouchLastLogin(id uint) error
}

// AdminRepository defines the interface for admin account operations
type AdminRepository interface {
	Create(admin *models.Admin) error
	GetByEmail(email string) (*models.Admin, error)
	TouchLastLogin(id uint) error
	Count() (int64, error)
}

// ChildRepository defines the interface for beneficiary operations
type ChildRepository interface {
	Create(child *models.Child) error
	GetByID(id uint) (*models.Child, error)
	ListAvailable(offset, limit int) ([]models.Child, error)
	List(offset, limit int) ([]models.Child, error)
}

// DonationRepository defines the read side of donations. Donations are only
// written by the payment reconciler.
type DonationRepository interface {
	List(offset, limit int) ([]models.Donation, error)
	ListByDonor(donorID uint, offset, limit int) ([]models.Donation, error)
	Count() (int64, error)
	TotalAmount() (int64, error)
}

// SponsorshipRepository defines the interface for sponsorship operations
type SponsorshipRepository interface {
	// CreateForChild marks the child sponsored and inserts the sponsorship in
	// one transaction.
	CreateForChild(s *models.Sponsorship) error
	GetByID(id uint) (*models.Sponsorship, error)
	SetPaymentIntent(id uint, paymentIntentID string) error
	// ReleaseChild ends a still-pending sponsorship as failed and makes its
	// child available again, in one transaction.
	ReleaseChild(id uint) error
	List(status string, offset, limit int) ([]models.Sponsorship, error)
	ListByDonor(donorID uint) ([]models.Sponsorship, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Donor       DonorRepository
	Admin       AdminRepository
	Child       ChildRepository
	Donation    DonationRepository
	Sponsorship SponsorshipRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Donor:       NewDonorRepository(db),
		Admin:       NewAdminRepository(db),
		Child:       NewChildRepository(db),
		Donation:    NewDonationRepository(db),
		Sponsorship: NewSponsorshipRepository(db),
	}
}
