package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

// donorRepository implements the DonorRepository interface
type donorRepository struct {
	db *gorm.DB
}

// NewDonorRepository creates a new donor repository instance
func NewDonorRepository(db *gorm.DB) DonorRepository {
	return &donorRepository{db: db}
}

func (r *donorRepository) Create(donor *models.Donor) error {
	return r.db.Create(donor).Error
}

func (r *donorRepository) GetByID(id uint) (*models.Donor, error) {
	var donor models.Donor
	if err := r.db.First(&donor, id).Error; err != nil {
		return nil, err
	}
	return &donor, nil
}

// GetByEmail looks the donor up case-insensitively
func (r *donorRepository) GetByEmail(email string) (*models.Donor, error) {
	var donor models.Donor
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&donor).Error
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

func (r *donorRepository) TouchLastLogin(id uint) error {
	return r.db.Model(&models.Donor{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error
}
