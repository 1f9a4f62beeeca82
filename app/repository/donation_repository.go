package repository

import (
	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository instance
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) List(offset, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&donations).Error
	return donations, err
}

func (r *donationRepository) ListByDonor(donorID uint, offset, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Where("donor_id = ?", donorID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Donation{}).Count(&n).Error
	return n, err
}

// TotalAmount sums all donations in the base currency
func (r *donationRepository) TotalAmount() (int64, error) {
	var total int64
	err := r.db.Model(&models.Donation{}).Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}
