package repository

import (
	"time"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

type sponsorshipRepository struct {
	db *gorm.DB
}

// NewSponsorshipRepository creates a new sponsorship repository instance
func NewSponsorshipRepository(db *gorm.DB) SponsorshipRepository {
	return &sponsorshipRepository{db: db}
}

func (r *sponsorshipRepository) CreateForChild(s *models.Sponsorship) error {
	if s.ReceiptNumber == "" {
		s.ReceiptNumber = models.NewReceiptNumber()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Conditional update so two concurrent sponsors cannot both win.
		res := tx.Model(&models.Child{}).
			Where("id = ? AND is_sponsored = ?", s.ChildID, false).
			Update("is_sponsored", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Child{}).Where("id = ?", s.ChildID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrChildAlreadySponsored
		}
		return tx.Create(s).Error
	})
}

func (r *sponsorshipRepository) GetByID(id uint) (*models.Sponsorship, error) {
	var s models.Sponsorship
	if err := r.db.Preload("Child").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sponsorshipRepository) SetPaymentIntent(id uint, paymentIntentID string) error {
	return r.db.Model(&models.Sponsorship{}).Where("id = ?", id).
		Update("stripe_payment_intent_id", paymentIntentID).Error
}

func (r *sponsorshipRepository) ReleaseChild(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var s models.Sponsorship
		if err := tx.First(&s, id).Error; err != nil {
			return err
		}
		now := time.Now()
		res := tx.Model(&models.Sponsorship{}).
			Where("id = ? AND payment_status = ?", id, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.SponsorshipStatusEnded,
				"payment_status": models.PaymentStatusFailed,
				"end_date":       &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSponsorshipNotPending
		}
		return tx.Model(&models.Child{}).Where("id = ?", s.ChildID).Update("is_sponsored", false).Error
	})
}

// List returns sponsorships newest first, optionally filtered by status
func (r *sponsorshipRepository) List(status string, offset, limit int) ([]models.Sponsorship, error) {
	var out []models.Sponsorship
	q := r.db.Preload("Child").Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

func (r *sponsorshipRepository) ListByDonor(donorID uint) ([]models.Sponsorship, error) {
	var out []models.Sponsorship
	err := r.db.Preload("Child").Where("donor_id = ?", donorID).Order("created_at DESC").Find(&out).Error
	return out, err
}
