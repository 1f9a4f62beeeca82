package payment

import (
	"context"
	"time"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the payment core.
type Repository interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	GetSponsorship(ctx context.Context, id uint) (*models.Sponsorship, error)
	MarkSponsorshipPaid(ctx context.Context, id uint, paymentIntentID string) error
	ListSponsorshipsMissingReceipt(ctx context.Context, afterID uint, limit int) ([]models.Sponsorship, error)
	SetSponsorshipReceiptURL(ctx context.Context, id uint, url string) error
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.ProcessorWebhookEvent) (bool, *models.ProcessorWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateDonation(ctx context.Context, d *models.Donation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *gormRepository) GetSponsorship(ctx context.Context, id uint) (*models.Sponsorship, error) {
	var s models.Sponsorship
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) MarkSponsorshipPaid(ctx context.Context, id uint, paymentIntentID string) error {
	tx := r.db.WithContext(ctx).Model(&models.Sponsorship{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status":           models.PaymentStatusCompleted,
			"stripe_payment_intent_id": paymentIntentID,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListSponsorshipsMissingReceipt returns one page of completed sponsorships
// without a receipt URL, ordered by id and starting after afterID.
func (r *gormRepository) ListSponsorshipsMissingReceipt(ctx context.Context, afterID uint, limit int) ([]models.Sponsorship, error) {
	var out []models.Sponsorship
	q := r.db.WithContext(ctx).
		Where("payment_status = ?", models.PaymentStatusCompleted).
		Where("stripe_payment_intent_id IS NOT NULL AND stripe_payment_intent_id <> ''").
		Where("stripe_receipt_url IS NULL").
		Where("id > ?", afterID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// SetSponsorshipReceiptURL writes the receipt URL once; an existing URL is
// never overwritten.
func (r *gormRepository) SetSponsorshipReceiptURL(ctx context.Context, id uint, url string) error {
	return r.db.WithContext(ctx).Model(&models.Sponsorship{}).
		Where("id = ? AND stripe_receipt_url IS NULL", id).
		Update("stripe_receipt_url", url).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.ProcessorWebhookEvent) (bool, *models.ProcessorWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.ProcessorWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.ProcessorWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
