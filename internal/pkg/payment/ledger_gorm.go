package payment

import (
	"context"
	"strings"
	"time"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger stores claims in payment_claims. The unique index on
// external_id makes the insert the atomic check-and-set, across restarts and
// instances.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) TryClaim(ctx context.Context, externalID, source string) (bool, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return false, newValidationError("externalId", "claim key is empty")
	}

	claim := models.PaymentClaim{ExternalID: externalID, Source: source}
	tx := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(&claim)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (l *GormLedger) MarkRecorded(ctx context.Context, externalID string) error {
	now := time.Now()
	return l.db.WithContext(ctx).Model(&models.PaymentClaim{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"recorded_at":    &now,
			"failure_reason": "",
		}).Error
}

func (l *GormLedger) MarkUnrecorded(ctx context.Context, externalID, reason, metadata string) error {
	return l.db.WithContext(ctx).Model(&models.PaymentClaim{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"recorded_at":    nil,
			"failure_reason": reason,
			"metadata_json":  metadata,
		}).Error
}

// ListUnrecorded returns claims that were taken but never produced a row,
// newest first.
func (l *GormLedger) ListUnrecorded(ctx context.Context, limit int) ([]models.PaymentClaim, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var claims []models.PaymentClaim
	err := l.db.WithContext(ctx).
		Where("recorded_at IS NULL AND failure_reason <> ''").
		Order("created_at DESC").
		Limit(limit).
		Find(&claims).Error
	return claims, err
}
