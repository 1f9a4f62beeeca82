package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	SponsorshipStatusActive = "active"
	SponsorshipStatusPaused = "paused"
	SponsorshipStatusEnded  = "ended"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Sponsorship is a recurring monthly commitment to one child.
type Sponsorship struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	ChildID               uint       `gorm:"not null;index" json:"child_id"`
	Child                 *Child     `gorm:"foreignKey:ChildID" json:"child,omitempty"`
	DonorID               *uint      `gorm:"index" json:"donor_id,omitempty"`
	SponsorName           string     `gorm:"type:varchar(150);not null" json:"sponsor_name" validate:"required,min=2,max=150"`
	SponsorEmail          string     `gorm:"type:varchar(200);not null" json:"sponsor_email" validate:"required,email,max=200"`
	SponsorPhone          string     `gorm:"type:varchar(40);default:''" json:"sponsor_phone,omitempty" validate:"max=40"`
	MonthlyAmount         int64      `gorm:"not null" json:"monthly_amount" validate:"gt=0"`
	StartDate             time.Time  `gorm:"type:date" json:"start_date"`
	EndDate               *time.Time `gorm:"type:date;default:null" json:"end_date,omitempty"`
	Status                string     `gorm:"type:varchar(16);not null;default:'active';index" json:"status" validate:"oneof=active paused ended"`
	PaymentMethod         string     `gorm:"type:varchar(32);not null;default:'card'" json:"payment_method" validate:"oneof=card bank_transfer"`
	PaymentStatus         string     `gorm:"type:varchar(16);not null;default:'pending';index:idx_sponsorships_receipt_backfill,priority:1" json:"payment_status"`
	StripePaymentIntentID *string    `gorm:"type:varchar(191);uniqueIndex" json:"stripe_payment_intent_id,omitempty"`
	StripeReceiptURL      *string    `gorm:"type:varchar(512);default:null;index:idx_sponsorships_receipt_backfill,priority:2" json:"stripe_receipt_url,omitempty"`
	ReceiptNumber         string     `gorm:"type:varchar(32);uniqueIndex" json:"receipt_number"`
	Notes                 string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Sponsorship) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// NeedsReceipt reports whether the processor receipt URL is still missing for
// a completed card payment.
func (s *Sponsorship) NeedsReceipt() bool {
	return s.PaymentStatus == PaymentStatusCompleted &&
		s.StripePaymentIntentID != nil && *s.StripePaymentIntentID != "" &&
		(s.StripeReceiptURL == nil || *s.StripeReceiptURL == "")
}

// NewReceiptNumber returns a fresh local receipt number, e.g. "SP-1A2B3C4D5E6F".
func NewReceiptNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SP-" + strings.ToUpper(id[:12])
}
