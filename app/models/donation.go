package models

import "time"

// Donation categories accepted by the reconciliation core.
const (
	DonationCategoryGeneral    = "general"
	DonationCategoryEducation  = "education"
	DonationCategoryHealthcare = "healthcare"
	DonationCategoryFood       = "food"
	DonationCategoryShelter    = "shelter"
	DonationCategoryEmergency  = "emergency"
)

const (
	DonationTypeOneTime = "one_time"
	DonationTypeMonthly = "monthly"
)

const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
)

// DonationCategories lists every valid category in display order.
var DonationCategories = []string{
	DonationCategoryGeneral,
	DonationCategoryEducation,
	DonationCategoryHealthcare,
	DonationCategoryFood,
	DonationCategoryShelter,
	DonationCategoryEmergency,
}

// IsValidDonationCategory reports whether c is one of DonationCategories.
func IsValidDonationCategory(c string) bool {
	for _, v := range DonationCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Donation is a single one-time (or monthly-flagged) contribution. Amount is
// always expressed in whole units of the organization's base currency.
type Donation struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	DonorID           *uint     `gorm:"index" json:"donor_id,omitempty"`
	DonorName         string    `gorm:"type:varchar(150);not null;default:'Anonymous'" json:"donor_name"`
	DonorEmail        *string   `gorm:"type:varchar(200);default:null" json:"donor_email,omitempty"`
	Amount            int64     `gorm:"not null" json:"amount"`
	Category          string    `gorm:"type:varchar(32);not null;default:'general';index" json:"category"`
	IsAnonymous       bool      `gorm:"default:false" json:"is_anonymous"`
	PaymentMethod     string    `gorm:"type:varchar(32);not null;default:'card'" json:"payment_method"`
	IsRecurring       bool      `gorm:"default:false" json:"is_recurring"`
	RecurringInterval string    `gorm:"type:varchar(16);default:''" json:"recurring_interval,omitempty"`
	Message           string    `gorm:"type:text" json:"message,omitempty"`
	OriginalCurrency  string    `gorm:"type:varchar(8);default:''" json:"original_currency,omitempty"`
	OriginalAmount    int64     `gorm:"default:0" json:"original_amount,omitempty"`
	ExternalPaymentID *string   `gorm:"type:varchar(191);uniqueIndex" json:"external_payment_id,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
