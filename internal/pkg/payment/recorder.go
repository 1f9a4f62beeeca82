package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

const anonymousDonorName = "Anonymous"

// Recorder turns processor metadata into local rows. It performs no duplicate
// check of its own; callers hold a ledger claim before calling it.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordDonationFromPayment inserts one donation for a succeeded payment.
// A missing or non-positive base amount is rejected with ErrMetadataInvalid
// instead of being stored as a zero donation.
func (r *Recorder) RecordDonationFromPayment(ctx context.Context, externalID string, m PaymentMetadata) (*models.Donation, error) {
	if m.BaseAmount <= 0 {
		return nil, fmt.Errorf("%w: base amount %d", ErrMetadataInvalid, m.BaseAmount)
	}

	category := strings.ToLower(m.Category)
	if !models.IsValidDonationCategory(category) {
		category = models.DonationCategoryGeneral
	}

	d := &models.Donation{
		DonorID:          m.DonorID,
		DonorName:        displayDonorName(m.DonorName, m.IsAnonymous),
		Amount:           m.BaseAmount,
		Category:         category,
		IsAnonymous:      m.IsAnonymous,
		PaymentMethod:    models.PaymentMethodCard,
		Message:          m.Message,
		OriginalCurrency: m.OriginalCurrency,
		OriginalAmount:   m.OriginalAmount,
	}
	if m.DonationType == models.DonationTypeMonthly {
		d.IsRecurring = true
		d.RecurringInterval = "month"
	}
	if email := strings.TrimSpace(m.DonorEmail); email != "" {
		d.DonorEmail = &email
	}
	if externalID != "" {
		d.ExternalPaymentID = &externalID
	}

	if err := r.repo.CreateDonation(ctx, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecorderPersistence, err)
	}
	return d, nil
}

// RecordSponsorshipPayment marks the sponsorship's payment as completed. A
// sponsorship already bound to a different payment intent is left untouched.
func (r *Recorder) RecordSponsorshipPayment(ctx context.Context, sponsorshipID uint, paymentIntentID string) error {
	if sponsorshipID == 0 {
		return fmt.Errorf("%w: sponsorship id missing", ErrMetadataInvalid)
	}

	s, err := r.repo.GetSponsorship(ctx, sponsorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: sponsorship %d not found", ErrMetadataInvalid, sponsorshipID)
		}
		return fmt.Errorf("%w: %v", ErrRecorderPersistence, err)
	}
	if s.StripePaymentIntentID != nil && *s.StripePaymentIntentID != "" && *s.StripePaymentIntentID != paymentIntentID {
		return fmt.Errorf("%w: sponsorship %d belongs to payment %s", ErrMetadataInvalid, sponsorshipID, *s.StripePaymentIntentID)
	}

	if err := r.repo.MarkSponsorshipPaid(ctx, sponsorshipID, paymentIntentID); err != nil {
		return fmt.Errorf("%w: %v", ErrRecorderPersistence, err)
	}
	return nil
}

func displayDonorName(name string, anonymous bool) string {
	name = strings.TrimSpace(name)
	if anonymous || name == "" {
		return anonymousDonorName
	}
	return name
}
