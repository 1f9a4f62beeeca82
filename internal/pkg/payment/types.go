package payment

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata keys written to processor objects. They are enough to rebuild a
// donation row without asking the client again.
const (
	MetaKind             = "kind"
	MetaCategory         = "category"
	MetaDonationType     = "donation_type"
	MetaDonorID          = "donor_id"
	MetaDonorName        = "donor_name"
	MetaDonorEmail       = "donor_email"
	MetaIsAnonymous      = "is_anonymous"
	MetaMessage          = "message"
	MetaOriginalCurrency = "original_currency"
	MetaOriginalAmount   = "original_amount"
	MetaBaseAmount       = "base_amount"
	MetaSponsorshipID    = "sponsorship_id"
)

const (
	KindDonation    = "donation"
	KindSponsorship = "sponsorship"
)

// Processor-side statuses the reconciler cares about.
const (
	IntentStatusSucceeded = "succeeded"
	SessionStatusPaid     = "paid"
)

// PaymentStatus is the processor-neutral status returned by RetrieveStatus.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusUnknown   PaymentStatus = "unknown"
)

// DonationRequest is the client's donation form. Amount is in whole units of
// Currency.
type DonationRequest struct {
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"required,min=3,max=3"`
	Category     string `json:"category" validate:"omitempty,oneof=general education healthcare food shelter emergency"`
	DonationType string `json:"donationType" validate:"omitempty,oneof=one_time monthly"`
	DonorName    string `json:"donorName" validate:"max=150"`
	DonorEmail   string `json:"donorEmail" validate:"omitempty,email,max=200"`
	IsAnonymous  bool   `json:"isAnonymous"`
	Message      string `json:"message" validate:"max=450"`

	// DonorID is taken from the session, never from the request body.
	DonorID *uint `json:"-"`
}

// PaymentMetadata is the typed view of the processor metadata map.
type PaymentMetadata struct {
	Kind             string
	Category         string
	DonationType     string
	DonorID          *uint
	DonorName        string
	DonorEmail       string
	IsAnonymous      bool
	Message          string
	OriginalCurrency string
	OriginalAmount   int64
	BaseAmount       int64
	SponsorshipID    uint
}

// ToMap converts the metadata to the processor's string map.
func (m PaymentMetadata) ToMap() map[string]string {
	out := map[string]string{
		MetaKind:             m.Kind,
		MetaCategory:         m.Category,
		MetaDonationType:     m.DonationType,
		MetaDonorName:        m.DonorName,
		MetaDonorEmail:       m.DonorEmail,
		MetaIsAnonymous:      strconv.FormatBool(m.IsAnonymous),
		MetaMessage:          m.Message,
		MetaOriginalCurrency: m.OriginalCurrency,
		MetaOriginalAmount:   strconv.FormatInt(m.OriginalAmount, 10),
		MetaBaseAmount:       strconv.FormatInt(m.BaseAmount, 10),
	}
	if m.DonorID != nil {
		out[MetaDonorID] = strconv.FormatUint(uint64(*m.DonorID), 10)
	}
	if m.SponsorshipID != 0 {
		out[MetaSponsorshipID] = strconv.FormatUint(uint64(m.SponsorshipID), 10)
	}
	for k, v := range out {
		if v == "" {
			delete(out, k)
		}
	}
	return out
}

// PaymentMetadataFromMap parses a processor metadata map. Unparseable numbers
// become zero; the recorder rejects a zero base amount.
func PaymentMetadataFromMap(in map[string]string) PaymentMetadata {
	get := func(k string) string { return strings.TrimSpace(in[k]) }

	m := PaymentMetadata{
		Kind:             get(MetaKind),
		Category:         get(MetaCategory),
		DonationType:     get(MetaDonationType),
		DonorName:        get(MetaDonorName),
		DonorEmail:       get(MetaDonorEmail),
		Message:          get(MetaMessage),
		OriginalCurrency: strings.ToLower(get(MetaOriginalCurrency)),
	}
	if m.Kind == "" {
		m.Kind = KindDonation
	}
	m.IsAnonymous, _ = strconv.ParseBool(get(MetaIsAnonymous))
	m.OriginalAmount, _ = strconv.ParseInt(get(MetaOriginalAmount), 10, 64)
	m.BaseAmount, _ = strconv.ParseInt(get(MetaBaseAmount), 10, 64)
	if v, err := strconv.ParseUint(get(MetaDonorID), 10, 64); err == nil && v > 0 {
		id := uint(v)
		m.DonorID = &id
	}
	if v, err := strconv.ParseUint(get(MetaSponsorshipID), 10, 64); err == nil {
		m.SponsorshipID = uint(v)
	}
	return m
}

// String renders the metadata for error logs so a failed payment can be
// re-entered by hand.
func (m PaymentMetadata) String() string {
	donor := "-"
	if m.DonorID != nil {
		donor = strconv.FormatUint(uint64(*m.DonorID), 10)
	}
	return fmt.Sprintf("kind=%s category=%s type=%s donor_id=%s name=%q email=%q anonymous=%t original=%d %s base=%d sponsorship=%d",
		m.Kind, m.Category, m.DonationType, donor, m.DonorName, m.DonorEmail, m.IsAnonymous,
		m.OriginalAmount, m.OriginalCurrency, m.BaseAmount, m.SponsorshipID)
}

// IntentResult is returned to the client after creating a payment intent.
type IntentResult struct {
	ClientSecret           string `json:"clientSecret"`
	PaymentIntentID        string `json:"paymentIntentId"`
	BaseCurrencyEquivalent int64  `json:"baseCurrencyEquivalent"`
}

// CheckoutResult is returned to the client after creating a checkout session.
type CheckoutResult struct {
	URL                    string `json:"url"`
	SessionID              string `json:"sessionId"`
	BaseCurrencyEquivalent int64  `json:"baseCurrencyEquivalent"`
}

// ReconcileResult is the success shape shared by the confirm and verify paths.
// It is identical whether this call or a concurrent one recorded the payment.
type ReconcileResult struct {
	Success                bool   `json:"success"`
	Kind                   string `json:"kind"`
	Amount                 int64  `json:"amount"`
	Currency               string `json:"currency"`
	BaseCurrencyEquivalent int64  `json:"baseCurrencyEquivalent"`
	Category               string `json:"category"`
	DonorName              string `json:"donorName"`
	DonationType           string `json:"donationType"`

	// Recorded is true only for the call that won the claim.
	Recorded bool `json:"-"`
}

func newReconcileResult(m PaymentMetadata, recorded bool) *ReconcileResult {
	return &ReconcileResult{
		Success:                true,
		Kind:                   m.Kind,
		Amount:                 m.OriginalAmount,
		Currency:               m.OriginalCurrency,
		BaseCurrencyEquivalent: m.BaseAmount,
		Category:               m.Category,
		DonorName:              displayDonorName(m.DonorName, m.IsAnonymous),
		DonationType:           m.DonationType,
		Recorded:               recorded,
	}
}

// ClaimKey returns the identifier every reconciliation path claims for one
// payment: the payment intent when known, the checkout session otherwise.
func ClaimKey(paymentIntentID, sessionID string) string {
	if pi := strings.TrimSpace(paymentIntentID); pi != "" {
		return pi
	}
	return strings.TrimSpace(sessionID)
}
