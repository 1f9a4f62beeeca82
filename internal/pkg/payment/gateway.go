package payment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/go-playground/validator/v10"
)

// processorTimeout bounds every processor round-trip.
const processorTimeout = 15 * time.Second

// Gateway creates payments at the processor. Every request is validated
// before the processor is contacted.
type Gateway struct {
	cfg       Config
	processor Processor
	validate  *validator.Validate
}

// NewGateway creates a gateway. A nil processor means card payments are not
// available and every create call fails with ErrGatewayUnavailable.
func NewGateway(cfg Config, processor Processor) *Gateway {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Gateway{cfg: cfg, processor: processor, validate: v}
}

// Configured reports whether a processor is wired.
func (g *Gateway) Configured() bool {
	return g.processor != nil
}

func (g *Gateway) Config() Config {
	return g.cfg
}

// CreatePaymentIntent validates req and opens a payment intent carrying the
// donation metadata.
func (g *Gateway) CreatePaymentIntent(ctx context.Context, req DonationRequest) (*IntentResult, error) {
	meta, err := g.prepare(req)
	if err != nil {
		return nil, err
	}
	if !g.Configured() {
		return nil, ErrGatewayUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	pi, err := g.processor.CreatePaymentIntent(ctx, IntentParams{
		AmountMinor:  ToMinorUnits(meta.OriginalAmount),
		Currency:     meta.OriginalCurrency,
		Description:  donationDescription(meta),
		ReceiptEmail: meta.DonorEmail,
		Metadata:     meta.ToMap(),
	})
	if err != nil {
		return nil, err
	}
	return &IntentResult{
		ClientSecret:           pi.ClientSecret,
		PaymentIntentID:        pi.ID,
		BaseCurrencyEquivalent: meta.BaseAmount,
	}, nil
}

// CreateCheckoutSession validates req and opens a hosted checkout session
// with one line item.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req DonationRequest) (*CheckoutResult, error) {
	meta, err := g.prepare(req)
	if err != nil {
		return nil, err
	}
	if !g.Configured() {
		return nil, ErrGatewayUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	sess, err := g.processor.CreateCheckoutSession(ctx, CheckoutParams{
		AmountMinor:   ToMinorUnits(meta.OriginalAmount),
		Currency:      meta.OriginalCurrency,
		ProductName:   donationDescription(meta),
		CustomerEmail: meta.DonorEmail,
		SuccessURL:    g.cfg.SuccessURL,
		CancelURL:     g.cfg.CancelURL,
		Metadata:      meta.ToMap(),
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		URL:                    sess.URL,
		SessionID:              sess.ID,
		BaseCurrencyEquivalent: meta.BaseAmount,
	}, nil
}

// CreateSponsorshipIntent opens a payment intent for the first monthly
// payment of a sponsorship. The amount is already in the base currency.
func (g *Gateway) CreateSponsorshipIntent(ctx context.Context, s *models.Sponsorship) (*IntentResult, error) {
	if s == nil || s.ID == 0 {
		return nil, newValidationError("sponsorship", "sponsorship must be saved first")
	}
	if s.MonthlyAmount <= 0 {
		return nil, newValidationError("monthly_amount", "amount must be positive")
	}
	if !g.Configured() {
		return nil, ErrGatewayUnavailable
	}

	meta := PaymentMetadata{
		Kind:             KindSponsorship,
		DonationType:     models.DonationTypeMonthly,
		DonorID:          s.DonorID,
		DonorName:        s.SponsorName,
		DonorEmail:       s.SponsorEmail,
		OriginalCurrency: g.cfg.BaseCurrency,
		OriginalAmount:   s.MonthlyAmount,
		BaseAmount:       s.MonthlyAmount,
		SponsorshipID:    s.ID,
	}

	ctx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	pi, err := g.processor.CreatePaymentIntent(ctx, IntentParams{
		AmountMinor:  ToMinorUnits(s.MonthlyAmount),
		Currency:     g.cfg.BaseCurrency,
		Description:  fmt.Sprintf("Child sponsorship %s", s.ReceiptNumber),
		ReceiptEmail: s.SponsorEmail,
		Metadata:     meta.ToMap(),
	})
	if err != nil {
		return nil, err
	}
	return &IntentResult{
		ClientSecret:           pi.ClientSecret,
		PaymentIntentID:        pi.ID,
		BaseCurrencyEquivalent: s.MonthlyAmount,
	}, nil
}

// RetrieveStatus looks up a payment intent (pi_) or checkout session (cs_)
// and maps its state to a PaymentStatus.
func (g *Gateway) RetrieveStatus(ctx context.Context, externalID string) (PaymentStatus, error) {
	externalID = strings.TrimSpace(externalID)
	if !g.Configured() {
		return PaymentStatusUnknown, ErrGatewayUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	switch {
	case strings.HasPrefix(externalID, "pi_"):
		pi, err := g.processor.GetPaymentIntent(ctx, externalID)
		if err != nil {
			return PaymentStatusUnknown, err
		}
		return intentStatus(pi.Status), nil
	case strings.HasPrefix(externalID, "cs_"):
		sess, err := g.processor.GetCheckoutSession(ctx, externalID)
		if err != nil {
			return PaymentStatusUnknown, err
		}
		if sess.PaymentStatus == SessionStatusPaid {
			return PaymentStatusSucceeded, nil
		}
		return PaymentStatusPending, nil
	default:
		return PaymentStatusUnknown, newValidationError("externalId", "unrecognized payment identifier")
	}
}

func intentStatus(s string) PaymentStatus {
	switch s {
	case IntentStatusSucceeded:
		return PaymentStatusSucceeded
	case "canceled":
		return PaymentStatusFailed
	case "processing", "requires_payment_method", "requires_confirmation", "requires_action", "requires_capture":
		return PaymentStatusPending
	}
	return PaymentStatusUnknown
}

// prepare validates req and builds the metadata the processor will carry.
func (g *Gateway) prepare(req DonationRequest) (PaymentMetadata, error) {
	req.Currency = strings.ToLower(strings.TrimSpace(req.Currency))
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.DonorName = strings.TrimSpace(req.DonorName)
	req.DonorEmail = strings.TrimSpace(req.DonorEmail)

	if err := g.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return PaymentMetadata{}, newValidationError(fe.Field(), "failed %q validation", fe.Tag())
		}
		return PaymentMetadata{}, newValidationError("", "%v", err)
	}
	if err := g.cfg.ValidateAmount(req.Amount, req.Currency); err != nil {
		return PaymentMetadata{}, err
	}
	base, err := g.cfg.ToBaseCurrency(req.Amount, req.Currency)
	if err != nil {
		return PaymentMetadata{}, err
	}

	if req.Category == "" {
		req.Category = models.DonationCategoryGeneral
	}
	if req.DonationType == "" {
		req.DonationType = models.DonationTypeOneTime
	}

	return PaymentMetadata{
		Kind:             KindDonation,
		Category:         req.Category,
		DonationType:     req.DonationType,
		DonorID:          req.DonorID,
		DonorName:        req.DonorName,
		DonorEmail:       req.DonorEmail,
		IsAnonymous:      req.IsAnonymous,
		Message:          req.Message,
		OriginalCurrency: req.Currency,
		OriginalAmount:   req.Amount,
		BaseAmount:       base,
	}, nil
}

func donationDescription(m PaymentMetadata) string {
	category := m.Category
	if category == "" {
		category = models.DonationCategoryGeneral
	}
	if m.DonationType == models.DonationTypeMonthly {
		return fmt.Sprintf("Monthly donation (%s)", category)
	}
	return fmt.Sprintf("Donation (%s)", category)
}
