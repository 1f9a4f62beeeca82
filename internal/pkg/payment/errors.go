package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrGatewayUnavailable means the processor is not configured or cannot be
	// reached. Callers fall back to the manual bank-transfer path.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrWebhookSignatureInvalid is returned before any webhook payload field
	// is trusted.
	ErrWebhookSignatureInvalid = errors.New("webhook signature invalid")

	// ErrPaymentNotFound is returned when the processor does not know the
	// identifier the client sent.
	ErrPaymentNotFound = errors.New("payment not found at processor")

	// ErrPaymentNotSucceeded is returned when the processor reports the payment
	// as anything other than succeeded/paid.
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")

	// ErrMetadataInvalid marks processor metadata that cannot be turned into a
	// donation row (missing or non-positive base amount, unknown sponsorship).
	ErrMetadataInvalid = errors.New("payment metadata invalid")

	// ErrRecorderPersistence means the claim was taken but no row landed.
	// The claim is kept and flagged for manual review.
	ErrRecorderPersistence = errors.New("payment claimed but not persisted")
)

// ValidationError describes a malformed or out-of-range request. It is
// surfaced as a 4xx and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
