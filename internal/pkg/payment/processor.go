package payment

import "context"

// PaymentIntent is the subset of a processor payment intent the core needs.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// CheckoutSession is the subset of a processor checkout session the core
// needs. PaymentIntentID is empty until the processor attached one.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
}

// IntentParams describes a payment intent to create. AmountMinor is in the
// processor's smallest currency unit.
type IntentParams struct {
	AmountMinor  int64
	Currency     string
	Description  string
	ReceiptEmail string
	Metadata     map[string]string
}

// CheckoutParams describes a single-line-item checkout session.
type CheckoutParams struct {
	AmountMinor   int64
	Currency      string
	ProductName   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Processor is the external payment processor. StripeProcessor is the
// production implementation; tests inject a stub.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, p IntentParams) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	// GetReceiptURL returns the receipt URL of the intent's latest charge, or
	// "" when the processor has not issued one yet.
	GetReceiptURL(ctx context.Context, paymentIntentID string) (string, error)
}

// WebhookEvent is a verified processor event normalized for the reconciler.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntent   *PaymentIntent
	CheckoutSession *CheckoutSession
}

// WebhookVerifier authenticates a raw webhook body before anything in it is
// trusted.
type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

// Webhook event types handled by the reconciler.
const (
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventCheckoutSessionCompleted = "checkout.session.completed"
)
