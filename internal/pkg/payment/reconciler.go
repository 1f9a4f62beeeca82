package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/app/models"
)

var checkoutSessionIDPattern = regexp.MustCompile(`^cs_(test|live)_[A-Za-z0-9]+$`)

// Reconciler converts succeeded processor payments into local records. The
// confirm, verify and webhook paths can all report the same payment, in any
// order and concurrently; the ledger claim decides which one records it.
type Reconciler struct {
	processor Processor
	verifier  WebhookVerifier
	ledger    Ledger
	recorder  *Recorder
	repo      Repository
}

func NewReconciler(processor Processor, verifier WebhookVerifier, ledger Ledger, repo Repository) *Reconciler {
	return &Reconciler{
		processor: processor,
		verifier:  verifier,
		ledger:    ledger,
		recorder:  NewRecorder(repo),
		repo:      repo,
	}
}

// WebhookOutcome describes what a webhook delivery caused.
type WebhookOutcome struct {
	EventID   string
	EventType string
	Handled   bool
	Duplicate bool
	Recorded  bool
}

// ConfirmPayment is called by the client after an embedded payment. The
// intent is re-fetched; nothing the client sends besides the id is trusted.
func (r *Reconciler) ConfirmPayment(ctx context.Context, paymentIntentID string) (*ReconcileResult, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if !strings.HasPrefix(paymentIntentID, "pi_") {
		return nil, newValidationError("paymentIntentId", "invalid payment intent id")
	}
	if r.processor == nil {
		return nil, ErrGatewayUnavailable
	}

	fetchCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	pi, err := r.processor.GetPaymentIntent(fetchCtx, paymentIntentID)
	cancel()
	if err != nil {
		return nil, err
	}
	if pi.Status != IntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment intent %s is %s", ErrPaymentNotSucceeded, pi.ID, pi.Status)
	}

	m := PaymentMetadataFromMap(pi.Metadata)
	recorded, err := r.settle(ctx, ClaimKey(pi.ID, ""), models.ClaimSourceConfirm, pi.ID, m)
	if err != nil {
		log.Errorf("[Reconcile] confirm %s: %v", pi.ID, err)
	}
	return newReconcileResult(m, recorded), nil
}

// VerifySession is called when the donor returns from hosted checkout.
func (r *Reconciler) VerifySession(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if !checkoutSessionIDPattern.MatchString(sessionID) {
		return nil, newValidationError("sessionId", "invalid checkout session id")
	}
	if r.processor == nil {
		return nil, ErrGatewayUnavailable
	}

	fetchCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	sess, err := r.processor.GetCheckoutSession(fetchCtx, sessionID)
	cancel()
	if err != nil {
		return nil, err
	}
	if sess.PaymentStatus != SessionStatusPaid {
		return nil, fmt.Errorf("%w: checkout session %s is %s", ErrPaymentNotSucceeded, sess.ID, sess.PaymentStatus)
	}

	m := PaymentMetadataFromMap(sess.Metadata)
	key := ClaimKey(sess.PaymentIntentID, sess.ID)
	recorded, err := r.settle(ctx, key, models.ClaimSourceVerify, sess.PaymentIntentID, m)
	if err != nil {
		log.Errorf("[Reconcile] verify %s: %v", sess.ID, err)
	}
	return newReconcileResult(m, recorded), nil
}

// HandleWebhook authenticates and processes one processor event. payload
// must be the unparsed request body. A returned error other than a
// signature failure asks the processor to redeliver.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookOutcome, error) {
	if r.verifier == nil {
		return nil, fmt.Errorf("%w: no verifier configured", ErrWebhookSignatureInvalid)
	}
	ev, err := r.verifier.Verify(payload, signatureHeader)
	if err != nil {
		log.Errorf("[StripeWebhook] Signature verification failed; check that nothing parses the body before the webhook route: %v", err)
		return nil, err
	}
	out := &WebhookOutcome{EventID: ev.ID, EventType: ev.Type}

	event := &models.ProcessorWebhookEvent{
		Provider:        models.ProcessorStripe,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(payload),
	}
	created, stored, err := r.repo.CreateWebhookEventIfNotExists(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("persist webhook event: %w", err)
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		log.Infof("[StripeWebhook] Duplicate event %s ignored", ev.ID)
		out.Duplicate = true
		return out, nil
	}

	key, piID, meta, ok := webhookPayment(ev)
	if !ok {
		if err := r.repo.MarkWebhookProcessed(ctx, stored.ID, ""); err != nil {
			log.Warnf("[StripeWebhook] Failed to mark event %s processed: %v", ev.ID, err)
		}
		return out, nil
	}
	out.Handled = true

	recorded, err := r.settle(ctx, key, models.ClaimSourceWebhook, piID, meta)
	out.Recorded = recorded
	if err != nil {
		if markErr := r.repo.MarkWebhookProcessed(ctx, stored.ID, err.Error()); markErr != nil {
			log.Warnf("[StripeWebhook] Failed to mark event %s processed: %v", ev.ID, markErr)
		}
		if errors.Is(err, ErrRecorderPersistence) {
			// Retrying cannot help; the claim is flagged for manual review.
			return out, nil
		}
		return nil, err
	}

	if err := r.repo.MarkWebhookProcessed(ctx, stored.ID, ""); err != nil {
		log.Warnf("[StripeWebhook] Failed to mark event %s processed: %v", ev.ID, err)
	}
	return out, nil
}

// webhookPayment extracts the claim key and metadata from events that report
// a completed payment.
func webhookPayment(ev *WebhookEvent) (key, paymentIntentID string, m PaymentMetadata, ok bool) {
	switch ev.Type {
	case EventPaymentIntentSucceeded:
		pi := ev.PaymentIntent
		if pi == nil || pi.ID == "" || pi.Status != IntentStatusSucceeded {
			return "", "", PaymentMetadata{}, false
		}
		return ClaimKey(pi.ID, ""), pi.ID, PaymentMetadataFromMap(pi.Metadata), true
	case EventCheckoutSessionCompleted:
		sess := ev.CheckoutSession
		if sess == nil || sess.ID == "" || sess.PaymentStatus != SessionStatusPaid {
			return "", "", PaymentMetadata{}, false
		}
		return ClaimKey(sess.PaymentIntentID, sess.ID), sess.PaymentIntentID, PaymentMetadataFromMap(sess.Metadata), true
	}
	return "", "", PaymentMetadata{}, false
}

// settle claims key and, when the claim is won, records the payment. Losing
// the claim is not an error. Record failures keep the claim and flag it.
func (r *Reconciler) settle(ctx context.Context, key, source, paymentIntentID string, m PaymentMetadata) (bool, error) {
	claimed, err := r.ledger.TryClaim(ctx, key, source)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !claimed {
		log.Infof("[Reconcile] %s already claimed, %s is a no-op", key, source)
		return false, nil
	}

	if m.Kind == KindSponsorship {
		if paymentIntentID == "" {
			paymentIntentID = key
		}
		err = r.recorder.RecordSponsorshipPayment(ctx, m.SponsorshipID, paymentIntentID)
	} else {
		_, err = r.recorder.RecordDonationFromPayment(ctx, key, m)
	}
	if err != nil {
		log.Errorf("[Reconcile] Payment %s claimed via %s but NOT recorded, manual entry required: %v; metadata: %s", key, source, err, m)
		if markErr := r.ledger.MarkUnrecorded(ctx, key, err.Error(), metadataJSON(m)); markErr != nil {
			log.Errorf("[Reconcile] Failed to flag unrecorded claim %s: %v", key, markErr)
		}
		if !errors.Is(err, ErrRecorderPersistence) {
			err = fmt.Errorf("%w: %w", ErrRecorderPersistence, err)
		}
		return false, err
	}

	if err := r.ledger.MarkRecorded(ctx, key); err != nil {
		log.Warnf("[Reconcile] Failed to mark claim %s recorded: %v", key, err)
	}
	log.Infof("[Reconcile] Recorded %s payment %s via %s", m.Kind, key, source)
	return true, nil
}

func metadataJSON(m PaymentMetadata) string {
	b, err := json.Marshal(m.ToMap())
	if err != nil {
		return m.String()
	}
	return string(b)
}
