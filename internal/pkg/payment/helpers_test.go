package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/CareFund/app/models"
)

const testWebhookSecret = "whsec_test_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "payment.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Child{},
		&models.Donation{},
		&models.Sponsorship{},
		&models.PaymentClaim{},
		&models.ProcessorWebhookEvent{},
	))
	return db
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SecretKey = "sk_test_123"
	cfg.WebhookSecret = testWebhookSecret
	return cfg
}

// stubProcessor is an in-memory Processor.
type stubProcessor struct {
	mu        sync.Mutex
	seq       int
	intents   map[string]*PaymentIntent
	sessions  map[string]*CheckoutSession
	receipts  map[string]string
	failures  map[string]error
	intentIn  []IntentParams
	sessionIn []CheckoutParams
	calls     atomic.Int32
	createErr error
}

func newStubProcessor() *stubProcessor {
	return &stubProcessor{
		intents:  map[string]*PaymentIntent{},
		sessions: map[string]*CheckoutSession{},
		receipts: map[string]string{},
		failures: map[string]error{},
	}
}

func (p *stubProcessor) CreatePaymentIntent(_ context.Context, in IntentParams) (*PaymentIntent, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	pi := &PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", p.seq),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret_abc", p.seq),
		Status:       "requires_payment_method",
		Amount:       in.AmountMinor,
		Currency:     in.Currency,
		Metadata:     in.Metadata,
	}
	p.intents[pi.ID] = pi
	p.intentIn = append(p.intentIn, in)
	return pi, nil
}

func (p *stubProcessor) GetPaymentIntent(_ context.Context, id string) (*PaymentIntent, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	pi, ok := p.intents[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *pi
	return &cp, nil
}

func (p *stubProcessor) CreateCheckoutSession(_ context.Context, in CheckoutParams) (*CheckoutSession, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	sess := &CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", p.seq),
		URL:           fmt.Sprintf("https://checkout.example.test/cs_test_%d", p.seq),
		PaymentStatus: "unpaid",
		Metadata:      in.Metadata,
	}
	p.sessions[sess.ID] = sess
	p.sessionIn = append(p.sessionIn, in)
	return sess, nil
}

func (p *stubProcessor) GetCheckoutSession(_ context.Context, id string) (*CheckoutSession, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *sess
	return &cp, nil
}

func (p *stubProcessor) GetReceiptURL(_ context.Context, id string) (string, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failures[id]; ok {
		return "", err
	}
	return p.receipts[id], nil
}

// succeedIntent adds a succeeded intent with the given metadata.
func (p *stubProcessor) succeedIntent(id string, meta PaymentMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[id] = &PaymentIntent{ID: id, Status: IntentStatusSucceeded, Metadata: meta.ToMap()}
}

// paySession adds a paid checkout session linked to paymentIntentID.
func (p *stubProcessor) paySession(id, paymentIntentID string, meta PaymentMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id] = &CheckoutSession{
		ID:              id,
		PaymentStatus:   SessionStatusPaid,
		PaymentIntentID: paymentIntentID,
		Metadata:        meta.ToMap(),
	}
}

func sampleMetadata() PaymentMetadata {
	return PaymentMetadata{
		Kind:             KindDonation,
		Category:         "education",
		DonationType:     "one_time",
		DonorName:        "Ayesha Khan",
		DonorEmail:       "ayesha@example.com",
		OriginalCurrency: "usd",
		OriginalAmount:   10,
		BaseAmount:       2785,
	}
}

// signPayload builds a Stripe-Signature header for payload.
func signPayload(payload []byte, secret string, ts time.Time) string {
	unix := ts.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", unix, payload)))
	return fmt.Sprintf("t=%d,v1=%s", unix, hex.EncodeToString(mac.Sum(nil)))
}

func intentEventPayload(eventID, intentID string, meta PaymentMetadata) []byte {
	return eventPayload(eventID, EventPaymentIntentSucceeded, map[string]interface{}{
		"id":       intentID,
		"object":   "payment_intent",
		"status":   "succeeded",
		"amount":   meta.OriginalAmount * 100,
		"currency": meta.OriginalCurrency,
		"metadata": meta.ToMap(),
	})
}

func sessionEventPayload(eventID, sessionID, intentID, paymentStatus string, meta PaymentMetadata) []byte {
	obj := map[string]interface{}{
		"id":             sessionID,
		"object":         "checkout.session",
		"payment_status": paymentStatus,
		"metadata":       meta.ToMap(),
	}
	if intentID != "" {
		obj["payment_intent"] = intentID
	}
	return eventPayload(eventID, EventCheckoutSessionCompleted, obj)
}

func eventPayload(eventID, eventType string, object map[string]interface{}) []byte {
	b, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2024-06-20",
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": object},
	})
	if err != nil {
		panic(err)
	}
	return b
}

// seedSponsorship inserts a child and a card sponsorship for it.
func seedSponsorship(t *testing.T, db *gorm.DB, receipt, paymentIntentID, paymentStatus string) *models.Sponsorship {
	t.Helper()

	child := &models.Child{Name: "Child " + receipt, Age: 8}
	require.NoError(t, db.Create(child).Error)

	s := &models.Sponsorship{
		ChildID:       child.ID,
		SponsorName:   "Omar",
		SponsorEmail:  "omar@example.com",
		MonthlyAmount: 5000,
		StartDate:     time.Now(),
		Status:        models.SponsorshipStatusActive,
		PaymentMethod: models.PaymentMethodCard,
		PaymentStatus: paymentStatus,
		ReceiptNumber: receipt,
	}
	if paymentIntentID != "" {
		s.StripePaymentIntentID = &paymentIntentID
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func countDonations(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Donation{}).Count(&n).Error)
	return n
}

// newTestRedisClient returns a client on an isolated DB or skips the test.
func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("CACHE_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("CACHE_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: os.Getenv("CACHE_PASSWORD"),
		DB:       13,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	err := client.Ping(ctx).Err()
	cancel()
	if err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
