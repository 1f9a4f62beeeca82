package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/app/repository"
	"github.com/ManuelReschke/CareFund/internal/pkg/database"
	"github.com/ManuelReschke/CareFund/internal/pkg/middleware"
	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
	"github.com/ManuelReschke/CareFund/internal/pkg/session"
)

const testWebhookSecret = "whsec_controller_test"

// fakeProcessor keeps intents and sessions in memory.
type fakeProcessor struct {
	mu       sync.Mutex
	seq      int
	intents  map[string]*payment.PaymentIntent
	sessions map[string]*payment.CheckoutSession
	// createErr, when set, fails every CreatePaymentIntent call.
	createErr error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		intents:  map[string]*payment.PaymentIntent{},
		sessions: map[string]*payment.CheckoutSession{},
	}
}

func (p *fakeProcessor) CreatePaymentIntent(_ context.Context, in payment.IntentParams) (*payment.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	pi := &payment.PaymentIntent{
		ID:           fmt.Sprintf("pi_ctrl_%d", p.seq),
		ClientSecret: fmt.Sprintf("pi_ctrl_%d_secret", p.seq),
		Status:       "requires_payment_method",
		Amount:       in.AmountMinor,
		Currency:     in.Currency,
		Metadata:     in.Metadata,
	}
	p.intents[pi.ID] = pi
	return pi, nil
}

func (p *fakeProcessor) GetPaymentIntent(_ context.Context, id string) (*payment.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pi, ok := p.intents[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	cp := *pi
	return &cp, nil
}

func (p *fakeProcessor) CreateCheckoutSession(_ context.Context, in payment.CheckoutParams) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	sess := &payment.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_ctrl%d", p.seq),
		URL:           fmt.Sprintf("https://checkout.example.test/%d", p.seq),
		PaymentStatus: "unpaid",
		Metadata:      in.Metadata,
	}
	p.sessions[sess.ID] = sess
	return sess, nil
}

func (p *fakeProcessor) GetCheckoutSession(_ context.Context, id string) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	cp := *sess
	return &cp, nil
}

func (p *fakeProcessor) GetReceiptURL(_ context.Context, id string) (string, error) {
	return "https://pay.example.test/receipts/" + id, nil
}

func (p *fakeProcessor) failCreates(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createErr = err
}

func (p *fakeProcessor) succeed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[id].Status = payment.IntentStatusSucceeded
}

func (p *fakeProcessor) paySession(id, paymentIntentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].PaymentStatus = payment.SessionStatusPaid
	p.sessions[id].PaymentIntentID = paymentIntentID
}

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	processor *fakeProcessor
	module    *payment.Module
}

// newTestEnv wires the controllers against SQLite and an in-memory session
// store. A nil processor leaves card payments unconfigured.
func newTestEnv(t *testing.T, withProcessor bool) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "controllers.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cfg := payment.DefaultConfig()
	cfg.WebhookSecret = testWebhookSecret
	cfg.BankTransfer = payment.BankTransferDetails{AccountTitle: "CareFund Trust", BankName: "Test Bank", IBAN: "PK00TEST0000000000000000"}

	env := &testEnv{db: db}
	var proc payment.Processor
	if withProcessor {
		cfg.SecretKey = "sk_test_ctrl"
		env.processor = newFakeProcessor()
		proc = env.processor
	}
	module, err := payment.NewModule(cfg, proc, db, nil)
	require.NoError(t, err)
	env.module = module

	prevModule := payment.GetModule()
	prevStore := session.GetSessionStore()
	payment.SetModule(module)
	repository.InitializeFactory(db)
	session.SetSessionStore(fibersession.New())
	InitializeControllers()
	t.Cleanup(func() {
		payment.SetModule(prevModule)
		session.SetSessionStore(prevStore)
	})

	app := fiber.New()
	app.Post("/stripe/webhook", HandleStripeWebhook)
	app.Use(middleware.UserContextMiddleware)

	donate := app.Group("/donate")
	donate.Get("/config", HandleDonateConfig)
	donate.Post("/create-payment-intent", HandleCreatePaymentIntent)
	donate.Post("/create-checkout-session", HandleCreateCheckoutSession)
	donate.Post("/confirm-payment", HandleConfirmPayment)
	donate.Get("/verify/:sessionId", HandleVerifySession)

	app.Get("/children", HandleListChildren)
	app.Get("/children/:id", HandleGetChild)
	app.Post("/sponsorships", HandleCreateSponsorship)

	auth := app.Group("/auth")
	auth.Post("/donor/register", HandleDonorRegister)
	auth.Post("/donor/login", HandleDonorLogin)
	auth.Post("/admin/login", HandleAdminLogin)
	auth.Post("/logout", HandleLogout)
	app.Get("/donor/profile", middleware.RequireDonor, HandleDonorProfile)
	app.Get("/donor/donations", middleware.RequireDonor, HandleDonorDonations)

	admin := app.Group("/admin", middleware.RequireAdmin)
	admin.Get("/donations", HandleAdminDonations)
	admin.Get("/sponsorships", HandleAdminSponsorships)
	admin.Get("/sponsorships/:id", HandleAdminSponsorship)
	admin.Get("/children", HandleAdminChildren)
	admin.Get("/payments/unrecorded", HandleAdminUnrecordedPayments)
	admin.Post("/receipts/backfill", HandleAdminReceiptBackfill)
	admin.Post("/children", HandleAdminCreateChild)

	env.app = app
	return env
}

// do sends a JSON request and decodes the JSON answer.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func (e *testEnv) seedAdmin(t *testing.T, email, password string) *models.Admin {
	t.Helper()
	hash, err := models.HashPassword(password)
	require.NoError(t, err)
	admin := &models.Admin{Name: "Staff", Email: email, Password: hash, Status: models.STATUS_ACTIVE}
	require.NoError(t, e.db.Create(admin).Error)
	return admin
}

func (e *testEnv) seedChild(t *testing.T, name string) *models.Child {
	t.Helper()
	child := &models.Child{Name: name, Age: 8}
	require.NoError(t, e.db.Create(child).Error)
	return child
}

func (e *testEnv) countDonations(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Donation{}).Count(&n).Error)
	return n
}

func signedWebhookRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))

	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func intentSucceededEvent(t *testing.T, eventID string, pi *payment.PaymentIntent) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        payment.EventPaymentIntentSucceeded,
		"api_version": "2024-06-20",
		"created":     time.Now().Unix(),
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       pi.ID,
				"object":   "payment_intent",
				"status":   "succeeded",
				"amount":   pi.Amount,
				"currency": pi.Currency,
				"metadata": pi.Metadata,
			},
		},
	})
	require.NoError(t, err)
	return b
}
