package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CareFund/app/models"
)

func TestDonorRegisterLoginAndHistory(t *testing.T) {
	env := newTestEnv(t, true)

	register := map[string]string{"name": "Ayesha Khan", "email": "ayesha@example.com", "password": "s3cret-pass"}
	resp, out := env.do(t, http.MethodPost, "/auth/donor/register", register)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotNil(t, out["donor"])
	assert.NotContains(t, out["donor"], "password")
	cookie := sessionCookie(t, resp)

	resp, _ = env.do(t, http.MethodPost, "/auth/donor/register", register)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// a donation made while logged in is linked to the donor
	_, created := env.do(t, http.MethodPost, "/donate/create-payment-intent", donationBody(), cookie)
	piID := created["paymentIntentId"].(string)
	env.processor.succeed(piID)
	resp, _ = env.do(t, http.MethodPost, "/donate/confirm-payment", map[string]string{"paymentIntentId": piID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out = env.do(t, http.MethodGet, "/donor/donations", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["donations"], 1)

	resp, out = env.do(t, http.MethodGet, "/donor/profile", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ayesha@example.com", out["donor"].(map[string]interface{})["email"])

	resp, _ = env.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/donor/donations", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/auth/donor/login", map[string]string{"email": "ayesha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/auth/donor/login", map[string]string{"email": "ayesha@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/donor/donations", nil, sessionCookie(t, resp))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDonorRegister_Validation(t *testing.T) {
	env := newTestEnv(t, true)

	resp, out := env.do(t, http.MethodPost, "/auth/donor/register", map[string]string{"name": "A", "email": "nope", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", out["error"])
}

func TestAdminRoutesRequireAdminSession(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedAdmin(t, "staff@example.org", "admin-pass-1")

	resp, out := env.do(t, http.MethodGet, "/admin/donations", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", out["error"])

	resp, _ = env.do(t, http.MethodPost, "/auth/donor/register", map[string]string{"name": "Donor One", "email": "d1@example.com", "password": "donor-pass-1"})
	donorCookie := sessionCookie(t, resp)
	resp, out = env.do(t, http.MethodGet, "/admin/donations", nil, donorCookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", out["error"])

	resp, _ = env.do(t, http.MethodPost, "/auth/admin/login", map[string]string{"email": "staff@example.org", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/auth/admin/login", map[string]string{"email": "staff@example.org", "password": "admin-pass-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminCookie := sessionCookie(t, resp)

	resp, out = env.do(t, http.MethodGet, "/admin/donations", nil, adminCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, out["total"])
	assert.Equal(t, "pkr", out["baseCurrency"])

	resp, out = env.do(t, http.MethodPost, "/admin/children", map[string]interface{}{"name": "Sara", "age": 9}, adminCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotNil(t, out["child"])

	resp, _ = env.do(t, http.MethodPost, "/admin/children", map[string]interface{}{"name": "", "age": 9}, adminCookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = env.do(t, http.MethodGet, "/admin/children", nil, adminCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["children"], 1)

	resp, out = env.do(t, http.MethodGet, "/admin/sponsorships?status=active", nil, adminCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out["sponsorships"])

	resp, _ = env.do(t, http.MethodGet, "/admin/sponsorships?status=bogus", nil, adminCookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/admin/sponsorships/99", nil, adminCookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out = env.do(t, http.MethodGet, "/admin/payments/unrecorded", nil, adminCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out["payments"])
}

func TestAdminReceiptBackfill(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedAdmin(t, "staff@example.org", "admin-pass-1")

	child := env.seedChild(t, "Sara")
	piID := "pi_paid_1"
	s := &models.Sponsorship{
		ChildID:               child.ID,
		SponsorName:           "Omar",
		SponsorEmail:          "omar@example.com",
		MonthlyAmount:         5000,
		Status:                models.SponsorshipStatusActive,
		PaymentMethod:         models.PaymentMethodCard,
		PaymentStatus:         models.PaymentStatusCompleted,
		StripePaymentIntentID: &piID,
		ReceiptNumber:         models.NewReceiptNumber(),
	}
	require.NoError(t, env.db.Create(s).Error)

	resp, _ := env.do(t, http.MethodPost, "/auth/admin/login", map[string]string{"email": "staff@example.org", "password": "admin-pass-1"})
	cookie := sessionCookie(t, resp)

	resp, out := env.do(t, http.MethodPost, "/admin/receipts/backfill", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["scanned"])
	assert.EqualValues(t, 1, out["filled"])

	resp, out = env.do(t, http.MethodGet, fmt.Sprintf("/admin/sponsorships/%d", s.ID), nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := out["sponsorship"].(map[string]interface{})
	assert.Equal(t, "https://pay.example.test/receipts/pi_paid_1", got["stripe_receipt_url"])
	assert.NotNil(t, got["child"])
}
