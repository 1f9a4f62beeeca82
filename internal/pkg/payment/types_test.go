package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentMetadataMapDropsEmptyValues(t *testing.T) {
	donor := uint(7)
	m := sampleMetadata()
	m.DonorID = &donor
	m.Message = ""

	out := m.ToMap()
	assert.Equal(t, "7", out[MetaDonorID])
	assert.Equal(t, "2785", out[MetaBaseAmount])
	assert.Equal(t, "false", out[MetaIsAnonymous])
	assert.NotContains(t, out, MetaMessage)
	assert.NotContains(t, out, MetaSponsorshipID)

	back := PaymentMetadataFromMap(out)
	assert.Equal(t, m, back)
}

func TestPaymentMetadataFromMapIsLenient(t *testing.T) {
	m := PaymentMetadataFromMap(map[string]string{
		MetaBaseAmount:       "12abc",
		MetaDonorID:          "-1",
		MetaIsAnonymous:      "yes",
		MetaOriginalCurrency: "USD",
	})
	assert.Equal(t, KindDonation, m.Kind)
	assert.Zero(t, m.BaseAmount)
	assert.Nil(t, m.DonorID)
	assert.False(t, m.IsAnonymous)
	assert.Equal(t, "usd", m.OriginalCurrency)

	assert.Equal(t, KindDonation, PaymentMetadataFromMap(nil).Kind)
}

func TestClaimKey(t *testing.T) {
	assert.Equal(t, "pi_1", ClaimKey("pi_1", "cs_test_1"))
	assert.Equal(t, "cs_test_1", ClaimKey(" ", "cs_test_1"))
	assert.Equal(t, "", ClaimKey("", ""))
}

func TestReconcileResultNamesAnonymousDonors(t *testing.T) {
	m := sampleMetadata()
	assert.Equal(t, "Ayesha Khan", newReconcileResult(m, true).DonorName)

	m.IsAnonymous = true
	r := newReconcileResult(m, false)
	assert.Equal(t, "Anonymous", r.DonorName)
	assert.True(t, r.Success)
	assert.Equal(t, int64(2785), r.BaseCurrencyEquivalent)
	assert.Equal(t, "usd", r.Currency)
}
