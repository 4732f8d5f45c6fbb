package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

func signBase64(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyShopify(t *testing.T) {
	v := NewVerifier("shopify-secret", "qikink-secret", "rzp-webhook-secret", "rzp-key-secret")
	body := []byte(`{"id":123,"type":"order/created"}`)

	assert.NoError(t, v.Verify(domain.ProviderShopify, body, signBase64("shopify-secret", body)))

	err := v.Verify(domain.ProviderShopify, body, signBase64("wrong-secret", body))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Tampered body: signature computed over different bytes.
	sig := signBase64("shopify-secret", body)
	err = v.Verify(domain.ProviderShopify, []byte(`{"id":999,"type":"order/created"}`), sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Hex encoding of a valid digest must not pass the base64 comparison.
	err = v.Verify(domain.ProviderShopify, body, signHex("shopify-secret", body))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = v.Verify(domain.ProviderShopify, body, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyQikink(t *testing.T) {
	v := NewVerifier("shopify-secret", "qikink-secret", "rzp-webhook-secret", "rzp-key-secret")
	body := []byte(`{"id":"QK-1","event":"order.shipped"}`)

	assert.NoError(t, v.Verify(domain.ProviderQikink, body, signHex("qikink-secret", body)))
	assert.ErrorIs(t, v.Verify(domain.ProviderQikink, body, signHex("bad", body)), ErrInvalidSignature)
}

func TestVerifyRazorpayWebhook(t *testing.T) {
	v := NewVerifier("shopify-secret", "qikink-secret", "rzp-webhook-secret", "rzp-key-secret")
	body := []byte(`{"event":"payment.captured"}`)

	assert.NoError(t, v.Verify(domain.ProviderRazorpay, body, signHex("rzp-webhook-secret", body)))
	assert.ErrorIs(t, v.Verify(domain.ProviderRazorpay, body, signHex("forged", body)), ErrInvalidSignature)
}

func TestVerifyMissingSecretIsNotAccept(t *testing.T) {
	v := NewVerifier("", "", "", "")
	body := []byte(`{}`)

	for _, provider := range []domain.Provider{
		domain.ProviderShopify,
		domain.ProviderQikink,
		domain.ProviderRazorpay,
	} {
		err := v.Verify(provider, body, signHex("", body))
		require.ErrorIs(t, err, ErrSecretMissing, "provider %s", provider)
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	v := NewVerifier("shopify-secret", "qikink-secret", "rzp-webhook-secret", "rzp-key-secret")

	good := signHex("rzp-key-secret", []byte("order-1|pay_abc"))
	assert.NoError(t, v.VerifyPaymentSignature("order-1", "pay_abc", good))

	assert.ErrorIs(t, v.VerifyPaymentSignature("order-1", "pay_abc", signHex("rzp-key-secret", []byte("order-2|pay_abc"))), ErrInvalidSignature)
	assert.ErrorIs(t, v.VerifyPaymentSignature("order-1", "pay_abc", "deadbeef"), ErrInvalidSignature)
}

func TestVerifyUnknownProvider(t *testing.T) {
	v := NewVerifier("a", "b", "c", "d")
	assert.Error(t, v.Verify(domain.Provider("printify"), []byte(`{}`), "sig"))
}
