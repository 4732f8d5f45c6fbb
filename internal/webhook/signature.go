package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSecretMissing    = errors.New("webhook secret not configured")
)

// Verifier checks inbound webhook authenticity. Every provider signs the
// exact raw request bytes, so callers must capture the body before any
// JSON decoding touches it.
type Verifier struct {
	shopifySecret         string
	qikinkSecret          string
	razorpayWebhookSecret string
	razorpayKeySecret     string
}

func NewVerifier(shopifySecret, qikinkSecret, razorpayWebhookSecret, razorpayKeySecret string) *Verifier {
	return &Verifier{
		shopifySecret:         shopifySecret,
		qikinkSecret:          qikinkSecret,
		razorpayWebhookSecret: razorpayWebhookSecret,
		razorpayKeySecret:     razorpayKeySecret,
	}
}

// Verify checks the signature header for the given provider against the
// raw body. A missing secret is a configuration fault, never an accept.
func (v *Verifier) Verify(provider domain.Provider, rawBody []byte, signature string) error {
	switch provider {
	case domain.ProviderShopify:
		return verifyHMAC(v.shopifySecret, rawBody, signature, base64.StdEncoding.EncodeToString)
	case domain.ProviderQikink:
		return verifyHMAC(v.qikinkSecret, rawBody, signature, hex.EncodeToString)
	case domain.ProviderRazorpay:
		return verifyHMAC(v.razorpayWebhookSecret, rawBody, signature, hex.EncodeToString)
	default:
		return fmt.Errorf("unknown webhook provider %q", provider)
	}
}

// VerifyPaymentSignature checks the synchronous Razorpay verification
// signature, computed over "orderID|paymentID" rather than a body.
func (v *Verifier) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	payload := fmt.Sprintf("%s|%s", orderID, paymentID)
	return verifyHMAC(v.razorpayKeySecret, []byte(payload), signature, hex.EncodeToString)
}

func verifyHMAC(secret string, payload []byte, signature string, encode func([]byte) string) error {
	if secret == "" {
		return ErrSecretMissing
	}
	if signature == "" {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := encode(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
