package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/repository"
)

type fakeVerifier struct {
	valid bool
}

func (f *fakeVerifier) VerifyPaymentSignature(_, _, _ string) error {
	if !f.valid {
		return errors.New("signature mismatch")
	}
	return nil
}

func newPaymentFixture(valid bool) (*reconcilerFixture, *PaymentService) {
	f := newFixture()
	ps := NewPaymentService(f.orders, f.payments, &fakeVerifier{valid: valid}, f.reconciler, zap.NewNop())
	return f, ps
}

func TestInitiatePayment(t *testing.T) {
	f, ps := newPaymentFixture(true)
	f.seedOrder(t, domain.Order{OrderID: "order-1", Amount: 499})

	payment, err := ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
		OrderID:  "order-1",
		Provider: domain.PaymentProviderRazorpay,
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", payment.OrderID)
	assert.Equal(t, "order-1", payment.Receipt)
	assert.Equal(t, 499.0, payment.Amount)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)

	// One payment per order.
	_, err = ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
		OrderID:  "order-1",
		Provider: domain.PaymentProviderRazorpay,
	})
	assert.ErrorIs(t, err, repository.ErrPaymentExists)
}

func TestInitiatePaymentUnknownOrder(t *testing.T) {
	_, ps := newPaymentFixture(true)

	_, err := ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
		OrderID:  "missing",
		Provider: domain.PaymentProviderRazorpay,
	})
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestVerifyPaymentSuccess(t *testing.T) {
	f, ps := newPaymentFixture(true)
	f.seedOrder(t, domain.Order{OrderID: "order-1", Amount: 499})

	_, err := ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
		OrderID:  "order-1",
		Provider: domain.PaymentProviderRazorpay,
	})
	require.NoError(t, err)

	trans, err := ps.VerifyPayment(context.Background(), domain.VerifyPaymentRequest{
		OrderID:   "order-1",
		PaymentID: "pay_X1",
		Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, trans.Applied)

	order, err := f.orders.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, order.PaymentStatus)

	payment, err := f.payments.GetPaymentByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, "pay_X1", payment.ProviderPaymentID)
}

// Verifications of different orders must not collapse into one dedup
// fingerprint: idempotence is per event, not global.
func TestVerifyPaymentDistinctOrders(t *testing.T) {
	f, ps := newPaymentFixture(true)
	f.seedOrder(t, domain.Order{OrderID: "order-A", Amount: 499})
	f.seedOrder(t, domain.Order{OrderID: "order-B", Amount: 799})

	for _, orderID := range []string{"order-A", "order-B"} {
		_, err := ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
			OrderID:  orderID,
			Provider: domain.PaymentProviderRazorpay,
		})
		require.NoError(t, err)
	}

	first, err := ps.VerifyPayment(context.Background(), domain.VerifyPaymentRequest{
		OrderID:   "order-A",
		PaymentID: "pay_A",
		Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := ps.VerifyPayment(context.Background(), domain.VerifyPaymentRequest{
		OrderID:   "order-B",
		PaymentID: "pay_B",
		Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, second.Applied)

	for _, orderID := range []string{"order-A", "order-B"} {
		order, err := f.orders.GetOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusSuccess, order.PaymentStatus, orderID)

		payment, err := f.payments.GetPaymentByOrderID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusSuccess, payment.Status, orderID)
	}
}

func TestVerifyPaymentInvalidSignature(t *testing.T) {
	f, ps := newPaymentFixture(false)
	f.seedOrder(t, domain.Order{OrderID: "order-1", Amount: 499})

	_, err := ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
		OrderID:  "order-1",
		Provider: domain.PaymentProviderRazorpay,
	})
	require.NoError(t, err)

	_, err = ps.VerifyPayment(context.Background(), domain.VerifyPaymentRequest{
		OrderID:   "order-1",
		PaymentID: "pay_X1",
		Signature: "forged",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentSignature)

	// No state change on rejection.
	order, err := f.orders.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
}

func TestVerifyPaymentUnknownPayment(t *testing.T) {
	f, ps := newPaymentFixture(true)
	f.seedOrder(t, domain.Order{OrderID: "order-1"})

	_, err := ps.VerifyPayment(context.Background(), domain.VerifyPaymentRequest{
		OrderID:   "order-1",
		PaymentID: "pay_X1",
		Signature: "sig",
	})
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

// Synchronous verification and the asynchronous webhook confirmation go
// through the same reconciliation entry point, so whichever lands second
// is a no-op.
func TestVerifyThenWebhookDoesNotDoubleApply(t *testing.T) {
	f, ps := newPaymentFixture(true)
	f.seedOrder(t, domain.Order{OrderID: "order-1", Amount: 499})

	_, err := ps.InitiatePayment(context.Background(), domain.InitiatePaymentRequest{
		OrderID:  "order-1",
		Provider: domain.PaymentProviderRazorpay,
	})
	require.NoError(t, err)

	first, err := ps.VerifyPayment(context.Background(), domain.VerifyPaymentRequest{
		OrderID:   "order-1",
		PaymentID: "pay_X1",
		Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, first.Applied)

	webhookEv := domain.CanonicalEvent{
		Provider:          domain.ProviderRazorpay,
		Kind:              domain.EventKindPayment,
		ExternalOrderID:   "order_rzp1",
		ExternalRefID:     "order-1",
		PaymentStatus:     domain.PaymentStatusSuccess,
		ProviderPaymentID: "pay_X1",
		RawStatus:         "payment.captured",
	}
	second, err := f.reconciler.Reconcile(context.Background(), webhookEv)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Len(t, f.producer.transitions, 1)
}
