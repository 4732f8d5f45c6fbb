package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(zap.NewNop())
}

func TestNormalizeQikinkStatusMapping(t *testing.T) {
	tests := []struct {
		event string
		want  domain.OrderStatus
	}{
		{"order.received", domain.OrderStatusProcessing},
		{"order.processing", domain.OrderStatusProcessing},
		{"order.manufacturing", domain.OrderStatusPrinting},
		{"order.quality_check", domain.OrderStatusPrinting},
		{"order.dispatched", domain.OrderStatusReadyToShip},
		{"order.shipped", domain.OrderStatusShipped},
		{"order.delivered", domain.OrderStatusDelivered},
		{"order.cancelled", domain.OrderStatusCancelled},
		// Unknown vendor strings degrade to PROCESSING, never dropped.
		{"order.embroidering", domain.OrderStatusProcessing},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			body := []byte(`{"id":"QK-1","event":"` + tt.event + `"}`)
			ev, err := n.Normalize(domain.ProviderQikink, body)
			require.NoError(t, err)
			assert.Equal(t, domain.ProviderQikink, ev.Provider)
			assert.Equal(t, domain.EventKindFulfillment, ev.Kind)
			assert.Equal(t, "QK-1", ev.ExternalOrderID)
			assert.Equal(t, tt.want, ev.OrderStatus)
			assert.Equal(t, tt.event, ev.RawStatus)
		})
	}
}

func TestNormalizeQikinkShippedCarriesTracking(t *testing.T) {
	body := []byte(`{
		"id": "QK-7",
		"status": "order.shipped",
		"external_reference_id": "5001",
		"tracking_number": "T123",
		"tracking_url": "https://track.example/T123",
		"shipping_carrier": "BlueDart",
		"estimated_delivery_date": "2026-09-05"
	}`)

	ev, err := newTestNormalizer().Normalize(domain.ProviderQikink, body)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, ev.OrderStatus)
	assert.Equal(t, "5001", ev.ExternalRefID)
	assert.Equal(t, "T123", ev.Tracking.TrackingNumber)
	assert.Equal(t, "https://track.example/T123", ev.Tracking.TrackingURL)
	assert.Equal(t, "BlueDart", ev.Tracking.ShippingCarrier)
	assert.Equal(t, "2026-09-05", ev.Tracking.EstimatedDeliveryDate)
}

func TestNormalizeQikinkTrackingOnlyOnShipped(t *testing.T) {
	body := []byte(`{"id":"QK-7","event":"order.dispatched","tracking_number":"T123"}`)
	ev, err := newTestNormalizer().Normalize(domain.ProviderQikink, body)
	require.NoError(t, err)
	assert.True(t, ev.Tracking.Empty())
}

func TestNormalizeShopify(t *testing.T) {
	n := newTestNormalizer()

	t.Run("order/created", func(t *testing.T) {
		body := []byte(`{
			"type": "order/created",
			"id": 5001,
			"email": "buyer@example.com",
			"line_items": [{"sku":"TEE-BLK-M","title":"QR Tee","quantity":2}],
			"shipping_address": {"name":"A Buyer","address1":"1 Main St","city":"Pune","province":"MH","zip":"411001","country":"IN","phone":"999"}
		}`)
		ev, err := n.Normalize(domain.ProviderShopify, body)
		require.NoError(t, err)
		assert.Equal(t, domain.EventKindPayment, ev.Kind)
		assert.Equal(t, "5001", ev.ExternalOrderID)
		assert.Equal(t, domain.PaymentStatusSuccess, ev.PaymentStatus)
		assert.Equal(t, domain.OrderStatusConfirmed, ev.OrderStatus)
		assert.True(t, ev.SyncToQikink)
		require.NotNil(t, ev.ShippingInfo)
		assert.Equal(t, "5001", ev.ShippingInfo.ExternalReferenceID)
		require.Len(t, ev.ShippingInfo.Products, 1)
		assert.Equal(t, "TEE-BLK-M", ev.ShippingInfo.Products[0].SKU)
		assert.Equal(t, 2, ev.ShippingInfo.Products[0].Quantity)
		assert.Equal(t, "buyer@example.com", ev.ShippingInfo.ShippingAddress.Email)
		assert.Equal(t, "Pune", ev.ShippingInfo.ShippingAddress.City)
	})

	t.Run("order/paid", func(t *testing.T) {
		ev, err := n.Normalize(domain.ProviderShopify, []byte(`{"type":"order/paid","id":5001}`))
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusSuccess, ev.PaymentStatus)
		assert.Empty(t, ev.OrderStatus)
		assert.False(t, ev.SyncToQikink)
	})

	t.Run("order/fulfilled", func(t *testing.T) {
		body := []byte(`{
			"event": "order/fulfilled",
			"id": 5001,
			"shipping_lines": [{"tracking_number":"T9","tracking_url":"https://t/9","carrier_identifier":"dhl"}]
		}`)
		ev, err := n.Normalize(domain.ProviderShopify, body)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusShipped, ev.OrderStatus)
		assert.Equal(t, "T9", ev.Tracking.TrackingNumber)
		assert.Equal(t, "dhl", ev.Tracking.ShippingCarrier)
	})

	t.Run("order/cancelled", func(t *testing.T) {
		ev, err := n.Normalize(domain.ProviderShopify, []byte(`{"type":"order/cancelled","id":5001}`))
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, ev.OrderStatus)
		assert.Empty(t, ev.PaymentStatus)
	})

	t.Run("order/refunded", func(t *testing.T) {
		ev, err := n.Normalize(domain.ProviderShopify, []byte(`{"type":"order/refunded","id":5001}`))
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, ev.PaymentStatus)
		assert.Equal(t, domain.OrderStatusCancelled, ev.OrderStatus)
	})

	t.Run("unknown topic degrades to processing", func(t *testing.T) {
		ev, err := n.Normalize(domain.ProviderShopify, []byte(`{"type":"order/edited","id":5001}`))
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, ev.OrderStatus)
	})

	t.Run("missing id is malformed", func(t *testing.T) {
		_, err := n.Normalize(domain.ProviderShopify, []byte(`{"type":"order/created"}`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestNormalizeRazorpay(t *testing.T) {
	n := newTestNormalizer()

	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {"entity": {"id": "pay_X1", "order_id": "order_rzp1", "amount": 49900}},
			"order": {"entity": {"id": "order_rzp1", "receipt": "internal-42"}}
		}
	}`)
	ev, err := n.Normalize(domain.ProviderRazorpay, body)
	require.NoError(t, err)
	assert.Equal(t, domain.EventKindPayment, ev.Kind)
	assert.Equal(t, domain.PaymentStatusSuccess, ev.PaymentStatus)
	assert.Equal(t, "pay_X1", ev.ProviderPaymentID)
	assert.Equal(t, "internal-42", ev.ExternalRefID)

	// Payment events without an order entity still carry the provider
	// order id on the payment itself.
	ev, err = n.Normalize(domain.ProviderRazorpay, []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_X2","order_id":"order_rzp2"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "order_rzp2", ev.ExternalOrderID)

	ev, err = n.Normalize(domain.ProviderRazorpay, []byte(`{"event":"payment.authorized","payload":{"order":{"entity":{"receipt":"internal-42"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, ev.PaymentStatus)

	ev, err = n.Normalize(domain.ProviderRazorpay, []byte(`{"event":"payment.failed","payload":{"order":{"entity":{"receipt":"internal-42"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, ev.PaymentStatus)

	_, err = n.Normalize(domain.ProviderRazorpay, []byte(`{"event":"refund.created"}`))
	assert.ErrorIs(t, err, ErrIgnoredEvent)

	_, err = n.Normalize(domain.ProviderRazorpay, []byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
