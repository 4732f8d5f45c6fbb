package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

var (
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrIgnoredEvent marks a well-formed event this system does not act
	// on; the endpoint acknowledges it so the provider stops retrying.
	ErrIgnoredEvent = errors.New("ignored webhook event")
)

// Normalizer maps provider payloads onto the canonical event vocabulary.
// Mappings are total: an unrecognized vendor status degrades to
// PROCESSING and is logged, never dropped.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

func (n *Normalizer) Normalize(provider domain.Provider, rawBody []byte) (domain.CanonicalEvent, error) {
	switch provider {
	case domain.ProviderShopify:
		return n.normalizeShopify(rawBody)
	case domain.ProviderQikink:
		return n.normalizeQikink(rawBody)
	case domain.ProviderRazorpay:
		return n.normalizeRazorpay(rawBody)
	default:
		return domain.CanonicalEvent{}, fmt.Errorf("unknown webhook provider %q", provider)
	}
}

func (n *Normalizer) normalizeShopify(rawBody []byte) (domain.CanonicalEvent, error) {
	var p ShopifyOrderPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	topic := p.Type
	if topic == "" {
		topic = p.Event
	}
	if topic == "" || p.ID == 0 {
		return domain.CanonicalEvent{}, fmt.Errorf("%w: missing shopify event type or order id", ErrMalformedPayload)
	}

	ev := domain.CanonicalEvent{
		Provider:        domain.ProviderShopify,
		ExternalOrderID: strconv.FormatInt(p.ID, 10),
		ExternalRefID:   p.ExternalReferenceID,
		RawStatus:       topic,
		ReceivedAt:      time.Now().UTC(),
	}

	switch topic {
	case "order/created":
		ev.Kind = domain.EventKindPayment
		ev.PaymentStatus = domain.PaymentStatusSuccess
		ev.OrderStatus = domain.OrderStatusConfirmed
		ev.SyncToQikink = true
		ev.ShippingInfo = buildQikinkRequest(p)
	case "order/paid":
		ev.Kind = domain.EventKindPayment
		ev.PaymentStatus = domain.PaymentStatusSuccess
	case "order/fulfilled":
		ev.Kind = domain.EventKindFulfillment
		ev.OrderStatus = domain.OrderStatusShipped
		if len(p.ShippingLines) > 0 {
			ev.Tracking = domain.TrackingInfo{
				TrackingNumber:  p.ShippingLines[0].TrackingNumber,
				TrackingURL:     p.ShippingLines[0].TrackingURL,
				ShippingCarrier: p.ShippingLines[0].Carrier,
			}
		}
	case "order/cancelled":
		ev.Kind = domain.EventKindFulfillment
		ev.OrderStatus = domain.OrderStatusCancelled
	case "order/refunded":
		ev.Kind = domain.EventKindPayment
		ev.PaymentStatus = domain.PaymentStatusRefunded
		ev.OrderStatus = domain.OrderStatusCancelled
	default:
		n.logger.Warn("unknown vendor status",
			zap.String("provider", string(domain.ProviderShopify)),
			zap.String("status", topic))
		ev.Kind = domain.EventKindFulfillment
		ev.OrderStatus = domain.OrderStatusProcessing
	}
	return ev, nil
}

var qikinkStatusMap = map[string]domain.OrderStatus{
	"order.received":      domain.OrderStatusProcessing,
	"order.processing":    domain.OrderStatusProcessing,
	"order.manufacturing": domain.OrderStatusPrinting,
	"order.quality_check": domain.OrderStatusPrinting,
	"order.dispatched":    domain.OrderStatusReadyToShip,
	"order.shipped":       domain.OrderStatusShipped,
	"order.delivered":     domain.OrderStatusDelivered,
	"order.cancelled":     domain.OrderStatusCancelled,
}

func (n *Normalizer) normalizeQikink(rawBody []byte) (domain.CanonicalEvent, error) {
	var p QikinkPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	event := p.Event
	if event == "" {
		event = p.Status
	}
	if event == "" || p.ID == "" {
		return domain.CanonicalEvent{}, fmt.Errorf("%w: missing qikink event or order id", ErrMalformedPayload)
	}

	refID := p.ExternalReferenceID
	if refID == "" {
		refID = p.ShopifyOrderID
	}

	status, ok := qikinkStatusMap[event]
	if !ok {
		n.logger.Warn("unknown vendor status",
			zap.String("provider", string(domain.ProviderQikink)),
			zap.String("status", event))
		status = domain.OrderStatusProcessing
	}

	ev := domain.CanonicalEvent{
		Provider:        domain.ProviderQikink,
		Kind:            domain.EventKindFulfillment,
		ExternalOrderID: p.ID,
		ExternalRefID:   refID,
		OrderStatus:     status,
		RawStatus:       event,
		ReceivedAt:      time.Now().UTC(),
	}
	if status == domain.OrderStatusShipped {
		ev.Tracking = domain.TrackingInfo{
			TrackingNumber:        p.TrackingNumber,
			TrackingURL:           p.TrackingURL,
			ShippingCarrier:       p.ShippingCarrier,
			EstimatedDeliveryDate: p.EstimatedDeliveryDate,
		}
	}
	return ev, nil
}

func (n *Normalizer) normalizeRazorpay(rawBody []byte) (domain.CanonicalEvent, error) {
	var p RazorpayPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.Event == "" {
		return domain.CanonicalEvent{}, fmt.Errorf("%w: missing razorpay event", ErrMalformedPayload)
	}

	extOrderID := p.Payload.Order.Entity.ID
	if extOrderID == "" {
		extOrderID = p.Payload.Payment.Entity.OrderID
	}

	ev := domain.CanonicalEvent{
		Provider:          domain.ProviderRazorpay,
		Kind:              domain.EventKindPayment,
		ExternalOrderID:   extOrderID,
		ExternalRefID:     p.Payload.Order.Entity.Receipt,
		ProviderPaymentID: p.Payload.Payment.Entity.ID,
		RawStatus:         p.Event,
		ReceivedAt:        time.Now().UTC(),
	}

	switch p.Event {
	case "payment.authorized", "payment.captured":
		ev.PaymentStatus = domain.PaymentStatusSuccess
	case "payment.failed":
		ev.PaymentStatus = domain.PaymentStatusFailed
	default:
		n.logger.Warn("unknown vendor status",
			zap.String("provider", string(domain.ProviderRazorpay)),
			zap.String("status", p.Event))
		return domain.CanonicalEvent{}, fmt.Errorf("%w: razorpay event %q", ErrIgnoredEvent, p.Event)
	}
	return ev, nil
}

// buildQikinkRequest assembles the print-provider order from the Shopify
// order's line items and shipping address.
func buildQikinkRequest(p ShopifyOrderPayload) *domain.QikinkOrderRequest {
	shopifyID := strconv.FormatInt(p.ID, 10)
	req := &domain.QikinkOrderRequest{
		ExternalReferenceID: shopifyID,
		ShopifyOrderID:      shopifyID,
		ShippingAddress: domain.QikinkAddress{
			FullName:      p.ShippingAddress.Name,
			Email:         p.Email,
			Phone:         p.ShippingAddress.Phone,
			StreetAddress: p.ShippingAddress.Address1,
			Apartment:     p.ShippingAddress.Address2,
			City:          p.ShippingAddress.City,
			State:         p.ShippingAddress.Province,
			PostalCode:    p.ShippingAddress.Zip,
			Country:       p.ShippingAddress.Country,
		},
		Notifications: domain.QikinkNotifications{
			OrderCreated:   true,
			OrderShipped:   true,
			OrderDelivered: true,
		},
	}
	for _, li := range p.LineItems {
		req.Products = append(req.Products, domain.QikinkProduct{
			SKU:      li.SKU,
			Name:     li.Title,
			Quantity: li.Quantity,
		})
	}
	return req
}
