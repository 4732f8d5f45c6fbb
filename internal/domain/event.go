package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Provider identifies the external system a webhook came from.
type Provider string

const (
	ProviderShopify  Provider = "shopify"
	ProviderQikink   Provider = "qikink"
	ProviderRazorpay Provider = "razorpay"
)

type EventKind string

const (
	EventKindPayment     EventKind = "payment"
	EventKindFulfillment EventKind = "fulfillment"
)

// CanonicalEvent is one inbound webhook delivery translated into the
// cross-provider vocabulary. Zero-valued OrderStatus / PaymentStatus mean
// the event does not claim anything about that dimension.
type CanonicalEvent struct {
	Provider        Provider
	Kind            EventKind
	ExternalOrderID string
	// ExternalRefID is the cross-provider correlation key: Qikink orders
	// created from a Shopify order carry the Shopify order id here, and
	// the Razorpay receipt carries our internal order id.
	ExternalRefID     string
	OrderStatus       OrderStatus
	PaymentStatus     PaymentStatus
	ProviderPaymentID string
	Tracking          TrackingInfo
	// RawStatus keeps the vendor's own status string for audit.
	RawStatus string
	// SyncToQikink marks the Shopify order/created composite transition
	// that additionally owes a Qikink order creation.
	SyncToQikink bool
	ShippingInfo *QikinkOrderRequest
	ReceivedAt   time.Time
}

// Fingerprint derives the dedup key for this delivery. Two deliveries of
// the same provider claim about the same order collapse to one key, so an
// at-least-once provider can retry freely. Both order references go into
// the key: payment events that identify the order by reference alone must
// not collide across orders.
func (e CanonicalEvent) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(e.Provider))
	h.Write([]byte{0})
	h.Write([]byte(e.ExternalOrderID))
	h.Write([]byte{0})
	h.Write([]byte(e.ExternalRefID))
	h.Write([]byte{0})
	h.Write([]byte(e.OrderStatus))
	h.Write([]byte{0})
	h.Write([]byte(e.PaymentStatus))
	h.Write([]byte{0})
	h.Write([]byte(e.Tracking.TrackingNumber))
	return hex.EncodeToString(h.Sum(nil))
}

// QikinkOrderRequest is the outbound create-order call owed by a Shopify
// order/created transition, built from the webhook's line items and
// shipping address.
type QikinkOrderRequest struct {
	ExternalReferenceID string              `json:"external_reference_id"`
	ShopifyOrderID      string              `json:"shopify_order_id"`
	Products            []QikinkProduct     `json:"products"`
	ShippingAddress     QikinkAddress       `json:"shipping_address"`
	Notifications       QikinkNotifications `json:"notifications"`
}

type QikinkProduct struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type QikinkAddress struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	StreetAddress string `json:"street_address"`
	Apartment     string `json:"apartment,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// QikinkOrderResult is what the print provider returns on creation.
type QikinkOrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type QikinkNotifications struct {
	OrderCreated   bool `json:"order_created"`
	OrderShipped   bool `json:"order_shipped"`
	OrderDelivered bool `json:"order_delivered"`
}
