package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated     OrderStatus = "CREATED"
	OrderStatusConfirmed   OrderStatus = "CONFIRMED"
	OrderStatusProcessing  OrderStatus = "PROCESSING"
	OrderStatusPrinting    OrderStatus = "PRINTING"
	OrderStatusReadyToShip OrderStatus = "READY_TO_SHIP"
	OrderStatusShipped     OrderStatus = "SHIPPED"
	OrderStatusDelivered   OrderStatus = "DELIVERED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PaymentProvider string

const (
	PaymentProviderRazorpay PaymentProvider = "RAZORPAY"
	PaymentProviderStripe   PaymentProvider = "STRIPE"
	PaymentProviderShopify  PaymentProvider = "SHOPIFY"
)

// statusRank orders the forward-only lifecycle. CANCELLED is not ranked;
// it is a terminal short-circuit reachable from anywhere except DELIVERED.
var statusRank = map[OrderStatus]int{
	OrderStatusCreated:     0,
	OrderStatusConfirmed:   1,
	OrderStatusProcessing:  2,
	OrderStatusPrinting:    3,
	OrderStatusReadyToShip: 4,
	OrderStatusShipped:     5,
	OrderStatusDelivered:   6,
}

// CanTransitionOrder reports whether moving from -> to is a forward step
// in the lifecycle. A false result is not an error: stale and duplicate
// webhook deliveries legitimately request transitions that are already
// satisfied, and the caller treats them as no-ops.
func CanTransitionOrder(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	if from == OrderStatusCancelled {
		return false
	}
	if to == OrderStatusCancelled {
		return from != OrderStatusDelivered
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// CanTransitionPayment enforces PENDING -> {SUCCESS, FAILED} and
// SUCCESS -> REFUNDED; no other edges exist.
func CanTransitionPayment(from, to PaymentStatus) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusSuccess || to == PaymentStatusFailed
	case PaymentStatusSuccess:
		return to == PaymentStatusRefunded
	default:
		return false
	}
}

// Order is the aggregate root linking a QR scan to a purchase. It is
// mutated only through the reconciler or the synchronous payment
// verification path, never deleted.
type Order struct {
	OrderID        string        `json:"order_id" dynamodbav:"order_id"`
	UserID         string        `json:"user_id" dynamodbav:"user_id"`
	UserEmail      string        `json:"user_email" dynamodbav:"user_email"`
	ProductID      string        `json:"product_id" dynamodbav:"product_id"`
	ProductName    string        `json:"product_name" dynamodbav:"product_name"`
	QRCodeID       string        `json:"qr_code_id" dynamodbav:"qr_code_id"`
	CafeID         string        `json:"cafe_id" dynamodbav:"cafe_id"`
	Amount         float64       `json:"amount" dynamodbav:"amount"`
	Quantity       int           `json:"quantity" dynamodbav:"quantity"`
	PaymentStatus  PaymentStatus `json:"payment_status" dynamodbav:"payment_status"`
	OrderStatus    OrderStatus   `json:"order_status" dynamodbav:"order_status"`
	ShopifyOrderID string        `json:"shopify_order_id,omitempty" dynamodbav:"shopify_order_id,omitempty"`
	QikinkOrderID  string        `json:"qikink_order_id,omitempty" dynamodbav:"qikink_order_id,omitempty"`
	QikinkStatus   string        `json:"qikink_status,omitempty" dynamodbav:"qikink_status,omitempty"`
	Tracking       TrackingInfo  `json:"tracking" dynamodbav:"tracking"`
	// Version is the optimistic-concurrency token; every reconciled write
	// is conditional on the version it read.
	Version   int64     `json:"version" dynamodbav:"version"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type TrackingInfo struct {
	TrackingNumber        string `json:"tracking_number,omitempty" dynamodbav:"tracking_number,omitempty"`
	TrackingURL           string `json:"tracking_url,omitempty" dynamodbav:"tracking_url,omitempty"`
	ShippingCarrier       string `json:"shipping_carrier,omitempty" dynamodbav:"shipping_carrier,omitempty"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date,omitempty" dynamodbav:"estimated_delivery_date,omitempty"`
}

func (t TrackingInfo) Empty() bool {
	return t == TrackingInfo{}
}

// Payment is the single payment record of an order (order_id unique).
type Payment struct {
	PaymentID         string          `json:"payment_id" dynamodbav:"payment_id"`
	OrderID           string          `json:"order_id" dynamodbav:"order_id"`
	Provider          PaymentProvider `json:"provider" dynamodbav:"provider"`
	Amount            float64         `json:"amount" dynamodbav:"amount"`
	Status            PaymentStatus   `json:"status" dynamodbav:"status"`
	ProviderPaymentID string          `json:"provider_payment_id,omitempty" dynamodbav:"provider_payment_id,omitempty"`
	// Receipt carries the internal order id to the provider at initiation
	// time so the webhook's order reference is ours, not guessed.
	Receipt   string    `json:"receipt" dynamodbav:"receipt"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateOrderRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	UserEmail   string  `json:"user_email" binding:"required,email"`
	ProductID   string  `json:"product_id" binding:"required"`
	ProductName string  `json:"product_name"`
	QRCodeID    string  `json:"qr_code_id" binding:"required"`
	CafeID      string  `json:"cafe_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Quantity    int     `json:"quantity" binding:"omitempty,min=1"`
}

type CreateOrderResponse struct {
	OrderID       string        `json:"order_id"`
	OrderStatus   OrderStatus   `json:"order_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

type InitiatePaymentRequest struct {
	OrderID  string          `json:"order_id" binding:"required"`
	Provider PaymentProvider `json:"provider" binding:"required,oneof=RAZORPAY STRIPE SHOPIFY"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}
