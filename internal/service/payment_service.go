package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

var ErrInvalidPaymentSignature = errors.New("invalid payment signature")

// PaymentVerifier recomputes the provider's synchronous verification
// signature over "orderID|paymentID".
type PaymentVerifier interface {
	VerifyPaymentSignature(orderID, paymentID, signature string) error
}

// PaymentService owns payment initiation and the synchronous verification
// path. Verification routes through the reconciler, so the webhook path
// and this path cannot double-fire effects.
type PaymentService struct {
	orders     OrderStore
	payments   PaymentStore
	verifier   PaymentVerifier
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewPaymentService(
	orders OrderStore,
	payments PaymentStore,
	verifier PaymentVerifier,
	reconciler *Reconciler,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		orders:     orders,
		payments:   payments,
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

// InitiatePayment creates the order's single payment record. The receipt
// field is set to the internal order id here, which is the only place the
// provider's order reference is ever established.
func (s *PaymentService) InitiatePayment(ctx context.Context, req domain.InitiatePaymentRequest) (*domain.Payment, error) {
	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		PaymentID: uuid.New().String(),
		OrderID:   order.OrderID,
		Provider:  req.Provider,
		Amount:    order.Amount,
		Status:    domain.PaymentStatusPending,
		Receipt:   order.OrderID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment initiated",
		zap.String("payment_id", payment.PaymentID),
		zap.String("order_id", payment.OrderID),
		zap.String("provider", string(payment.Provider)))

	return payment, nil
}

// VerifyPayment checks the client-supplied signature and, on success,
// applies the payment transition through the reconciler.
func (s *PaymentService) VerifyPayment(ctx context.Context, req domain.VerifyPaymentRequest) (Transition, error) {
	payment, err := s.payments.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		return Transition{}, err
	}

	if payment.Provider == domain.PaymentProviderRazorpay {
		if err := s.verifier.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
			s.logger.Warn("payment signature mismatch",
				zap.String("order_id", req.OrderID),
				zap.String("payment_id", req.PaymentID))
			return Transition{}, ErrInvalidPaymentSignature
		}
	}

	ev := domain.CanonicalEvent{
		Provider:          domain.ProviderRazorpay,
		Kind:              domain.EventKindPayment,
		ExternalRefID:     req.OrderID,
		PaymentStatus:     domain.PaymentStatusSuccess,
		ProviderPaymentID: req.PaymentID,
		RawStatus:         "payment.verified",
		ReceivedAt:        time.Now().UTC(),
	}
	return s.reconciler.Reconcile(ctx, ev)
}
