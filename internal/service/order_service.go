package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

// OrderService is the lifecycle entry point: orders start in
// CREATED/PENDING and from then on are mutated only by the reconciler or
// the synchronous payment verification path.
type OrderService struct {
	orders OrderStore
	logger *zap.Logger
}

func NewOrderService(orders OrderStore, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:       uuid.New().String(),
		UserID:        req.UserID,
		UserEmail:     req.UserEmail,
		ProductID:     req.ProductID,
		ProductName:   req.ProductName,
		QRCodeID:      req.QRCodeID,
		CafeID:        req.CafeID,
		Amount:        req.Amount,
		Quantity:      quantity,
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusCreated,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.Error("failed to save order",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", order.UserID),
		zap.String("qr_code_id", order.QRCodeID),
		zap.Float64("amount", order.Amount))

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}
