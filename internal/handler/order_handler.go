package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/repository"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	requestID := c.GetString("request_id")
	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed to create order",
			zap.String("request_id", requestID),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Failed to create order")
		return
	}

	respond(c, http.StatusCreated, domain.CreateOrderResponse{
		OrderID:       order.OrderID,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Failed to fetch order")
		return
	}

	respond(c, http.StatusOK, order)
}
