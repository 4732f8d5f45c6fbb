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

type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req domain.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	payment, err := h.paymentService.InitiatePayment(c.Request.Context(), req)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	case errors.Is(err, repository.ErrPaymentExists):
		respondError(c, http.StatusConflict, "PAYMENT_EXISTS", "Payment already initiated for this order")
		return
	case err != nil:
		h.logger.Error("failed to initiate payment", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Failed to initiate payment")
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"payment_id": payment.PaymentID,
		"order_id":   payment.OrderID,
		"amount":     payment.Amount,
		"provider":   payment.Provider,
		"receipt":    payment.Receipt,
	})
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req domain.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	t, err := h.paymentService.VerifyPayment(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidPaymentSignature):
		respondError(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Invalid payment signature")
		return
	case errors.Is(err, repository.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		return
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, "TRANSIENT_CONFLICT", "Concurrent update, retry")
		return
	case err != nil:
		h.logger.Error("failed to verify payment", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Failed to verify payment")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Payment verified successfully",
		"applied": t.Applied,
	})
}
