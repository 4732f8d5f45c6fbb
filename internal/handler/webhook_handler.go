package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/metrics"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/repository"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/service"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/webhook"
)

const maxWebhookBody = 1 << 20 // 1MB

const (
	headerShopifyHmac = "X-Shopify-Hmac-Sha256"
	headerQikinkSig   = "X-Qikink-Signature"
	headerRazorpaySig = "X-Razorpay-Signature"
)

// WebhookHandler ingests provider webhooks. The body is captured raw
// before any JSON parsing so signature input is bit-exact.
type WebhookHandler struct {
	verifier   *webhook.Verifier
	normalizer *webhook.Normalizer
	reconciler *service.Reconciler
	logger     *zap.Logger
}

func NewWebhookHandler(
	verifier *webhook.Verifier,
	normalizer *webhook.Normalizer,
	reconciler *service.Reconciler,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		normalizer: normalizer,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (h *WebhookHandler) HandleShopify(c *gin.Context) {
	h.handleSigned(c, domain.ProviderShopify, c.GetHeader(headerShopifyHmac))
}

func (h *WebhookHandler) HandleQikink(c *gin.Context) {
	h.handleSigned(c, domain.ProviderQikink, c.GetHeader(headerQikinkSig))
}

// handleSigned covers the strict providers: a bad or missing signature is
// a 401 and nothing past the verifier ever sees the payload.
func (h *WebhookHandler) handleSigned(c *gin.Context, provider domain.Provider, signature string) {
	rawBody, err := h.readBody(c)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(provider), "error").Inc()
		respondError(c, http.StatusBadRequest, "UNREADABLE_BODY", "could not read request body")
		return
	}

	if err := h.verifier.Verify(provider, rawBody, signature); err != nil {
		if errors.Is(err, webhook.ErrSecretMissing) {
			h.logger.Error("webhook secret not configured", zap.String("provider", string(provider)))
			metrics.WebhookEventsTotal.WithLabelValues(string(provider), "error").Inc()
			respondError(c, http.StatusInternalServerError, "MISCONFIGURED", "webhook endpoint not configured")
			return
		}
		h.logger.Warn("webhook signature rejected",
			zap.String("provider", string(provider)),
			zap.String("request_id", c.GetString("request_id")))
		metrics.WebhookEventsTotal.WithLabelValues(string(provider), "rejected").Inc()
		respondError(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "webhook signature verification failed")
		return
	}

	h.ingest(c, provider, rawBody)
}

// HandlePayment is the legacy Razorpay path. It verifies the signature
// when one is presented but answers 200 either way: the provider retries
// forever on non-2xx, so a forged packet is accepted and its effect
// rejected.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	rawBody, err := h.readBody(c)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(domain.ProviderRazorpay), "error").Inc()
		respondError(c, http.StatusBadRequest, "UNREADABLE_BODY", "could not read request body")
		return
	}

	if sig := c.GetHeader(headerRazorpaySig); sig != "" {
		if err := h.verifier.Verify(domain.ProviderRazorpay, rawBody, sig); err != nil {
			if errors.Is(err, webhook.ErrSecretMissing) {
				h.logger.Error("webhook secret not configured",
					zap.String("provider", string(domain.ProviderRazorpay)))
				metrics.WebhookEventsTotal.WithLabelValues(string(domain.ProviderRazorpay), "error").Inc()
				respondError(c, http.StatusInternalServerError, "MISCONFIGURED", "webhook endpoint not configured")
				return
			}
			h.logger.Warn("razorpay webhook signature rejected, dropping event",
				zap.String("request_id", c.GetString("request_id")))
			metrics.WebhookEventsTotal.WithLabelValues(string(domain.ProviderRazorpay), "rejected").Inc()
			respond(c, http.StatusOK, gin.H{"message": "Webhook processed successfully"})
			return
		}
	}

	h.ingest(c, domain.ProviderRazorpay, rawBody)
}

func (h *WebhookHandler) ingest(c *gin.Context, provider domain.Provider, rawBody []byte) {
	ev, err := h.normalizer.Normalize(provider, rawBody)
	if err != nil {
		if errors.Is(err, webhook.ErrIgnoredEvent) {
			metrics.WebhookEventsTotal.WithLabelValues(string(provider), "ignored").Inc()
			respond(c, http.StatusOK, gin.H{"message": "Webhook processed successfully"})
			return
		}
		metrics.WebhookEventsTotal.WithLabelValues(string(provider), "malformed").Inc()
		respondError(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "could not decode webhook payload")
		return
	}

	t, err := h.reconciler.Reconcile(c.Request.Context(), ev)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		// Accept-and-drop: a non-2xx here would only cause a retry storm
		// for an order that will never exist.
		h.logger.Warn("order not found for webhook",
			zap.String("provider", string(provider)),
			zap.String("external_order_id", ev.ExternalOrderID),
			zap.String("external_ref_id", ev.ExternalRefID))
		metrics.WebhookEventsTotal.WithLabelValues(string(provider), "dropped").Inc()
		respond(c, http.StatusOK, gin.H{"message": "Webhook processed successfully"})
		return

	case errors.Is(err, service.ErrConflict):
		// Retryable: the provider re-delivers and dedup makes it safe.
		metrics.WebhookEventsTotal.WithLabelValues(string(provider), "conflict").Inc()
		respondError(c, http.StatusConflict, "TRANSIENT_CONFLICT", "concurrent update, retry delivery")
		return

	case err != nil:
		h.logger.Error("webhook reconciliation failed",
			zap.String("provider", string(provider)),
			zap.Error(err))
		metrics.WebhookEventsTotal.WithLabelValues(string(provider), "error").Inc()
		respondError(c, http.StatusInternalServerError, "INTERNAL", "webhook processing failed")
		return
	}

	outcome := "noop"
	if t.Applied {
		outcome = "applied"
	}
	metrics.WebhookEventsTotal.WithLabelValues(string(provider), outcome).Inc()
	respond(c, http.StatusOK, gin.H{
		"message": "Webhook processed successfully",
		"applied": t.Applied,
	})
}

func (h *WebhookHandler) readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
}
