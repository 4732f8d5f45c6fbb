package qikink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

// Client creates print-fulfillment orders against the Qikink API with
// bounded retries. Transport-level retries here are safe: Qikink dedups
// on external_reference_id.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	apiKey     string
	merchantID string
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey, merchantID string, logger *zap.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	return &Client{
		httpClient: rc,
		baseURL:    baseURL,
		apiKey:     apiKey,
		merchantID: merchantID,
		logger:     logger,
	}
}

func (c *Client) CreateOrder(ctx context.Context, orderReq *domain.QikinkOrderRequest) (*domain.QikinkOrderResult, error) {
	body, err := json.Marshal(orderReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal qikink order: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-ID", c.merchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qikink order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("qikink order request returned %d: %s", resp.StatusCode, snippet)
	}

	var result domain.QikinkOrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode qikink response: %w", err)
	}

	c.logger.Info("qikink order created",
		zap.String("qikink_order_id", result.ID),
		zap.String("external_reference_id", orderReq.ExternalReferenceID))

	return &result, nil
}
