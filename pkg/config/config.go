package config

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             string `envconfig:"PORT" default:"8080"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"ap-south-1"`
	OrderTableName   string `envconfig:"ORDER_TABLE_NAME" default:"orders"`
	EventTableName   string `envconfig:"EVENT_TABLE_NAME" default:"webhook-events"`
	EventDedupTTLHrs int    `envconfig:"EVENT_DEDUP_TTL_HOURS" default:"72"`
	KafkaBrokers     string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""` // DynamoDB Local endpoint

	ShopifyWebhookSecret  string `envconfig:"SHOPIFY_WEBHOOK_SECRET"`
	QikinkWebhookSecret   string `envconfig:"QIKINK_WEBHOOK_SECRET"`
	RazorpaySecret        string `envconfig:"RAZORPAY_SECRET"`
	RazorpayWebhookSecret string `envconfig:"RAZORPAY_WEBHOOK_SECRET"`

	QikinkAPIBase    string `envconfig:"QIKINK_API_BASE" default:"https://api.qikink.com/v1"`
	QikinkAPIKey     string `envconfig:"QIKINK_API_KEY"`
	QikinkMerchantID string `envconfig:"QIKINK_MERCHANT_ID"`

	SMTPHost  string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort  int    `envconfig:"SMTP_PORT" default:"587"`
	EmailUser string `envconfig:"EMAIL_USER"`
	EmailPass string `envconfig:"EMAIL_PASSWORD"`
	EmailFrom string `envconfig:"EMAIL_FROM"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails startup when a webhook endpoint would have to accept
// unsigned traffic. A missing secret must never become a silent accept.
func (c *Config) Validate() error {
	if c.ShopifyWebhookSecret == "" {
		return errors.New("SHOPIFY_WEBHOOK_SECRET is required")
	}
	if c.QikinkWebhookSecret == "" {
		return errors.New("QIKINK_WEBHOOK_SECRET is required")
	}
	if c.RazorpaySecret == "" {
		return errors.New("RAZORPAY_SECRET is required")
	}
	return nil
}
