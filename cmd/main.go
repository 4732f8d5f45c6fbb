package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/events"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/handler"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/notification"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/qikink"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/repository"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/service"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/webhook"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/pkg/config"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("order_table", cfg.OrderTableName),
		zap.String("event_table", cfg.EventTableName),
		zap.String("kafka_brokers", cfg.KafkaBrokers))

	// Initialize components
	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers, logger)
	defer producer.Close()

	orderRepo := repository.NewOrderRepository(dynamoClient, cfg.OrderTableName)
	paymentRepo := repository.NewPaymentRepository(dynamoClient, cfg.OrderTableName)
	eventRepo := repository.NewEventRepository(dynamoClient, cfg.EventTableName,
		time.Duration(cfg.EventDedupTTLHrs)*time.Hour)

	mailer := notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort,
		cfg.EmailUser, cfg.EmailPass, cfg.EmailFrom, logger)
	dispatcher := notification.NewEmailDispatcher(mailer, logger)
	defer dispatcher.Close()

	qikinkClient := qikink.NewClient(cfg.QikinkAPIBase, cfg.QikinkAPIKey, cfg.QikinkMerchantID, logger)

	verifier := webhook.NewVerifier(cfg.ShopifyWebhookSecret, cfg.QikinkWebhookSecret,
		cfg.RazorpayWebhookSecret, cfg.RazorpaySecret)
	normalizer := webhook.NewNormalizer(logger)

	reconciler := service.NewReconciler(orderRepo, paymentRepo, eventRepo,
		qikinkClient, dispatcher, producer, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, verifier, reconciler, logger)

	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	webhookHandler := handler.NewWebhookHandler(verifier, normalizer, reconciler, logger)

	// Setup Gin Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	// Routes
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/shopify", webhookHandler.HandleShopify)
		webhooks.POST("/qikink", webhookHandler.HandleQikink)
		webhooks.POST("/payment", webhookHandler.HandlePayment)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", orderHandler.CreateOrder)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.POST("/payments", paymentHandler.InitiatePayment)
		v1.POST("/payments/verify", paymentHandler.VerifyPayment)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"service": "qr-marketplace",
				"port":    cfg.Port,
			})
		})
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
