package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/service"
)

const (
	topicTransitions = "order-transitions"
	topicSyncRetries = "order-sync-retries"
)

// Producer publishes reconciliation events to Kafka. Messages are keyed
// by order id so per-order ordering survives partitioning.
type Producer struct {
	transitions *kafka.Writer
	syncRetries *kafka.Writer
	logger      *zap.Logger
}

func NewProducer(brokers string, logger *zap.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return &Producer{
		transitions: newWriter(topicTransitions),
		syncRetries: newWriter(topicSyncRetries),
		logger:      logger,
	}
}

func (p *Producer) PublishTransition(ctx context.Context, t service.Transition) error {
	event := TransitionAppliedEvent{
		EventID:    uuid.New().String(),
		OrderID:    t.OrderID,
		Provider:   string(t.Provider),
		Transition: t,
		Timestamp:  time.Now().UTC(),
	}
	return p.publish(ctx, p.transitions, t.OrderID, event)
}

func (p *Producer) PublishSyncRetry(ctx context.Context, orderID string, req *domain.QikinkOrderRequest, reason string) error {
	event := QikinkSyncRetryEvent{
		EventID:   uuid.New().String(),
		OrderID:   orderID,
		Request:   req,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	err := p.publish(ctx, p.syncRetries, orderID, event)
	if err == nil {
		p.logger.Info("qikink sync retry queued",
			zap.String("order_id", orderID),
			zap.String("reason", reason))
	}
	return err
}

func (p *Producer) publish(ctx context.Context, w *kafka.Writer, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (p *Producer) Close() error {
	if err := p.transitions.Close(); err != nil {
		return err
	}
	return p.syncRetries.Close()
}
