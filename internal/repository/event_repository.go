package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

var ErrEventAlreadyApplied = errors.New("webhook event already applied")

// EventRepository records applied webhook fingerprints for deduplication.
// Rows carry a TTL attribute so the table only holds the dedup horizon,
// not a permanent event log.
type EventRepository struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
}

func NewEventRepository(client *dynamodb.Client, tableName string, ttl time.Duration) *EventRepository {
	return &EventRepository{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
	}
}

func eventKey(fingerprint string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("EVENT#%s", fingerprint)},
		"SK": &types.AttributeValueMemberS{Value: "APPLIED"},
	}
}

// WasApplied reports whether the fingerprint has already produced an
// effective transition.
func (r *EventRepository) WasApplied(ctx context.Context, fingerprint string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            eventKey(fingerprint),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	return len(out.Item) > 0, nil
}

// MarkApplied records the fingerprint. The conditional put makes the
// record-once semantics hold across instances without a lock.
func (r *EventRepository) MarkApplied(ctx context.Context, fingerprint string, ev domain.CanonicalEvent) error {
	now := time.Now().UTC()
	item := eventKey(fingerprint)
	item["provider"] = &types.AttributeValueMemberS{Value: string(ev.Provider)}
	item["external_order_id"] = &types.AttributeValueMemberS{Value: ev.ExternalOrderID}
	item["raw_status"] = &types.AttributeValueMemberS{Value: ev.RawStatus}
	item["applied_at"] = &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)}
	item["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(r.ttl).Unix())}

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrEventAlreadyApplied
		}
		return fmt.Errorf("failed to record event fingerprint: %w", err)
	}
	return nil
}
