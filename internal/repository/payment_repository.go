package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("payment already exists for order")
)

// PaymentRepository stores the payment item in the order's partition
// (PK=ORDER#<id> SK=PAYMENT), which makes "at most one payment per order"
// a conditional-put invariant rather than application bookkeeping.
type PaymentRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewPaymentRepository(client *dynamodb.Client, tableName string) *PaymentRepository {
	return &PaymentRepository{
		client:    client,
		tableName: tableName,
	}
}

func paymentKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", orderID)},
		"SK": &types.AttributeValueMemberS{Value: "PAYMENT"},
	}
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	av, err := attributevalue.MarshalMap(payment)
	if err != nil {
		return fmt.Errorf("failed to marshal payment: %w", err)
	}
	av["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", payment.OrderID)}
	av["SK"] = &types.AttributeValueMemberS{Value: "PAYMENT"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrPaymentExists
		}
		return fmt.Errorf("failed to put payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            paymentKey(orderID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, ErrPaymentNotFound
	}

	var payment domain.Payment
	if err := attributevalue.UnmarshalMap(out.Item, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus rewrites the payment's status and provider payment
// id. Callers hold the order lock, so this write is not contended.
func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, providerPaymentID string) error {
	update := "SET #status = :status, updated_at = :now"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(status)},
		":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
	}
	if providerPaymentID != "" {
		update += ", provider_payment_id = :ppid"
		values[":ppid"] = &types.AttributeValueMemberS{Value: providerPaymentID}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 paymentKey(orderID),
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}
