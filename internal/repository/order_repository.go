package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	pkgconfig "github.com/sagarsonar2508/QR-MARKET-PLACE/pkg/config"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderExists     = errors.New("order already exists")
	ErrVersionConflict = errors.New("order version conflict")
)

const (
	gsiUser    = "GSI1"
	gsiShopify = "GSI2"
	gsiQikink  = "GSI3"
)

// OrderRepository stores orders in a single DynamoDB table:
// PK=ORDER#<id> SK=METADATA, with GSIs keyed by user id and by the
// Shopify / Qikink correlation ids.
type OrderRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoDBClient(cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}

	if cfg.DynamoDBEndpoint != "" {
		return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}), nil
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

func NewOrderRepository(client *dynamodb.Client, tableName string) *OrderRepository {
	return &OrderRepository{
		client:    client,
		tableName: tableName,
	}
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", orderID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func (r *OrderRepository) marshalOrder(order *domain.Order) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	av["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", order.OrderID)}
	av["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}
	av["GSI1PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", order.UserID)}
	av["GSI1SK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", order.CreatedAt.Format(time.RFC3339))}
	if order.ShopifyOrderID != "" {
		av["GSI2PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("SHOPIFY#%s", order.ShopifyOrderID)}
	}
	if order.QikinkOrderID != "" {
		av["GSI3PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("QIKINK#%s", order.QikinkOrderID)}
	}
	return av, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	av, err := r.marshalOrder(order)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrOrderExists
		}
		return fmt.Errorf("failed to put order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            orderKey(orderID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, ErrOrderNotFound
	}

	var order domain.Order
	if err := attributevalue.UnmarshalMap(out.Item, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetOrderByShopifyOrderID(ctx context.Context, shopifyOrderID string) (*domain.Order, error) {
	return r.queryByGSI(ctx, gsiShopify, "GSI2PK", fmt.Sprintf("SHOPIFY#%s", shopifyOrderID))
}

func (r *OrderRepository) GetOrderByQikinkOrderID(ctx context.Context, qikinkOrderID string) (*domain.Order, error) {
	return r.queryByGSI(ctx, gsiQikink, "GSI3PK", fmt.Sprintf("QIKINK#%s", qikinkOrderID))
}

func (r *OrderRepository) queryByGSI(ctx context.Context, index, keyAttr, keyValue string) (*domain.Order, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": keyAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: keyValue},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, ErrOrderNotFound
	}

	var order domain.Order
	if err := attributevalue.UnmarshalMap(out.Items[0], &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderVersioned writes the order back conditional on the version it
// was read at, then bumps the version. A conditional-check failure means a
// concurrent writer won; callers re-read and retry a bounded number of
// times.
func (r *OrderRepository) UpdateOrderVersioned(ctx context.Context, order *domain.Order) error {
	readVersion := order.Version
	order.Version = readVersion + 1
	order.UpdatedAt = time.Now().UTC()

	av, err := r.marshalOrder(order)
	if err != nil {
		order.Version = readVersion
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", readVersion)},
		},
	})
	if err != nil {
		order.Version = readVersion
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}
