package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	listIndex string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store. listIndex is the GSI keyed by (list_pk, list_sk).
func NewStore(client aws.DynamoDBAPI, tableName, listIndex string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		listIndex: listIndex,
		nowFunc:   time.Now,
	}
}

// CreateOrder stores a new order. If the order id is taken, a stored order with the same
// payload is returned as a success (the request was re-delivered) and a different one
// fails with OrderAlreadyExistsError.
func (s *Store) CreateOrder(ctx context.Context, cmd *PlaceOrderCommand) result.Result[*Order] {
	d := cmd.Data()
	now := s.nowFunc().UTC()
	order := &Order{
		OrderID:   d.OrderID,
		SKU:       d.SKU,
		Units:     d.Units,
		Price:     d.Price,
		UserID:    d.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		ListPK:    ListPartition,
		ListSK:    listSortKey(now, d.OrderID),
	}

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return result.Fail[*Order](result.UnrecognizedError, fmt.Errorf("marshal order: %w", err), true)
	}

	out, err := aws.PutIfAbsent(ctx, s.client, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		return result.Fail[*Order](result.UnrecognizedError, fmt.Errorf("create order %s: %w", d.OrderID, err), true)
	}
	if out.Applied {
		return result.Success(order)
	}

	var existing Order
	if err := attributevalue.UnmarshalMap(out.Previous, &existing); err != nil {
		return result.Fail[*Order](result.UnrecognizedError, fmt.Errorf("unmarshal existing order: %w", err), true)
	}
	if !samePlacement(&existing, order) {
		return result.Failf[*Order](OrderAlreadyExistsError, false, "order %s already exists with different details", d.OrderID)
	}
	return result.Success(&existing)
}

// GetOrder fetches an order by order_id.
func (s *Store) GetOrder(ctx context.Context, cmd *GetOrderCommand) result.Result[*Order] {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: cmd.OrderID()},
		},
	})
	if err != nil {
		return result.Fail[*Order](result.UnrecognizedError, fmt.Errorf("get item: %w", err), true)
	}
	if len(out.Item) == 0 {
		return result.Failf[*Order](OrderNotFoundError, false, "order %s not found", cmd.OrderID())
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return result.Fail[*Order](result.UnrecognizedError, fmt.Errorf("unmarshal order: %w", err), true)
	}
	return result.Success(&o)
}

// ListOrders returns up to Limit orders by creation time.
func (s *Store) ListOrders(ctx context.Context, cmd *ListOrdersCommand) result.Result[[]Order] {
	d := cmd.Data()
	limit := int32(d.Limit)
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                &s.tableName,
		IndexName:                &s.listIndex,
		KeyConditionExpression:   awsString("#list_pk = :list_pk"),
		ExpressionAttributeNames: map[string]string{"#list_pk": "list_pk"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":list_pk": &types.AttributeValueMemberS{Value: ListPartition},
		},
		ScanIndexForward: &d.Ascending,
		Limit:            &limit,
	})
	if err != nil {
		return result.Fail[[]Order](result.UnrecognizedError, fmt.Errorf("query orders: %w", err), true)
	}

	orders := make([]Order, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &orders); err != nil {
		return result.Fail[[]Order](result.UnrecognizedError, fmt.Errorf("unmarshal orders: %w", err), true)
	}
	return result.Success(orders)
}

func awsString(s string) *string { return &s }
