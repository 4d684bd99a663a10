package payments

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

// The persisted record may only move while it is absent or not yet terminal.
const recordCondition = "attribute_not_exists(#payment_status) OR " +
	"(#payment_status <> :accepted AND #payment_status <> :rejected)"

// Store persists order payments, one item per order_id.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// GetOrderPayment reads the payment record of an order. An absent record fails with
// OrderPaymentNotFoundError.
func (s *Store) GetOrderPayment(ctx context.Context, cmd *GetOrderPaymentCommand) result.Result[*OrderPayment] {
	orderID := cmd.Data().OrderID
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            orderKey(orderID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return result.Fail[*OrderPayment](result.UnrecognizedError, fmt.Errorf("get order payment %s: %w", orderID, err), true)
	}
	if len(out.Item) == 0 {
		return result.Failf[*OrderPayment](OrderPaymentNotFoundError, false, "no payment recorded for order %s", orderID)
	}

	var p OrderPayment
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return result.Fail[*OrderPayment](result.UnrecognizedError, fmt.Errorf("unmarshal order payment: %w", err), true)
	}
	return result.Success(&p)
}

// RecordOrderPayment applies the command's transition unless the stored record is already
// terminal, in which case it fails with PaymentAlreadyAcceptedError or
// PaymentAlreadyRejectedError based on the stored status.
//
// The stored record wins over the caller's view: fields fixed at creation are only
// written when absent and the retry counter is incremented from its stored value. The
// returned record is the one now stored.
func (s *Store) RecordOrderPayment(ctx context.Context, cmd *RecordOrderPaymentCommand) result.Result[*OrderPayment] {
	rec := cmd.Data()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return result.Fail[*OrderPayment](result.UnrecognizedError, fmt.Errorf("marshal order payment: %w", err), true)
	}

	update, names, values := recordUpdate(item)
	names["#payment_status"] = "payment_status"
	values[":accepted"] = &types.AttributeValueMemberS{Value: string(StatusAccepted)}
	values[":rejected"] = &types.AttributeValueMemberS{Value: string(StatusRejected)}

	out, err := aws.UpdateIf(ctx, s.client, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       orderKey(rec.OrderID),
		UpdateExpression:          &update,
		ConditionExpression:       awsString(recordCondition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return result.Fail[*OrderPayment](result.UnrecognizedError, fmt.Errorf("record order payment %s: %w", rec.OrderID, err), true)
	}
	if out.Applied {
		var stored OrderPayment
		if err := attributevalue.UnmarshalMap(out.Attributes, &stored); err != nil {
			return result.Fail[*OrderPayment](result.UnrecognizedError, fmt.Errorf("unmarshal recorded payment: %w", err), true)
		}
		return result.Success(&stored)
	}

	var previous OrderPayment
	if err := attributevalue.UnmarshalMap(out.Previous, &previous); err != nil {
		return result.Fail[*OrderPayment](result.UnrecognizedError, fmt.Errorf("unmarshal previous payment: %w", err), true)
	}
	switch previous.PaymentStatus {
	case StatusAccepted:
		return result.Failf[*OrderPayment](PaymentAlreadyAcceptedError, false, "payment for order %s was already accepted", rec.OrderID)
	case StatusRejected:
		return result.Failf[*OrderPayment](PaymentAlreadyRejectedError, false, "payment for order %s was already rejected", rec.OrderID)
	default:
		return result.Failf[*OrderPayment](result.UnrecognizedError, true,
			"record order payment %s: write rejected with stored status %q", rec.OrderID, previous.PaymentStatus)
	}
}

// Attributes that never change once the record exists.
var creationAttrs = map[string]bool{
	"sku":        true,
	"units":      true,
	"price":      true,
	"user_id":    true,
	"created_at": true,
}

// recordUpdate builds the SET expression for every attribute of item except the key.
// Creation attributes are kept when present; payment_retries starts at 0 and otherwise
// grows by one from the stored value.
func recordUpdate(item map[string]types.AttributeValue) (string, map[string]string, map[string]types.AttributeValue) {
	attrs := make([]string, 0, len(item))
	for k := range item {
		if k != "order_id" {
			attrs = append(attrs, k)
		}
	}
	sort.Strings(attrs)

	names := make(map[string]string, len(attrs)+1)
	values := make(map[string]types.AttributeValue, len(attrs)+4)
	clauses := make([]string, 0, len(attrs))
	for _, a := range attrs {
		names["#"+a] = a
		switch {
		case a == "payment_retries":
			values[":no_retries"] = &types.AttributeValueMemberN{Value: "-1"}
			values[":one"] = &types.AttributeValueMemberN{Value: "1"}
			clauses = append(clauses, "#payment_retries = if_not_exists(#payment_retries, :no_retries) + :one")
		case creationAttrs[a]:
			values[":"+a] = item[a]
			clauses = append(clauses, fmt.Sprintf("#%s = if_not_exists(#%s, :%s)", a, a, a))
		default:
			values[":"+a] = item[a]
			clauses = append(clauses, fmt.Sprintf("#%s = :%s", a, a))
		}
	}
	return "SET " + strings.Join(clauses, ", "), names, values
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
