package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// ErrMissingCondition is returned when a guarded write is issued without a guard.
var ErrMissingCondition = errors.New("conditional write requires a condition expression")

// WriteOutcome is the tagged result of a guarded single-key write: either the write was
// applied, or the guard rejected it and Previous holds the item as it was stored
// (empty if no item existed). Attributes holds what the applied write returned, as
// selected by the input's ReturnValues.
type WriteOutcome struct {
	Applied    bool
	Previous   map[string]types.AttributeValue
	Attributes map[string]types.AttributeValue
}

// PutIfAbsent issues a guarded PutItem. A failed guard is not an error; it is reported
// through WriteOutcome together with the stored item.
func PutIfAbsent(ctx context.Context, client DynamoDBAPI, input *dynamodb.PutItemInput) (WriteOutcome, error) {
	if input.ConditionExpression == nil || *input.ConditionExpression == "" {
		return WriteOutcome{}, ErrMissingCondition
	}
	input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld

	_, err := client.PutItem(ctx, input)
	return writeOutcome(err, "put item")
}

// UpdateIf issues a guarded UpdateItem with the same reporting as PutIfAbsent.
func UpdateIf(ctx context.Context, client DynamoDBAPI, input *dynamodb.UpdateItemInput) (WriteOutcome, error) {
	if input.ConditionExpression == nil || *input.ConditionExpression == "" {
		return WriteOutcome{}, ErrMissingCondition
	}
	input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld

	out, err := client.UpdateItem(ctx, input)
	outcome, err := writeOutcome(err, "update item")
	if outcome.Applied && out != nil {
		outcome.Attributes = out.Attributes
	}
	return outcome, err
}

func writeOutcome(err error, op string) (WriteOutcome, error) {
	if err == nil {
		return WriteOutcome{Applied: true}, nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return WriteOutcome{Previous: ccf.Item}, nil
	}
	return WriteOutcome{}, fmt.Errorf("%s: %w", op, err)
}

// ErrorCode returns the service error code carried by err, or "" when err did not come
// from an AWS API call.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
