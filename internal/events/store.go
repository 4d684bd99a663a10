package events

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
)

const raiseCondition = "attribute_not_exists(subject_id)"

// Store records events in the event store table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore returns a Store bound to the event store table.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// RaiseEvent records ev once per (subject, name). A repeated raise returns a *RaiseError
// tagged Redundant and DoNotRetry; any other store error is returned wrapped and is safe
// to retry because the guard makes re-application a no-op.
func (s *Store) RaiseEvent(ctx context.Context, ev Event) error {
	ev = ev.Stamped(s.nowFunc())

	item, err := attributevalue.MarshalMap(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	out, err := aws.PutIfAbsent(ctx, s.client, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(raiseCondition),
	})
	if err != nil {
		return fmt.Errorf("raise event %s for %s: %w", ev.EventName, ev.SubjectID, err)
	}
	if !out.Applied {
		return &RaiseError{
			SubjectID:  ev.SubjectID,
			EventName:  ev.EventName,
			Redundant:  true,
			DoNotRetry: true,
			Err:        ErrEventAlreadyRaised,
		}
	}
	return nil
}

// Get returns the stored event for (subjectID, name), or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, subjectID string, name EventName) (*Event, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"subject_id": &types.AttributeValueMemberS{Value: subjectID},
			"event_name": &types.AttributeValueMemberS{Value: string(name)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var ev Event
	if err := attributevalue.UnmarshalMap(out.Item, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &ev, nil
}

func awsString(s string) *string { return &s }
