package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
	"github.com/imrishuroy/go-idempotent-payflow/internal/testutil"
)

func TestForwarder_RecordsAndSends(t *testing.T) {
	s, db := newTestStore()
	q := &testutil.FakeSQS{}
	f := NewForwarder(s, aws.NewPublisher(q, "queue"), zap.NewNop())

	r := f.Forward(context.Background(), placed("ORDER0001"))
	require.True(t, r.IsSuccess())
	assert.Equal(t, 1, db.Count(table))

	bodies := q.Bodies()
	require.Len(t, bodies, 1)
	var msg OrderPlacedMessage
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &msg))
	assert.Equal(t, OrderPlaced, msg.EventName)
	assert.NotEmpty(t, msg.EventID)
	assert.Equal(t, 2, msg.EventData.Units)
}

func TestForwarder_RedundantRaiseStillSends(t *testing.T) {
	s, db := newTestStore()
	q := &testutil.FakeSQS{}
	f := NewForwarder(s, aws.NewPublisher(q, "queue"), zap.NewNop())
	ctx := context.Background()

	require.True(t, f.Forward(ctx, placed("ORDER0001")).IsSuccess())
	require.True(t, f.Forward(ctx, placed("ORDER0001")).IsSuccess())

	assert.Equal(t, 1, db.Count(table))
	assert.Len(t, q.Sent, 2)
}

func TestForwarder_Failures(t *testing.T) {
	s, db := newTestStore()
	db.FailNext("PutItem", errors.New("throttled"))
	f := NewForwarder(s, nil, zap.NewNop())

	r := f.Forward(context.Background(), placed("ORDER0001"))
	assert.True(t, r.IsFailureOfKind(result.UnrecognizedError))
	assert.True(t, r.IsFailureTransient())

	q := &testutil.FakeSQS{Err: errors.New("queue down")}
	f = NewForwarder(s, aws.NewPublisher(q, "queue"), zap.NewNop())
	r = f.Forward(context.Background(), placed("ORDER0002"))
	assert.True(t, r.IsFailureTransient())
}

func TestForwarder_NoQueue(t *testing.T) {
	s, db := newTestStore()
	f := NewForwarder(s, nil, zap.NewNop())
	assert.True(t, f.Forward(context.Background(), placed("ORDER0001")).IsSuccess())
	assert.Equal(t, 1, db.Count(table))
}

func TestForwarder_LogsAWSErrorCode(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s, db := newTestStore()
	db.FailNext("PutItem", &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"})
	q := &testutil.FakeSQS{Err: &smithy.GenericAPIError{Code: "AWS.SimpleQueueService.NonExistentQueue"}}
	f := NewForwarder(s, aws.NewPublisher(q, "queue"), zap.New(core))

	assert.True(t, f.Forward(context.Background(), placed("ORDER0001")).IsFailureTransient())
	assert.True(t, f.Forward(context.Background(), placed("ORDER0001")).IsFailureTransient())

	raised := logs.FilterMessage("failed to raise event").All()
	require.Len(t, raised, 1)
	assert.Equal(t, "ProvisionedThroughputExceededException", raised[0].ContextMap()["aws_error_code"])

	sent := logs.FilterMessage("failed to forward event").All()
	require.Len(t, sent, 1)
	assert.Equal(t, "AWS.SimpleQueueService.NonExistentQueue", sent[0].ContextMap()["aws_error_code"])
}
