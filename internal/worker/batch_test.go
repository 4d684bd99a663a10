package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

func batch(ids ...string) events.SQSEvent {
	ev := events.SQSEvent{}
	for _, id := range ids {
		ev.Records = append(ev.Records, events.SQSMessage{MessageId: id, Body: id})
	}
	return ev
}

func failureIDs(resp events.SQSEventResponse) []string {
	ids := make([]string, 0, len(resp.BatchItemFailures))
	for _, f := range resp.BatchItemFailures {
		ids = append(ids, f.ItemIdentifier)
	}
	return ids
}

func TestProcessSQSBatch_OnlyTransientFailuresAreRetried(t *testing.T) {
	outcomes := map[string]result.Result[struct{}]{
		"m1": result.Ok(),
		"m2": result.Fail[struct{}](result.InvalidArgumentsError, errors.New("bad body"), false),
		"m3": result.Fail[struct{}](result.UnrecognizedError, errors.New("throttled"), true),
		"m4": result.Ok(),
	}
	var seen []string
	handle := func(ctx context.Context, msg events.SQSMessage) result.Result[struct{}] {
		seen = append(seen, msg.MessageId)
		return outcomes[msg.MessageId]
	}

	resp, summary := ProcessSQSBatch(context.Background(), batch("m1", "m2", "m3", "m4"), handle, zap.NewNop())

	assert.Equal(t, []string{"m3"}, failureIDs(resp))
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, seen)
	assert.Equal(t, BatchSummary{Received: 4, Handled: 2, Dropped: 1, Retried: 1}, summary)
}

func TestProcessSQSBatch_AllSucceed(t *testing.T) {
	handle := func(ctx context.Context, msg events.SQSMessage) result.Result[struct{}] { return result.Ok() }

	resp, summary := ProcessSQSBatch(context.Background(), batch("m1", "m2"), handle, zap.NewNop())
	require.NotNil(t, resp.BatchItemFailures)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Equal(t, 2, summary.Handled)
}

func TestProcessSQSBatch_DuplicateIDsListedOnce(t *testing.T) {
	handle := func(ctx context.Context, msg events.SQSMessage) result.Result[struct{}] {
		return result.Fail[struct{}](result.UnrecognizedError, nil, true)
	}

	resp, summary := ProcessSQSBatch(context.Background(), batch("m1", "m1", "m2"), handle, zap.NewNop())
	assert.Equal(t, []string{"m1", "m2"}, failureIDs(resp))
	assert.Equal(t, 3, summary.Retried)
}

func TestProcessSQSBatch_PanicIsRetriedAndBatchContinues(t *testing.T) {
	handle := func(ctx context.Context, msg events.SQSMessage) result.Result[struct{}] {
		if msg.MessageId == "m1" {
			panic("nil map")
		}
		return result.Ok()
	}

	resp, summary := ProcessSQSBatch(context.Background(), batch("m1", "m2"), handle, zap.NewNop())
	assert.Equal(t, []string{"m1"}, failureIDs(resp))
	assert.Equal(t, 1, summary.Handled)
}

func TestBatchSummaryCounts(t *testing.T) {
	c := BatchSummary{Received: 3, Handled: 1, Dropped: 1, Retried: 1}.Counts()
	assert.Equal(t, 3.0, c["MessagesReceived"])
	assert.Len(t, c, 4)
}
