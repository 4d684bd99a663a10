// Package worker runs queue batches through a per-message handler and reports which
// messages the queue should redeliver.
package worker

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

// Handler processes one message. A transient failure asks for redelivery; success and
// non-transient failures both mark the message as handled.
type Handler func(ctx context.Context, msg events.SQSMessage) result.Result[struct{}]

// BatchSummary counts what happened to the messages of one batch.
type BatchSummary struct {
	Received int
	Handled  int
	Dropped  int
	Retried  int
}

// Counts returns the summary as metric name to value.
func (s BatchSummary) Counts() map[string]float64 {
	return map[string]float64{
		"MessagesReceived": float64(s.Received),
		"MessagesHandled":  float64(s.Handled),
		"MessagesDropped":  float64(s.Dropped),
		"MessagesRetried":  float64(s.Retried),
	}
}

// ProcessSQSBatch hands every message to handle independently, in order. A failing or
// panicking message never stops the rest of the batch. Only transiently failed messages
// are listed in the response, each at most once.
func ProcessSQSBatch(ctx context.Context, ev events.SQSEvent, handle Handler, logger *zap.Logger) (events.SQSEventResponse, BatchSummary) {
	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	summary := BatchSummary{Received: len(ev.Records)}
	retried := map[string]bool{}

	for _, msg := range ev.Records {
		log := logger.With(zap.String("message_id", msg.MessageId))
		r := safeHandle(ctx, handle, msg)

		switch {
		case r.IsSuccess():
			summary.Handled++
		case r.IsFailureTransient():
			summary.Retried++
			log.Warn("message will be retried", zap.Error(r.Failure()))
			if !retried[msg.MessageId] {
				retried[msg.MessageId] = true
				resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
			}
		default:
			summary.Dropped++
			log.Error("message dropped", zap.String("kind", string(r.Failure().Kind)), zap.Error(r.Failure()))
		}
	}

	logger.Info("batch processed",
		zap.Int("received", summary.Received),
		zap.Int("handled", summary.Handled),
		zap.Int("dropped", summary.Dropped),
		zap.Int("retried", summary.Retried))
	return resp, summary
}

// A panic is reported as a transient failure so the message is redelivered.
func safeHandle(ctx context.Context, handle Handler, msg events.SQSMessage) (r result.Result[struct{}]) {
	defer func() {
		if p := recover(); p != nil {
			r = result.Fail[struct{}](result.UnrecognizedError, fmt.Errorf("panic: %v", p), true)
		}
	}()
	return handle(ctx, msg)
}
