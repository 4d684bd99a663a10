package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	appevents "github.com/imrishuroy/go-idempotent-payflow/internal/events"
	"github.com/imrishuroy/go-idempotent-payflow/internal/payments"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
	"github.com/imrishuroy/go-idempotent-payflow/internal/worker"
)

type paymentProcessor interface {
	ProcessOrderPayment(ctx context.Context, cmd *payments.ProcessOrderPaymentCommand) result.Result[*payments.OrderPayment]
}

type metricsPublisher interface {
	PutCounts(ctx context.Context, counts map[string]float64, dimensions map[string]string) error
}

// Processor turns ORDER_PLACED messages into payment attempts.
type Processor struct {
	payments paymentProcessor
	metrics  metricsPublisher
	logger   *zap.Logger
	function string
}

// NewProcessor creates a Processor. A nil metrics publisher disables metrics.
func NewProcessor(p paymentProcessor, metrics metricsPublisher, logger *zap.Logger, function string) *Processor {
	return &Processor{payments: p, metrics: metrics, logger: logger, function: function}
}

// Handle processes an SQS batch and reports the messages to redeliver. It never returns
// an error, so a bad message cannot fail the whole batch.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	resp, summary := worker.ProcessSQSBatch(ctx, ev, p.processMessage, p.logger)

	if p.metrics != nil {
		if err := p.metrics.PutCounts(ctx, summary.Counts(), map[string]string{"Function": p.function}); err != nil {
			p.logger.Warn("failed to publish batch metrics", zap.Error(err))
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) result.Result[struct{}] {
	var msg appevents.OrderPlacedMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return result.Fail[struct{}](result.InvalidArgumentsError, fmt.Errorf("invalid message body: %w", err), false)
	}
	if msg.EventName != appevents.OrderPlaced {
		return result.Failf[struct{}](result.InvalidArgumentsError, false, "unexpected event %q", msg.EventName)
	}

	cmd := payments.BuildProcessOrderPaymentCommand(&payments.ProcessOrderPaymentInput{
		OrderID: msg.EventData.OrderID,
		SKU:     msg.EventData.SKU,
		Units:   msg.EventData.Units,
		Price:   msg.EventData.Price,
		UserID:  msg.EventData.UserID,
		Options: map[string]any{"event_id": msg.EventID, "message_id": rec.MessageId},
	})
	if cmd.IsFailure() {
		return result.Propagate[struct{}](cmd)
	}

	p.logger.Debug("processing order payment",
		zap.String("order_id", msg.EventData.OrderID),
		zap.String("event_id", msg.EventID))

	if r := p.payments.ProcessOrderPayment(ctx, cmd.MustValue()); r.IsFailure() {
		return result.Propagate[struct{}](r)
	}
	return result.Ok()
}
