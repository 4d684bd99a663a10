package payments

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/events"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

type paymentStore interface {
	GetOrderPayment(ctx context.Context, cmd *GetOrderPaymentCommand) result.Result[*OrderPayment]
	RecordOrderPayment(ctx context.Context, cmd *RecordOrderPaymentCommand) result.Result[*OrderPayment]
}

type eventForwarder interface {
	Forward(ctx context.Context, ev events.Event) result.Result[struct{}]
}

var errPaymentDeclinedTransiently = errors.New("gateway reported a failed payment")

// Service runs payment attempts for placed orders.
type Service struct {
	store     paymentStore
	gateway   Gateway
	forwarder eventForwarder
	logger    *zap.Logger
}

func NewService(store paymentStore, gateway Gateway, forwarder eventForwarder, logger *zap.Logger) *Service {
	return &Service{store: store, gateway: gateway, forwarder: forwarder, logger: logger}
}

// GetOrderPayment returns the payment record of an order.
func (s *Service) GetOrderPayment(ctx context.Context, input *GetOrderPaymentInput) result.Result[*OrderPayment] {
	cmd := BuildGetOrderPaymentCommand(input)
	if cmd.IsFailure() {
		return result.Propagate[*OrderPayment](cmd)
	}
	return s.store.GetOrderPayment(ctx, cmd.MustValue())
}

// ProcessOrderPayment charges the order once and records the outcome. It is safe to run
// for the same order any number of times and concurrently: a terminal outcome is never
// overwritten and a late duplicate resolves to success.
//
// A PAYMENT_FAILED attempt is recorded and reported as a transient PaymentFailedError so
// the delivery is retried.
func (s *Service) ProcessOrderPayment(ctx context.Context, cmd *ProcessOrderPaymentCommand) result.Result[*OrderPayment] {
	data := cmd.Data()
	log := s.logger.With(zap.String("order_id", data.OrderID))

	existing, got := s.readPayment(ctx, data.OrderID)
	if got.IsFailure() {
		log.Error("failed to read order payment",
			zap.String("aws_error_code", aws.ErrorCode(got.Failure())),
			zap.Error(got.Failure()))
		return result.Propagate[*OrderPayment](got)
	}
	if existing != nil && existing.PaymentStatus.IsTerminal() {
		log.Info("payment already final", zap.String("payment_status", string(existing.PaymentStatus)))
		if fwd := s.forwardOutcome(ctx, existing); fwd.IsFailure() {
			return result.Propagate[*OrderPayment](fwd)
		}
		return result.Success(existing)
	}

	fields := &NewOrderPaymentFields{
		OrderID: data.OrderID,
		SKU:     data.SKU,
		Units:   data.Units,
		Price:   data.Price,
		UserID:  data.UserID,
	}
	charge, err := s.gateway.Charge(ctx, ChargeRequest{
		OrderID: data.OrderID,
		UserID:  data.UserID,
		Amount:  Amount(data.Price, data.Units),
	})
	if err != nil {
		log.Warn("payment gateway call failed", zap.Error(err))
		fields.PaymentStatus = StatusFailed
	} else {
		fields.PaymentStatus = charge.Status
		if charge.PaymentID != "" {
			fields.PaymentID = &charge.PaymentID
		}
	}

	rec := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{
		Existing: existing,
		New:      fields,
		Options:  cmd.Options(),
	})
	if rec.IsFailure() {
		if isAlreadyFinal(rec.Failure()) {
			return s.resolveFinal(ctx, data.OrderID, log)
		}
		return result.Propagate[*OrderPayment](rec)
	}
	recCmd := rec.MustValue()

	stored := s.store.RecordOrderPayment(ctx, recCmd)
	if stored.IsFailure() {
		if isAlreadyFinal(stored.Failure()) {
			return s.resolveFinal(ctx, data.OrderID, log)
		}
		log.Error("failed to record order payment",
			zap.String("aws_error_code", aws.ErrorCode(stored.Failure())),
			zap.Error(stored.Failure()))
		return result.Propagate[*OrderPayment](stored)
	}

	next := stored.MustValue()
	log.Info("order payment recorded",
		zap.String("payment_status", string(next.PaymentStatus)),
		zap.Int("payment_retries", next.PaymentRetries))

	if next.PaymentStatus == StatusFailed {
		cause := err
		if cause == nil {
			cause = errPaymentDeclinedTransiently
		}
		return result.Fail[*OrderPayment](PaymentFailedError,
			fmt.Errorf("payment for order %s failed on attempt %d: %w", next.OrderID, next.PaymentRetries+1, cause), true)
	}
	if fwd := s.forwardOutcome(ctx, next); fwd.IsFailure() {
		return result.Propagate[*OrderPayment](fwd)
	}
	return result.Success(next)
}

// readPayment returns the stored record, or nil with a success when none exists yet.
func (s *Service) readPayment(ctx context.Context, orderID string) (*OrderPayment, result.Result[struct{}]) {
	cmd := BuildGetOrderPaymentCommand(&GetOrderPaymentInput{OrderID: orderID})
	if cmd.IsFailure() {
		return nil, result.Propagate[struct{}](cmd)
	}
	got := s.store.GetOrderPayment(ctx, cmd.MustValue())
	switch {
	case got.IsSuccess():
		return got.MustValue(), result.Ok()
	case got.IsFailureOfKind(OrderPaymentNotFoundError):
		return nil, result.Ok()
	default:
		return nil, result.Propagate[struct{}](got)
	}
}

// resolveFinal handles a writer that lost the race to a terminal outcome. The winner
// forwards the outcome event; this one only reports the stored record.
func (s *Service) resolveFinal(ctx context.Context, orderID string, log *zap.Logger) result.Result[*OrderPayment] {
	log.Info("payment finalized by another attempt")
	existing, got := s.readPayment(ctx, orderID)
	if got.IsFailure() {
		return result.Propagate[*OrderPayment](got)
	}
	if existing == nil {
		return result.Failf[*OrderPayment](result.UnrecognizedError, true, "payment for order %s vanished after a terminal write", orderID)
	}
	return result.Success(existing)
}

// forwardOutcome sends the accepted or rejected event. An outcome without a gateway
// payment id is still forwarded, but flagged in the logs for reconciliation.
func (s *Service) forwardOutcome(ctx context.Context, p *OrderPayment) result.Result[struct{}] {
	if IsMissingPaymentID(p.PaymentID) {
		s.logger.Warn("final payment has no gateway payment id",
			zap.String("order_id", p.OrderID),
			zap.String("payment_status", string(p.PaymentStatus)),
			zap.String("payment_id", p.PaymentID))
	}
	name := events.OrderPaymentAccepted
	if p.PaymentStatus == StatusRejected {
		name = events.OrderPaymentRejected
	}
	return s.forwarder.Forward(ctx, events.NewOrderPaymentEvent(name, events.OrderPaymentData{
		OrderID:       p.OrderID,
		SKU:           p.SKU,
		Units:         p.Units,
		Price:         p.Price,
		UserID:        p.UserID,
		PaymentID:     p.PaymentID,
		PaymentStatus: string(p.PaymentStatus),
	}))
}

func isAlreadyFinal(f *result.Failure) bool {
	return f != nil && (f.Kind == PaymentAlreadyAcceptedError || f.Kind == PaymentAlreadyRejectedError)
}
