package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

type raiser interface {
	RaiseEvent(ctx context.Context, ev Event) error
}

type sender interface {
	SendJSON(ctx context.Context, v any, attributes map[string]string) error
}

// Forwarder records an event and then hands it to a queue. Recording is idempotent, so a
// re-delivered request re-sends the event; queue consumers are idempotent as well.
type Forwarder struct {
	store  raiser
	queue  sender
	logger *zap.Logger
}

// NewForwarder returns a Forwarder. A nil queue only records events.
func NewForwarder(store raiser, queue sender, logger *zap.Logger) *Forwarder {
	return &Forwarder{store: store, queue: queue, logger: logger}
}

func (f *Forwarder) Forward(ctx context.Context, ev Event) result.Result[struct{}] {
	ev = ev.Stamped(time.Now())
	log := f.logger.With(zap.String("subject_id", ev.SubjectID), zap.String("event_name", string(ev.EventName)))

	if err := f.store.RaiseEvent(ctx, ev); err != nil {
		if !IsRedundantRaise(err) {
			log.Error("failed to raise event", zap.String("aws_error_code", aws.ErrorCode(err)), zap.Error(err))
			return result.Fail[struct{}](result.UnrecognizedError, err, true)
		}
		log.Info("event already raised, forwarding again")
	}

	if f.queue == nil {
		return result.Ok()
	}
	attrs := map[string]string{
		"event_name": string(ev.EventName),
		"subject_id": ev.SubjectID,
	}
	if err := f.queue.SendJSON(ctx, ev, attrs); err != nil {
		log.Error("failed to forward event", zap.String("aws_error_code", aws.ErrorCode(err)), zap.Error(err))
		return result.Fail[struct{}](result.UnrecognizedError, err, true)
	}
	return result.Ok()
}
