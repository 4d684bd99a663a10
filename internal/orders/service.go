package orders

import (
	"context"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/events"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

type orderStore interface {
	CreateOrder(ctx context.Context, cmd *PlaceOrderCommand) result.Result[*Order]
	GetOrder(ctx context.Context, cmd *GetOrderCommand) result.Result[*Order]
	ListOrders(ctx context.Context, cmd *ListOrdersCommand) result.Result[[]Order]
}

type eventForwarder interface {
	Forward(ctx context.Context, ev events.Event) result.Result[struct{}]
}

// Service places and reads orders. A placed order is announced with an ORDER_PLACED
// event that drives payment processing.
type Service struct {
	store     orderStore
	forwarder eventForwarder
	logger    *zap.Logger
}

func NewService(store orderStore, forwarder eventForwarder, logger *zap.Logger) *Service {
	return &Service{store: store, forwarder: forwarder, logger: logger}
}

// PlaceOrder creates the order and forwards ORDER_PLACED. Placing the same order again
// succeeds and forwards the event again, so a caller may retry after any failure.
func (s *Service) PlaceOrder(ctx context.Context, input *PlaceOrderInput) result.Result[*Order] {
	cmd := BuildPlaceOrderCommand(input)
	if cmd.IsFailure() {
		return result.Propagate[*Order](cmd)
	}

	created := s.store.CreateOrder(ctx, cmd.MustValue())
	if created.IsFailure() {
		return created
	}
	order := created.MustValue()

	fwd := s.forwarder.Forward(ctx, events.NewOrderPlacedEvent(events.OrderPlacedData{
		OrderID: order.OrderID,
		SKU:     order.SKU,
		Units:   order.Units,
		Price:   order.Price,
		UserID:  order.UserID,
	}))
	if fwd.IsFailure() {
		return result.Propagate[*Order](fwd)
	}

	s.logger.Info("order placed", zap.String("order_id", order.OrderID))
	return result.Success(order)
}

func (s *Service) GetOrder(ctx context.Context, input *GetOrderInput) result.Result[*Order] {
	cmd := BuildGetOrderCommand(input)
	if cmd.IsFailure() {
		return result.Propagate[*Order](cmd)
	}
	return s.store.GetOrder(ctx, cmd.MustValue())
}

func (s *Service) ListOrders(ctx context.Context, input *ListOrdersInput) result.Result[[]Order] {
	cmd := BuildListOrdersCommand(input)
	if cmd.IsFailure() {
		return result.Propagate[[]Order](cmd)
	}
	return s.store.ListOrders(ctx, cmd.MustValue())
}
