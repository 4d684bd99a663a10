package payments

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrGatewayUnavailable is returned by FakeGateway for a simulated outage.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type ChargeRequest struct {
	OrderID string
	UserID  string
	Amount  decimal.Decimal
}

type ChargeResponse struct {
	PaymentID string
	Status    PaymentStatus
}

// Gateway charges an order. An error means the outcome is unknown and the charge may
// be retried.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error)
}

// FakeGateway is an in-process payment provider. It rejects amounts above a limit,
// fails at random with the configured rate and otherwise accepts. Decisions are
// remembered per order, so a repeated charge returns the first decision.
type FakeGateway struct {
	rejectAbove decimal.Decimal
	failureRate float64
	roll        func() float64

	mu      sync.Mutex
	charges map[string]ChargeResponse
}

func NewFakeGateway(rejectAbove, failureRate float64) *FakeGateway {
	return &FakeGateway{
		rejectAbove: decimal.NewFromFloat(rejectAbove),
		failureRate: failureRate,
		roll:        rand.Float64,
		charges:     map[string]ChargeResponse{},
	}
}

func (g *FakeGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResponse{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.charges[req.OrderID]; ok {
		return prev, nil
	}
	if g.failureRate > 0 && g.roll() < g.failureRate {
		return ChargeResponse{}, ErrGatewayUnavailable
	}

	resp := ChargeResponse{PaymentID: uuid.NewString(), Status: StatusAccepted}
	if req.Amount.GreaterThan(g.rejectAbove) {
		resp.Status = StatusRejected
	}
	g.charges[req.OrderID] = resp
	return resp, nil
}

// Amount is price times units, computed without float rounding drift.
func Amount(price float64, units int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(units)))
}
