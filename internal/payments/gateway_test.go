package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeGateway(t *testing.T) {
	g := NewFakeGateway(100, 0)
	ctx := context.Background()

	ok, err := g.Charge(ctx, ChargeRequest{OrderID: "ORDER0001", Amount: Amount(50, 2)})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, ok.Status)
	assert.NotEmpty(t, ok.PaymentID)

	rej, err := g.Charge(ctx, ChargeRequest{OrderID: "ORDER0002", Amount: Amount(50.01, 2)})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rej.Status)

	again, err := g.Charge(ctx, ChargeRequest{OrderID: "ORDER0001", Amount: Amount(500, 2)})
	require.NoError(t, err)
	assert.Equal(t, ok, again)
}

func TestFakeGateway_Outage(t *testing.T) {
	g := NewFakeGateway(100, 0.5)
	g.roll = func() float64 { return 0.1 }

	_, err := g.Charge(context.Background(), ChargeRequest{OrderID: "ORDER0001", Amount: Amount(1, 1)})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	g.roll = func() float64 { return 0.9 }
	resp, err := g.Charge(context.Background(), ChargeRequest{OrderID: "ORDER0001", Amount: Amount(1, 1)})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, resp.Status)
}

func TestAmount(t *testing.T) {
	assert.True(t, decimal.RequireFromString("0.3").Equal(Amount(0.1, 3)))
}
