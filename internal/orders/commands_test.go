package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

func TestBuildPlaceOrderCommand(t *testing.T) {
	valid := func() PlaceOrderInput {
		return PlaceOrderInput{OrderID: " ORDER0001 ", SKU: "SKU-0001", Units: f(2), Price: f(0), UserID: "USER0001"}
	}

	in := valid()
	r := BuildPlaceOrderCommand(&in)
	require.True(t, r.IsSuccess())
	assert.Equal(t, PlaceOrderData{OrderID: "ORDER0001", SKU: "SKU-0001", Units: 2, Price: 0, UserID: "USER0001"}, r.MustValue().Data())

	tests := []struct {
		name    string
		mutate  func(*PlaceOrderInput)
		wantErr string
	}{
		{name: "blank order id", mutate: func(i *PlaceOrderInput) { i.OrderID = "    " }, wantErr: "order_id: required"},
		{name: "short sku", mutate: func(i *PlaceOrderInput) { i.SKU = "SK" }, wantErr: "sku: min=4"},
		{name: "missing units", mutate: func(i *PlaceOrderInput) { i.Units = nil }, wantErr: "units: required"},
		{name: "fractional units", mutate: func(i *PlaceOrderInput) { i.Units = f(1.5) }, wantErr: "units: integer"},
		{name: "missing price", mutate: func(i *PlaceOrderInput) { i.Price = nil }, wantErr: "price: required"},
		{name: "negative price", mutate: func(i *PlaceOrderInput) { i.Price = f(-1) }, wantErr: "price: min=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			r := BuildPlaceOrderCommand(&in)
			require.True(t, r.IsFailureOfKind(result.InvalidArgumentsError))
			assert.False(t, r.IsFailureTransient())
			assert.Equal(t, tt.wantErr, r.Failure().Err.Error())
		})
	}

	assert.True(t, BuildPlaceOrderCommand(nil).IsFailureOfKind(result.InvalidArgumentsError))
}

func TestBuildListOrdersCommand(t *testing.T) {
	r := BuildListOrdersCommand(&ListOrdersInput{})
	require.True(t, r.IsSuccess())
	assert.Equal(t, ListOrdersData{Limit: DefaultListLimit, Ascending: false}, r.MustValue().Data())

	for _, limit := range []int{0, -1, MaxListLimit + 1} {
		l := limit
		assert.True(t, BuildListOrdersCommand(&ListOrdersInput{Limit: &l}).IsFailureOfKind(result.InvalidArgumentsError))
	}
	assert.True(t, BuildListOrdersCommand(&ListOrdersInput{Sort: "up"}).IsFailureOfKind(result.InvalidArgumentsError))

	top := MaxListLimit
	r = BuildListOrdersCommand(&ListOrdersInput{Limit: &top, Sort: "asc"})
	require.True(t, r.IsSuccess())
	assert.Equal(t, ListOrdersData{Limit: MaxListLimit, Ascending: true}, r.MustValue().Data())
}

func TestBuildGetOrderCommand(t *testing.T) {
	assert.True(t, BuildGetOrderCommand(&GetOrderInput{OrderID: "ab"}).IsFailureOfKind(result.InvalidArgumentsError))
	assert.Equal(t, "ORDER0001", BuildGetOrderCommand(&GetOrderInput{OrderID: "ORDER0001"}).MustValue().OrderID())
}
