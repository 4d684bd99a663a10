package orders

import (
	"errors"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
	"github.com/imrishuroy/go-idempotent-payflow/internal/validation"
)

const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

var validate = validation.New()

func invalid[T any](err error) result.Result[T] {
	return result.Fail[T](result.InvalidArgumentsError, errors.New(validation.Describe(err)), false)
}

func copyOptions(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var errNilInput = errors.New("input is required")

// PlaceOrderInput is the raw request to place an order. Numbers are pointers so that a
// missing value is told apart from zero.
type PlaceOrderInput struct {
	OrderID string         `json:"order_id" validate:"required,min=4"`
	SKU     string         `json:"sku" validate:"required,min=4"`
	Units   *float64       `json:"units" validate:"required,integer,min=1"`
	Price   *float64       `json:"price" validate:"required,min=0"`
	UserID  string         `json:"user_id" validate:"required,min=4"`
	Options map[string]any `json:"-" validate:"-"`
}

type PlaceOrderData struct {
	OrderID string
	SKU     string
	Units   int
	Price   float64
	UserID  string
}

type PlaceOrderCommand struct {
	data    PlaceOrderData
	options map[string]any
}

func (c *PlaceOrderCommand) Data() PlaceOrderData { return c.data }
func (c *PlaceOrderCommand) Options() map[string]any { return c.options }

func BuildPlaceOrderCommand(input *PlaceOrderInput) result.Result[*PlaceOrderCommand] {
	if input == nil {
		return invalid[*PlaceOrderCommand](errNilInput)
	}
	in := *input
	in.OrderID = validation.Normalize(in.OrderID)
	in.SKU = validation.Normalize(in.SKU)
	in.UserID = validation.Normalize(in.UserID)
	if err := validate.Struct(in); err != nil {
		return invalid[*PlaceOrderCommand](err)
	}
	return result.Success(&PlaceOrderCommand{
		data: PlaceOrderData{
			OrderID: in.OrderID,
			SKU:     in.SKU,
			Units:   int(*in.Units),
			Price:   *in.Price,
			UserID:  in.UserID,
		},
		options: copyOptions(in.Options),
	})
}

type GetOrderInput struct {
	OrderID string `json:"order_id" validate:"required,min=4"`
}

type GetOrderCommand struct {
	orderID string
}

func (c *GetOrderCommand) OrderID() string { return c.orderID }

func BuildGetOrderCommand(input *GetOrderInput) result.Result[*GetOrderCommand] {
	if input == nil {
		return invalid[*GetOrderCommand](errNilInput)
	}
	in := *input
	in.OrderID = validation.Normalize(in.OrderID)
	if err := validate.Struct(in); err != nil {
		return invalid[*GetOrderCommand](err)
	}
	return result.Success(&GetOrderCommand{orderID: in.OrderID})
}

// ListOrdersInput pages through orders by creation time. Limit defaults to
// DefaultListLimit and Sort to "desc".
type ListOrdersInput struct {
	Limit *int   `json:"limit" form:"limit" validate:"-"`
	Sort  string `json:"sort" form:"sort" validate:"omitempty,oneof=asc desc"`
}

type ListOrdersData struct {
	Limit     int
	Ascending bool
}

type ListOrdersCommand struct {
	data ListOrdersData
}

func (c *ListOrdersCommand) Data() ListOrdersData { return c.data }

func BuildListOrdersCommand(input *ListOrdersInput) result.Result[*ListOrdersCommand] {
	in := ListOrdersInput{}
	if input != nil {
		in = *input
	}
	in.Sort = validation.Normalize(in.Sort)
	if err := validate.Struct(in); err != nil {
		return invalid[*ListOrdersCommand](err)
	}

	limit := DefaultListLimit
	if in.Limit != nil {
		if err := validate.Var(*in.Limit, "min=1,max=100"); err != nil {
			return result.Failf[*ListOrdersCommand](result.InvalidArgumentsError, false, "limit: must be between 1 and %d", MaxListLimit)
		}
		limit = *in.Limit
	}
	return result.Success(&ListOrdersCommand{data: ListOrdersData{
		Limit:     limit,
		Ascending: in.Sort == "asc",
	}})
}
