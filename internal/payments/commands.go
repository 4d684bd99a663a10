package payments

import (
	"errors"
	"time"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
	"github.com/imrishuroy/go-idempotent-payflow/internal/validation"
)

var (
	validate = validation.New()
	nowFunc  = time.Now
)

var errNilInput = errors.New("input is required")

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

// ---- GetOrderPayment ----

type GetOrderPaymentInput struct {
	OrderID string         `json:"order_id" validate:"required,min=4"`
	Options map[string]any `json:"-" validate:"-"`
}

type GetOrderPaymentData struct {
	OrderID string
}

// GetOrderPaymentCommand asks for the payment record of one order.
type GetOrderPaymentCommand struct {
	data    GetOrderPaymentData
	options map[string]any
}

func (c *GetOrderPaymentCommand) Data() GetOrderPaymentData { return c.data }
func (c *GetOrderPaymentCommand) Options() map[string]any { return c.options }

func BuildGetOrderPaymentCommand(input *GetOrderPaymentInput) result.Result[*GetOrderPaymentCommand] {
	if input == nil {
		return invalid[*GetOrderPaymentCommand](errNilInput)
	}
	in := *input
	in.OrderID = validation.Normalize(in.OrderID)
	if err := validate.Struct(in); err != nil {
		return invalid[*GetOrderPaymentCommand](err)
	}
	return result.Success(&GetOrderPaymentCommand{
		data:    GetOrderPaymentData{OrderID: in.OrderID},
		options: copyOptions(in.Options),
	})
}

// ---- RecordOrderPayment ----

// NewOrderPaymentFields are the caller supplied facts of a payment attempt.
type NewOrderPaymentFields struct {
	OrderID       string        `json:"order_id" validate:"required,min=4"`
	SKU           string        `json:"sku" validate:"required,min=4"`
	Units         int           `json:"units" validate:"min=1"`
	Price         float64       `json:"price" validate:"min=0"`
	UserID        string        `json:"user_id" validate:"required,min=4"`
	PaymentID     *string       `json:"payment_id" validate:"-"`
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=PAYMENT_FAILED PAYMENT_ACCEPTED PAYMENT_REJECTED"`
}

// RecordOrderPaymentInput pairs the caller's view of the stored record (nil when it
// has none) with the fields of the new attempt.
type RecordOrderPaymentInput struct {
	Existing *OrderPayment
	New      *NewOrderPaymentFields
	Options  map[string]any
}

// RecordOrderPaymentCommand holds the next payment record to persist.
type RecordOrderPaymentCommand struct {
	data    OrderPayment
	options map[string]any
}

func (c *RecordOrderPaymentCommand) Data() OrderPayment { return c.data }
func (c *RecordOrderPaymentCommand) Options() map[string]any { return c.options }

// BuildRecordOrderPaymentCommand validates the input and computes the next record.
// A terminal existing record fails with PaymentAlreadyAcceptedError or
// PaymentAlreadyRejectedError. This check uses the caller's possibly stale view; the
// store re-checks against the persisted record.
func BuildRecordOrderPaymentCommand(input *RecordOrderPaymentInput) result.Result[*RecordOrderPaymentCommand] {
	if input == nil || input.New == nil {
		return invalid[*RecordOrderPaymentCommand](errNilInput)
	}

	fields := *input.New
	fields.OrderID = validation.Normalize(fields.OrderID)
	fields.SKU = validation.Normalize(fields.SKU)
	fields.UserID = validation.Normalize(fields.UserID)
	fields.PaymentID = validation.NormalizePtr(fields.PaymentID)
	if err := validate.Struct(fields); err != nil {
		return invalid[*RecordOrderPaymentCommand](err)
	}
	if fields.PaymentID != nil {
		if err := validate.Var(*fields.PaymentID, "required,min=4"); err != nil {
			return result.Failf[*RecordOrderPaymentCommand](result.InvalidArgumentsError, false, "payment_id: min=4")
		}
	}

	if input.Existing != nil {
		if err := validate.Struct(*input.Existing); err != nil {
			return result.Failf[*RecordOrderPaymentCommand](result.InvalidArgumentsError, false, "existing record: %s", validation.Describe(err))
		}
		if input.Existing.OrderID != fields.OrderID {
			return result.Failf[*RecordOrderPaymentCommand](result.InvalidArgumentsError, false,
				"existing record is for order %s, not %s", input.Existing.OrderID, fields.OrderID)
		}
	}

	next := computeNextRecord(input.Existing, fields, nowFunc().UTC())
	if next.IsFailure() {
		return result.Propagate[*RecordOrderPaymentCommand](next)
	}
	return result.Success(&RecordOrderPaymentCommand{
		data:    next.MustValue(),
		options: copyOptions(input.Options),
	})
}

func computeNextRecord(existing *OrderPayment, fields NewOrderPaymentFields, now time.Time) result.Result[OrderPayment] {
	paymentID := MissingPaymentID(fields.OrderID)
	if fields.PaymentID != nil {
		paymentID = *fields.PaymentID
	}

	if existing == nil {
		return result.Success(OrderPayment{
			OrderID:        fields.OrderID,
			SKU:            fields.SKU,
			Units:          fields.Units,
			Price:          fields.Price,
			UserID:         fields.UserID,
			CreatedAt:      now,
			UpdatedAt:      now,
			PaymentID:      paymentID,
			PaymentStatus:  fields.PaymentStatus,
			PaymentRetries: 0,
		})
	}

	switch existing.PaymentStatus {
	case StatusRejected:
		return result.Failf[OrderPayment](PaymentAlreadyRejectedError, false, "payment for order %s was already rejected", existing.OrderID)
	case StatusAccepted:
		return result.Failf[OrderPayment](PaymentAlreadyAcceptedError, false, "payment for order %s was already accepted", existing.OrderID)
	}

	next := *existing
	next.UpdatedAt = now
	next.PaymentRetries = existing.PaymentRetries + 1
	next.PaymentID = paymentID
	next.PaymentStatus = fields.PaymentStatus
	return result.Success(next)
}

// ---- ProcessOrderPayment ----

// ProcessOrderPaymentInput is an order awaiting payment, usually decoded from an
// ORDER_PLACED event.
type ProcessOrderPaymentInput struct {
	OrderID string         `json:"order_id" validate:"required,min=4"`
	SKU     string         `json:"sku" validate:"required,min=4"`
	Units   int            `json:"units" validate:"min=1"`
	Price   float64        `json:"price" validate:"min=0"`
	UserID  string         `json:"user_id" validate:"required,min=4"`
	Options map[string]any `json:"-" validate:"-"`
}

type ProcessOrderPaymentData struct {
	OrderID string
	SKU     string
	Units   int
	Price   float64
	UserID  string
}

// ProcessOrderPaymentCommand asks for one payment attempt of an order.
type ProcessOrderPaymentCommand struct {
	data    ProcessOrderPaymentData
	options map[string]any
}

func (c *ProcessOrderPaymentCommand) Data() ProcessOrderPaymentData { return c.data }
func (c *ProcessOrderPaymentCommand) Options() map[string]any { return c.options }

func BuildProcessOrderPaymentCommand(input *ProcessOrderPaymentInput) result.Result[*ProcessOrderPaymentCommand] {
	if input == nil {
		return invalid[*ProcessOrderPaymentCommand](errNilInput)
	}
	in := *input
	in.OrderID = validation.Normalize(in.OrderID)
	in.SKU = validation.Normalize(in.SKU)
	in.UserID = validation.Normalize(in.UserID)
	if err := validate.Struct(in); err != nil {
		return invalid[*ProcessOrderPaymentCommand](err)
	}
	return result.Success(&ProcessOrderPaymentCommand{
		data: ProcessOrderPaymentData{
			OrderID: in.OrderID,
			SKU:     in.SKU,
			Units:   in.Units,
			Price:   in.Price,
			UserID:  in.UserID,
		},
		options: copyOptions(in.Options),
	})
}
