package payments

import (
	"strings"
	"time"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

// PaymentStatus is the finite-state field of an order payment.
type PaymentStatus string

const (
	StatusFailed   PaymentStatus = "PAYMENT_FAILED"
	StatusAccepted PaymentStatus = "PAYMENT_ACCEPTED"
	StatusRejected PaymentStatus = "PAYMENT_REJECTED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Failure kinds reported by this package.
const (
	PaymentAlreadyAcceptedError result.FailureKind = "PaymentAlreadyAcceptedError"
	PaymentAlreadyRejectedError result.FailureKind = "PaymentAlreadyRejectedError"
	PaymentFailedError          result.FailureKind = "PaymentFailedError"
	OrderPaymentNotFoundError   result.FailureKind = "OrderPaymentNotFoundError"
)

// MissingPaymentIDPrefix prefixes the payment id recorded when the gateway returned
// none, so the record stays diagnosable without stopping the pipeline.
const MissingPaymentIDPrefix = "ERROR:ORDER_ID:"

// MissingPaymentID returns the placeholder payment id for orderID.
func MissingPaymentID(orderID string) string {
	return MissingPaymentIDPrefix + orderID
}

// IsMissingPaymentID reports whether id is a placeholder from MissingPaymentID.
func IsMissingPaymentID(id string) bool {
	return strings.HasPrefix(id, MissingPaymentIDPrefix)
}

// OrderPayment is the payment record persisted per order in the payments table.
// order_id, sku, units, price, user_id and created_at never change after creation.
type OrderPayment struct {
	OrderID        string        `dynamodbav:"order_id" json:"order_id" validate:"required,min=4"` // PK
	SKU            string        `dynamodbav:"sku" json:"sku" validate:"required,min=4"`
	Units          int           `dynamodbav:"units" json:"units" validate:"min=1"`
	Price          float64       `dynamodbav:"price" json:"price" validate:"min=0"`
	UserID         string        `dynamodbav:"user_id" json:"user_id" validate:"required,min=4"`
	CreatedAt      time.Time     `dynamodbav:"created_at" json:"created_at" validate:"required"`
	UpdatedAt      time.Time     `dynamodbav:"updated_at" json:"updated_at" validate:"required"`
	PaymentID      string        `dynamodbav:"payment_id" json:"payment_id" validate:"required,min=4"`
	PaymentStatus  PaymentStatus `dynamodbav:"payment_status" json:"payment_status" validate:"required,oneof=PAYMENT_FAILED PAYMENT_ACCEPTED PAYMENT_REJECTED"`
	PaymentRetries int           `dynamodbav:"payment_retries" json:"payment_retries" validate:"min=0"`
}
