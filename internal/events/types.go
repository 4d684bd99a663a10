package events

import (
	"time"

	"github.com/google/uuid"
)

// EventName identifies the event type. Together with the subject id it is the event's
// identity: one (subject, name) pair is stored at most once.
type EventName string

const (
	OrderPlaced          EventName = "ORDER_PLACED"
	OrderPaymentAccepted EventName = "ORDER_PAYMENT_ACCEPTED"
	OrderPaymentRejected EventName = "ORDER_PAYMENT_REJECTED"
)

// Event is the shape persisted in the event store table and sent on the queues.
type Event struct {
	SubjectID string                 `dynamodbav:"subject_id" json:"subject_id"` // PK
	EventName EventName              `dynamodbav:"event_name" json:"event_name"` // SK
	EventID   string                 `dynamodbav:"event_id" json:"event_id"`
	EventData map[string]interface{} `dynamodbav:"event_data" json:"event_data"`
	CreatedAt time.Time              `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time              `dynamodbav:"updated_at" json:"updated_at"`
}

// OrderPlacedData is the payload of an ORDER_PLACED event.
type OrderPlacedData struct {
	OrderID string  `json:"order_id"`
	SKU     string  `json:"sku"`
	Units   int     `json:"units"`
	Price   float64 `json:"price"`
	UserID  string  `json:"user_id"`
}

// OrderPaymentData is the payload of ORDER_PAYMENT_ACCEPTED / ORDER_PAYMENT_REJECTED.
type OrderPaymentData struct {
	OrderID       string  `json:"order_id"`
	SKU           string  `json:"sku"`
	Units         int     `json:"units"`
	Price         float64 `json:"price"`
	UserID        string  `json:"user_id"`
	PaymentID     string  `json:"payment_id"`
	PaymentStatus string  `json:"payment_status"`
}

// NewOrderPlacedEvent builds the ORDER_PLACED event for an order.
func NewOrderPlacedEvent(d OrderPlacedData) Event {
	return Event{
		SubjectID: d.OrderID,
		EventName: OrderPlaced,
		EventData: map[string]interface{}{
			"order_id": d.OrderID,
			"sku":      d.SKU,
			"units":    d.Units,
			"price":    d.Price,
			"user_id":  d.UserID,
		},
	}
}

// NewOrderPaymentEvent builds an accepted or rejected payment event.
func NewOrderPaymentEvent(name EventName, d OrderPaymentData) Event {
	return Event{
		SubjectID: d.OrderID,
		EventName: name,
		EventData: map[string]interface{}{
			"order_id":       d.OrderID,
			"sku":            d.SKU,
			"units":          d.Units,
			"price":          d.Price,
			"user_id":        d.UserID,
			"payment_id":     d.PaymentID,
			"payment_status": d.PaymentStatus,
		},
	}
}

// OrderPlacedMessage is how a worker decodes an ORDER_PLACED event from a queue body.
type OrderPlacedMessage struct {
	SubjectID string          `json:"subject_id"`
	EventName EventName       `json:"event_name"`
	EventID   string          `json:"event_id"`
	EventData OrderPlacedData `json:"event_data"`
}

// Stamped fills the event id and timestamps that the producer left empty.
func (e Event) Stamped(now time.Time) Event {
	now = now.UTC()
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	return e
}
