package payments

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-idempotent-payflow/internal/testutil"
)

const table = "payments"

var (
	created = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later   = time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
)

func freezeNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = prev })
}

func newTestStore() (*Store, *testutil.FakeDynamo) {
	db := testutil.NewFakeDynamo().CreateTable(table, "order_id", "")
	return NewStore(db, table), db
}

func stored(orderID string, status PaymentStatus, retries int) OrderPayment {
	return OrderPayment{
		OrderID:        orderID,
		SKU:            "SKU-0001",
		Units:          2,
		Price:          10.5,
		UserID:         "USER0001",
		CreatedAt:      created,
		UpdatedAt:      created,
		PaymentID:      "PAY-0001",
		PaymentStatus:  status,
		PaymentRetries: retries,
	}
}

func seed(t *testing.T, db *testutil.FakeDynamo, p OrderPayment) {
	t.Helper()
	item, err := attributevalue.MarshalMap(p)
	require.NoError(t, err)
	db.Seed(table, item)
}

func load(t *testing.T, db *testutil.FakeDynamo, orderID string) *OrderPayment {
	t.Helper()
	item := db.Item(table, orderID)
	if item == nil {
		return nil
	}
	var p OrderPayment
	require.NoError(t, attributevalue.UnmarshalMap(item, &p))
	return &p
}

func fieldsFor(orderID string, status PaymentStatus, paymentID *string) *NewOrderPaymentFields {
	return &NewOrderPaymentFields{
		OrderID:       orderID,
		SKU:           "SKU-0001",
		Units:         2,
		Price:         10.5,
		UserID:        "USER0001",
		PaymentID:     paymentID,
		PaymentStatus: status,
	}
}

func str(s string) *string { return &s }
