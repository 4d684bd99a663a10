package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

func TestBuildRecordOrderPaymentCommand_FreshRecord(t *testing.T) {
	freezeNow(t, created)

	r := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{
		New: fieldsFor("ORDER0001", StatusAccepted, str("PAY-0001")),
	})
	require.True(t, r.IsSuccess())

	got := r.MustValue().Data()
	assert.Equal(t, "ORDER0001", got.OrderID)
	assert.Equal(t, StatusAccepted, got.PaymentStatus)
	assert.Equal(t, "PAY-0001", got.PaymentID)
	assert.Equal(t, 0, got.PaymentRetries)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, created, got.UpdatedAt)
}

func TestBuildRecordOrderPaymentCommand_MissingPaymentIDUsesPlaceholder(t *testing.T) {
	r := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{
		New: fieldsFor("ORDER0001", StatusFailed, nil),
	})
	require.True(t, r.IsSuccess())

	id := r.MustValue().Data().PaymentID
	assert.Equal(t, "ERROR:ORDER_ID:ORDER0001", id)
	assert.True(t, IsMissingPaymentID(id))
}

func TestBuildRecordOrderPaymentCommand_RetryIncrementsCounter(t *testing.T) {
	freezeNow(t, later)
	existing := stored("ORDER0001", StatusFailed, 2)

	r := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{
		Existing: &existing,
		New:      fieldsFor("ORDER0001", StatusAccepted, str("PAY-0002")),
	})
	require.True(t, r.IsSuccess())

	got := r.MustValue().Data()
	assert.Equal(t, 3, got.PaymentRetries)
	assert.Equal(t, StatusAccepted, got.PaymentStatus)
	assert.Equal(t, "PAY-0002", got.PaymentID)
	assert.Equal(t, later, got.UpdatedAt)

	assert.Equal(t, existing.OrderID, got.OrderID)
	assert.Equal(t, existing.SKU, got.SKU)
	assert.Equal(t, existing.Units, got.Units)
	assert.Equal(t, existing.Price, got.Price)
	assert.Equal(t, existing.UserID, got.UserID)
	assert.Equal(t, existing.CreatedAt, got.CreatedAt)
}

func TestBuildRecordOrderPaymentCommand_TerminalExisting(t *testing.T) {
	tests := []struct {
		status PaymentStatus
		kind   result.FailureKind
	}{
		{status: StatusAccepted, kind: PaymentAlreadyAcceptedError},
		{status: StatusRejected, kind: PaymentAlreadyRejectedError},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			existing := stored("ORDER0001", tt.status, 0)
			for _, next := range []PaymentStatus{StatusFailed, StatusAccepted, StatusRejected} {
				r := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{
					Existing: &existing,
					New:      fieldsFor("ORDER0001", next, str("PAY-0009")),
				})
				assert.True(t, r.IsFailureOfKind(tt.kind))
				assert.False(t, r.IsFailureTransient())
			}
		})
	}
}

func TestBuildRecordOrderPaymentCommand_InvalidInput(t *testing.T) {
	good := stored("ORDER0001", StatusFailed, 0)
	badExisting := good
	badExisting.PaymentStatus = "PAID"
	otherOrder := stored("ORDER0002", StatusFailed, 0)

	tests := []struct {
		name  string
		input *RecordOrderPaymentInput
	}{
		{name: "nil input", input: nil},
		{name: "nil fields", input: &RecordOrderPaymentInput{Existing: &good}},
		{name: "short order id", input: &RecordOrderPaymentInput{New: fieldsFor("ORD", StatusAccepted, nil)}},
		{name: "blank order id", input: &RecordOrderPaymentInput{New: fieldsFor("      ", StatusAccepted, nil)}},
		{name: "unknown status", input: &RecordOrderPaymentInput{New: fieldsFor("ORDER0001", "PAID", nil)}},
		{name: "blank payment id", input: &RecordOrderPaymentInput{New: fieldsFor("ORDER0001", StatusAccepted, str("   "))}},
		{name: "invalid existing", input: &RecordOrderPaymentInput{Existing: &badExisting, New: fieldsFor("ORDER0001", StatusAccepted, nil)}},
		{name: "existing for another order", input: &RecordOrderPaymentInput{Existing: &otherOrder, New: fieldsFor("ORDER0001", StatusAccepted, nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := BuildRecordOrderPaymentCommand(tt.input)
			assert.True(t, r.IsFailureOfKind(result.InvalidArgumentsError))
			assert.False(t, r.IsFailureTransient())
		})
	}

	zeroUnits := fieldsFor("ORDER0001", StatusAccepted, nil)
	zeroUnits.Units = 0
	r := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{New: zeroUnits})
	require.True(t, r.IsFailure())
	assert.Equal(t, "units: min=1", r.Failure().Err.Error())
}

func TestBuildRecordOrderPaymentCommand_TrimsAndCopiesOptions(t *testing.T) {
	fields := fieldsFor("  ORDER0001 ", StatusAccepted, str(" PAY-0001 "))
	opts := map[string]any{"source": "test"}

	r := BuildRecordOrderPaymentCommand(&RecordOrderPaymentInput{New: fields, Options: opts})
	require.True(t, r.IsSuccess())

	cmd := r.MustValue()
	assert.Equal(t, "ORDER0001", cmd.Data().OrderID)
	assert.Equal(t, "PAY-0001", cmd.Data().PaymentID)

	opts["source"] = "changed"
	assert.Equal(t, "test", cmd.Options()["source"])
	assert.Equal(t, "  ORDER0001 ", fields.OrderID)
}

func TestBuildGetOrderPaymentCommand(t *testing.T) {
	r := BuildGetOrderPaymentCommand(&GetOrderPaymentInput{OrderID: " ORDER0001 "})
	require.True(t, r.IsSuccess())
	assert.Equal(t, "ORDER0001", r.MustValue().Data().OrderID)

	assert.True(t, BuildGetOrderPaymentCommand(&GetOrderPaymentInput{OrderID: "abc"}).IsFailureOfKind(result.InvalidArgumentsError))
	assert.True(t, BuildGetOrderPaymentCommand(nil).IsFailureOfKind(result.InvalidArgumentsError))
}

func TestBuildProcessOrderPaymentCommand(t *testing.T) {
	in := &ProcessOrderPaymentInput{OrderID: "ORDER0001", SKU: "SKU-0001", Units: 3, Price: 0, UserID: "USER0001"}
	r := BuildProcessOrderPaymentCommand(in)
	require.True(t, r.IsSuccess())
	assert.Equal(t, 3, r.MustValue().Data().Units)

	bad := *in
	bad.Price = -1
	r = BuildProcessOrderPaymentCommand(&bad)
	require.True(t, r.IsFailureOfKind(result.InvalidArgumentsError))
	assert.Equal(t, "price: min=0", r.Failure().Err.Error())
}
