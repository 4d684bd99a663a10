package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	OrderID string   `json:"order_id" validate:"required,min=4"`
	Units   *float64 `json:"units" validate:"required,integer,min=1"`
	Price   *float64 `json:"price" validate:"required,min=0"`
}

func f(v float64) *float64 { return &v }

func TestValidator(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid", in: sample{OrderID: "ORDER0001", Units: f(2), Price: f(0)}},
		{name: "short id", in: sample{OrderID: "abc", Units: f(2), Price: f(1)}, wantErr: "order_id: min=4"},
		{name: "fractional units", in: sample{OrderID: "ORDER0001", Units: f(1.5), Price: f(1)}, wantErr: "units: integer"},
		{name: "zero units", in: sample{OrderID: "ORDER0001", Units: f(0), Price: f(1)}, wantErr: "units: min=1"},
		{name: "missing price", in: sample{OrderID: "ORDER0001", Units: f(1)}, wantErr: "price: required"},
		{name: "negative price", in: sample{OrderID: "ORDER0001", Units: f(1), Price: f(-0.01)}, wantErr: "price: min=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, Describe(err))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "ORDER0001", Normalize("  ORDER0001\t"))

	assert.Nil(t, NormalizePtr(nil))
	s := " pay-1 "
	assert.Equal(t, "pay-1", *NormalizePtr(&s))
}

func TestDescribe_NonValidationError(t *testing.T) {
	assert.Equal(t, "error: boom", Describe(errors.New("boom")))
}
