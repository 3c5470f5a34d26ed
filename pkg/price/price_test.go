package price

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"$15/bag (1 lb)", "15"},
		{"$45", "45"},
		{"$12.00", "12"},
		{"Only $9.99 today", "9.99"},
		{"$12.50.3", "12.5"},
		{"$.75", "0.75"},
		{"$.", "0"},
		{"free", "0"},
		{"45", "0"},
		{"", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestValue_NumberReturnedAsIs(t *testing.T) {
	v := FromNumber(decimal.RequireFromString("9.99"))

	assert.True(t, v.IsNumber())
	assert.Equal(t, "9.99", v.Amount().String())
}

func TestValue_UnmarshalString(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`"$15/bag (1 lb)"`), &v))

	assert.False(t, v.IsNumber())
	assert.Equal(t, "$15/bag (1 lb)", v.String())
	assert.Equal(t, "15", v.Amount().String())
}

func TestValue_UnmarshalNumber(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`9.99`), &v))

	assert.True(t, v.IsNumber())
	assert.Equal(t, "9.99", v.Amount().String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `9.99`, string(out))
}

func TestValue_UnmarshalRejectsObjects(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"amount": 1}`), &v)
	assert.Error(t, err)
}
