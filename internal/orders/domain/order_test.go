package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/joinsangha/storefront/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() *Order {
	return &Order{
		PaymentReference: "pi_3PabcdefGHIJKLMN",
		Amount:           decimal.RequireFromString("69.00"),
		Currency:         "usd",
		Customer:         Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", City: "Berkeley", State: "CA", PostalCode: "94704", Country: "US"},
		Items: []Item{
			{Name: "Meditation Cushion", Price: "$45", Quantity: decimal.NewFromInt(1), LineTotal: decimal.NewFromInt(45)},
			{Name: "Incense Set", Price: "$12", Quantity: decimal.NewFromInt(2), LineTotal: decimal.NewFromInt(24)},
		},
		TransactionDate: time.Now(),
	}
}

func TestOrder_ShortID(t *testing.T) {
	o := validOrder()
	assert.Equal(t, "GHIJKLMN", o.ShortID())

	o.PaymentReference = "pi_1"
	assert.Equal(t, "pi_1", o.ShortID())
}

func TestOrder_Validate(t *testing.T) {
	require.NoError(t, validOrder().Validate())

	o := validOrder()
	o.Items = nil
	var ve *apperr.ValidationError
	require.True(t, errors.As(o.Validate(), &ve))
	assert.Equal(t, "Missing required order information", ve.Message)

	o = validOrder()
	o.Amount = decimal.Zero
	assert.Error(t, o.Validate())

	o = validOrder()
	o.Customer.LastName = ""
	require.True(t, errors.As(o.Validate(), &ve))
	assert.Equal(t, "Missing customer information", ve.Message)
}

func TestOrder_ItemsSummary(t *testing.T) {
	assert.Equal(t, "Meditation Cushion x1, Incense Set x2", validOrder().ItemsSummary())
}

func TestCustomer_ShippingLine(t *testing.T) {
	c := validOrder().Customer
	assert.Equal(t, "Berkeley, CA 94704, US", c.ShippingLine())
	assert.Equal(t, "Ada Lovelace", c.FullName())
}
