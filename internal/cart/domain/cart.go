package domain

import (
	"time"

	"github.com/joinsangha/storefront/pkg/price"
	"github.com/shopspring/decimal"
)

var (
	MinQuantity  = decimal.NewFromInt(1)
	QuantityStep = decimal.RequireFromString("0.5")
)

// LineItem is keyed by Name; the catalogue has no stable SKU.
type LineItem struct {
	Name     string          `json:"name"`
	Price    price.Value     `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (i LineItem) UnitPrice() decimal.Decimal {
	return i.Price.Amount()
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(i.Quantity)
}

type Cart struct {
	ClientID  string     `json:"client_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(clientID string, now time.Time) *Cart {
	return &Cart{
		ClientID:  clientID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Add appends item, or sums its quantity into the line with the same name.
func (c *Cart) Add(item LineItem) error {
	if item.Name == "" {
		return ErrMissingName
	}
	if !isStep(item.Quantity) || !item.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}

	for i := range c.Items {
		if c.Items[i].Name == item.Name {
			c.Items[i].Quantity = c.Items[i].Quantity.Add(item.Quantity)
			return nil
		}
	}

	c.Items = append(c.Items, item)
	return nil
}

// AdjustQuantity moves the quantity at index by delta, never below MinQuantity.
func (c *Cart) AdjustQuantity(index int, delta decimal.Decimal) error {
	if index < 0 || index >= len(c.Items) {
		return ErrItemNotFound
	}
	if delta.IsZero() || !isStep(delta) {
		return ErrInvalidDelta
	}

	c.Items[index].Quantity = decimal.Max(MinQuantity, c.Items[index].Quantity.Add(delta))
	return nil
}

func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.Items) {
		return ErrItemNotFound
	}

	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal is recomputed from the items on every call. Rounding is left to display.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) ItemCount() decimal.Decimal {
	count := decimal.Zero
	for _, item := range c.Items {
		count = count.Add(item.Quantity)
	}
	return count
}

func isStep(q decimal.Decimal) bool {
	return q.Mod(QuantityStep).IsZero()
}
