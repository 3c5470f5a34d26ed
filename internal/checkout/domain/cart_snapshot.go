package domain

import (
	"time"

	cart "github.com/joinsangha/storefront/internal/cart/domain"
	"github.com/shopspring/decimal"
)

type SnapshotItem struct {
	Name      string          `json:"name"`
	Price     string          `json:"price"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSnapshot is the immutable copy of the cart taken when leaving Shipping.
type CartSnapshot struct {
	Items    []SnapshotItem  `json:"items"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	TakenAt  time.Time       `json:"taken_at"`
}

func SnapshotCart(c *cart.Cart, currency string, now time.Time) CartSnapshot {
	items := make([]SnapshotItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, SnapshotItem{
			Name:      it.Name,
			Price:     it.Price.String(),
			Image:     it.Image,
			UnitPrice: it.UnitPrice(),
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return CartSnapshot{
		Items:    items,
		Amount:   c.Subtotal().Round(2),
		Currency: currency,
		TakenAt:  now,
	}
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
