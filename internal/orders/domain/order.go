package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joinsangha/storefront/pkg/apperr"
	"github.com/shopspring/decimal"
)

type Customer struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ShippingLine renders the address on one line, skipping empty parts.
func (c Customer) ShippingLine() string {
	var parts []string
	for _, p := range []string{c.Address, c.City, strings.TrimSpace(c.State + " " + c.PostalCode), c.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Item struct {
	Name      string          `json:"name"`
	Price     string          `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is the append-only ledger record of one successful payment.
type Order struct {
	ID               uuid.UUID       `json:"id"`
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Customer         Customer        `json:"customer"`
	Items            []Item          `json:"items"`
	TransactionDate  time.Time       `json:"transaction_date"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ShortID is the customer-facing order number: the last 8 characters of the payment reference.
func (o *Order) ShortID() string {
	ref := o.PaymentReference
	if len(ref) <= 8 {
		return ref
	}
	return ref[len(ref)-8:]
}

func (o *Order) Validate() error {
	if o.PaymentReference == "" || !o.Amount.IsPositive() || len(o.Items) == 0 || o.TransactionDate.IsZero() {
		return apperr.Validation("", "Missing required order information")
	}
	if o.Customer.Email == "" || o.Customer.FirstName == "" || o.Customer.LastName == "" {
		return apperr.Validation("customerInfo", "Missing customer information")
	}
	return nil
}

// ItemsSummary lists items as "name xqty" separated by commas.
func (o *Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		parts = append(parts, fmt.Sprintf("%s x%s", it.Name, it.Quantity.String()))
	}
	return strings.Join(parts, ", ")
}

// Ack reports which side effects were dispatched for an order. Dispatch is not success.
type Ack struct {
	OrderID             string `json:"orderId"`
	LedgerQueued        bool   `json:"ledgerQueued"`
	NotificationsQueued bool   `json:"notificationsQueued"`
}
