// Package notify renders and sends the order emails: a confirmation to the
// customer and a notice to the shop admin.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/joinsangha/storefront/internal/mailer"
	"github.com/joinsangha/storefront/internal/orders/domain"
)

type Notifier struct {
	sender  mailer.Sender
	adminTo string
}

func NewNotifier(sender mailer.Sender, adminTo string) *Notifier {
	return &Notifier{sender: sender, adminTo: adminTo}
}

type itemRow struct {
	Name     string
	Quantity string
	Line     string
}

type view struct {
	OrderID  string
	Name     string
	Email    string
	Phone    string
	Shipping string
	Amount   string
	Date     string
	Items    []itemRow
	Lines    []string
}

var customerTmpl = template.Must(template.New("customer").Parse(`<h2>Thank you for your order, {{.Name}}!</h2>
<p>Order #{{.OrderID}} placed on {{.Date}}.</p>
<ul>{{range .Items}}<li>{{.Name}} (x{{.Quantity}}) - ${{.Line}}</li>{{end}}</ul>
<p><strong>Total: ${{.Amount}}</strong></p>
<p>Shipping to: {{.Shipping}}</p>
<p>With gratitude,<br>The JoinSangha team</p>`))

var adminTmpl = template.Must(template.New("admin").Parse(`<h2>New order #{{.OrderID}}</h2>
<p><strong>Customer:</strong> {{.Name}} ({{.Email}}){{if .Phone}}, {{.Phone}}{{end}}</p>
<p><strong>Ship to:</strong> {{.Shipping}}</p>
<ul>{{range .Items}}<li>{{.Name}} (x{{.Quantity}}) - ${{.Line}}</li>{{end}}</ul>
<p><strong>Total:</strong> ${{.Amount}}</p>
<p><strong>Date:</strong> {{.Date}}</p>`))

func newView(o *domain.Order) view {
	v := view{
		OrderID:  o.ShortID(),
		Name:     mailer.Sanitize(o.Customer.FullName()),
		Email:    mailer.Sanitize(o.Customer.Email),
		Phone:    mailer.Sanitize(o.Customer.Phone),
		Shipping: mailer.Sanitize(o.Customer.ShippingLine()),
		Amount:   o.Amount.StringFixed(2),
		Date:     o.TransactionDate.UTC().Format("January 2, 2006 15:04 MST"),
	}
	for _, it := range o.Items {
		row := itemRow{
			Name:     mailer.Sanitize(it.Name),
			Quantity: it.Quantity.String(),
			Line:     it.LineTotal.StringFixed(2),
		}
		v.Items = append(v.Items, row)
		v.Lines = append(v.Lines, fmt.Sprintf("%s (x%s) - $%s", row.Name, row.Quantity, row.Line))
	}
	return v
}

func render(t *template.Template, v view) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (n *Notifier) CustomerMessage(o *domain.Order) (mailer.Message, error) {
	v := newView(o)
	html, err := render(customerTmpl, v)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      []string{o.Customer.Email},
		Subject: fmt.Sprintf("Order Confirmation #%s - JoinSangha", v.OrderID),
		HTML:    html,
		Text:    fmt.Sprintf("Order #%s\n%s\nTotal: $%s", v.OrderID, strings.Join(v.Lines, "\n"), v.Amount),
	}, nil
}

func (n *Notifier) AdminMessage(o *domain.Order) (mailer.Message, error) {
	v := newView(o)
	html, err := render(adminTmpl, v)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      []string{n.adminTo},
		ReplyTo: o.Customer.Email,
		Subject: fmt.Sprintf("New Order #%s from %s", v.OrderID, v.Name),
		HTML:    html,
		Text:    fmt.Sprintf("%s (%s)\n%s\n%s\nTotal: $%s", v.Name, v.Email, v.Shipping, strings.Join(v.Lines, "\n"), v.Amount),
	}, nil
}

// NotifyOrder sends both emails. A failure of one does not stop the other; the
// admin notice is skipped when no admin address is set.
func (n *Notifier) NotifyOrder(ctx context.Context, o *domain.Order) error {
	var errs []error

	if msg, err := n.CustomerMessage(o); err != nil {
		errs = append(errs, err)
	} else if err := n.sender.Send(ctx, msg); err != nil {
		errs = append(errs, fmt.Errorf("customer email: %w", err))
	}

	if n.adminTo != "" {
		if msg, err := n.AdminMessage(o); err != nil {
			errs = append(errs, err)
		} else if err := n.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("admin email: %w", err))
		}
	}

	return errors.Join(errs...)
}
