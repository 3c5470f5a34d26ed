package inquiry

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/joinsangha/storefront/internal/mailer"
	"go.uber.org/zap"
)

var supportTmpl = template.Must(template.New("support").Parse(`<h2>New Support Ticket</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<hr>
<h3>Message:</h3>
<p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
<hr>
<p><small>Sent from Join Sangha Support Form</small></p>`))

var fieldsTmpl = template.Must(template.New("fields").Parse(`<h2>{{.Heading}}</h2>
{{range .Fields}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{end}}<hr>
<p><small>Sent from Join Sangha {{.Form}}</small></p>`))

// Relay forwards validated forms to the team inbox.
type Relay struct {
	sender mailer.Sender
	to     string
	log    *zap.Logger
}

func NewRelay(sender mailer.Sender, to string, log *zap.Logger) *Relay {
	return &Relay{sender: sender, to: to, log: log}
}

func (r *Relay) SendSupport(ctx context.Context, req SupportRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	err := supportTmpl.Execute(&buf, struct {
		Name, Email, Subject string
		Lines                []string
	}{
		Name:    mailer.Sanitize(req.FirstName) + " " + mailer.Sanitize(req.LastName),
		Email:   mailer.Sanitize(req.Email),
		Subject: mailer.Sanitize(req.Subject),
		Lines:   strings.Split(mailer.Sanitize(req.Message), "\n"),
	})
	if err != nil {
		return fmt.Errorf("render support email: %w", err)
	}

	return r.send(ctx, "support", mailer.Message{
		ReplyTo: req.Email,
		Subject: "Support Ticket: " + mailer.Sanitize(req.Subject),
		HTML:    buf.String(),
		Text:    req.Message,
	})
}

func (r *Relay) SendPartnership(ctx context.Context, req PartnershipRequest) error {
	inq, err := req.Inquiry()
	if err != nil {
		return err
	}

	fields := []Field{
		{"Name", inq.Name},
		{"Email", inq.Email},
		{"Mobile", inq.Mobile},
		{"Partnership Type", inq.Details.Kind()},
	}
	fields = append(fields, inq.Details.Fields()...)

	html, err := renderFields("New Partnership Inquiry", "Partnership Form", fields)
	if err != nil {
		return err
	}

	return r.send(ctx, "partnership", mailer.Message{
		ReplyTo: inq.Email,
		Subject: "New Partnership Inquiry from " + mailer.Sanitize(inq.Name),
		HTML:    html,
	})
}

func (r *Relay) SendApplication(ctx context.Context, req ApplicationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	attachment, err := req.Attachment()
	if err != nil {
		return err
	}

	resume := req.Resume
	if req.Attached() {
		resume = req.ResumeFileName
	}
	fields := []Field{
		{"First Name", req.FirstName},
		{"Last Name", req.LastName},
		{"Preferred First Name", req.PreferredFirstName},
		{"Email", req.Email},
		{"Phone", req.Phone.String()},
		{"Resume/CV", resume},
		{"School", req.School},
		{"Degree", req.Degree},
		{"LinkedIn Profile", orNA(req.LinkedIn)},
		{"Portfolio Link", orNA(req.Portfolio)},
		{"0 to 1 Product Design Experience", req.Experience},
		{"Improvement Suggestion", req.Improvement},
		{"Visa Sponsorship Required", req.Visa},
	}

	html, err := renderFields("New Job Application", "Job Application Form", fields)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		ReplyTo: req.Email,
		Subject: fmt.Sprintf("New Job Application from %s %s", mailer.Sanitize(req.FirstName), mailer.Sanitize(req.LastName)),
		HTML:    html,
	}
	if attachment != nil {
		msg.Attachments = []mailer.Attachment{*attachment}
	}
	return r.send(ctx, "application", msg)
}

func (r *Relay) send(ctx context.Context, form string, msg mailer.Message) error {
	if r.to != "" {
		msg.To = []string{r.to}
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		r.log.Error("failed to relay inquiry", zap.String("form", form), zap.Error(err))
		return fmt.Errorf("relay %s inquiry: %w", form, err)
	}
	r.log.Info("inquiry relayed", zap.String("form", form))
	return nil
}

func renderFields(heading, form string, fields []Field) (string, error) {
	for i := range fields {
		fields[i].Value = mailer.Sanitize(fields[i].Value)
	}

	var buf bytes.Buffer
	err := fieldsTmpl.Execute(&buf, struct {
		Heading, Form string
		Fields        []Field
	}{heading, form, fields})
	if err != nil {
		return "", fmt.Errorf("render %s email: %w", form, err)
	}
	return buf.String(), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
