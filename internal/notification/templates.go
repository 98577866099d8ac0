package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// TicketView is the data rendered into ticket emails.
type TicketView struct {
	ID          int64
	Title       string
	Description string
	Status      string
	Response    string
	ClientName  string
	ClientEmail string
	SupportName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AppName     string
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #1d4ed8; color: white; padding: 20px; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0; font-size: 20px;">{{.AppName}}</h1>
  </div>
  <div style="border: 1px solid #e5e7eb; border-top: none; padding: 20px; border-radius: 0 0 8px 8px;">
    {{template "body" .}}
    <div style="background: #f3f4f6; padding: 15px; border-radius: 8px; margin: 20px 0;">
      <p style="margin: 5px 0;"><strong>Ticket:</strong> #{{.ID}} {{.Title}}</p>
      <p style="margin: 5px 0;"><strong>Status:</strong> {{.Status}}</p>
      {{if .SupportName}}<p style="margin: 5px 0;"><strong>Agent:</strong> {{.SupportName}}</p>{{end}}
      <p style="margin: 5px 0;"><strong>Opened:</strong> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
    </div>
    <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
    <p style="color: #6b7280; font-size: 12px;">This message was sent automatically by {{.AppName}}.</p>
  </div>
</body>
</html>{{end}}`

var templates = map[Kind]string{
	KindCreated: `{{define "body"}}<p>Hello {{.ClientName}},</p>
<p>We received your request and our team will look at it shortly.</p>
<p style="white-space: pre-wrap;">{{.Description}}</p>{{end}}`,
	KindUpdated: `{{define "body"}}<p>Hello {{.ClientName}},</p>
<p>Your request has been updated.</p>
{{if .Response}}<p><strong>Latest response:</strong></p><p style="white-space: pre-wrap;">{{.Response}}</p>{{end}}{{end}}`,
	KindClosed: `{{define "body"}}<p>Hello {{.ClientName}},</p>
<p>Your request has been resolved and closed.</p>
{{if .Response}}<p><strong>Resolution:</strong></p><p style="white-space: pre-wrap;">{{.Response}}</p>{{end}}{{end}}`,
	KindSupportNew: `{{define "body"}}<p>A new request was filed by {{.ClientName}} &lt;{{.ClientEmail}}&gt;.</p>
<p style="white-space: pre-wrap;">{{.Description}}</p>{{end}}`,
}

// Kind selects an email template.
type Kind string

const (
	KindCreated    Kind = "created"
	KindUpdated    Kind = "updated"
	KindClosed     Kind = "closed"
	KindSupportNew Kind = "support_new"
)

var subjects = map[Kind]string{
	KindCreated:    "Request #%d received: %s",
	KindUpdated:    "Request #%d updated: %s",
	KindClosed:     "Request #%d closed: %s",
	KindSupportNew: "New request #%d: %s",
}

var parsed = func() map[Kind]*template.Template {
	out := make(map[Kind]*template.Template, len(templates))
	for kind, body := range templates {
		out[kind] = template.Must(template.Must(template.New(string(kind)).Parse(layout)).Parse(body))
	}
	return out
}()

// Render builds the subject and HTML body for a ticket email.
func Render(kind Kind, view TicketView) (string, string, error) {
	tmpl, ok := parsed[kind]
	if !ok {
		return "", "", &UnknownKindError{Kind: kind}
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjects[kind], view.ID, view.Title), buf.String(), nil
}

// UnknownKindError reports a template that does not exist.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return "unknown email template " + string(e.Kind)
}
