package notify

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// Data is the template context for both messages.
type Data struct {
	BuyerName string
	EventName string
	Organizer string
}

// Templates renders ticket and reminder messages.
type Templates struct {
	tmpl *template.Template
}

// LoadTemplates parses *.tmpl from dir, or the built-in templates when dir
// is empty. A custom directory must define ticket.subject, ticket.body,
// reminder.subject and reminder.body.
func LoadTemplates(dir string) (*Templates, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(builtinTemplates, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	tmpl, err := template.New("notify").Funcs(sprig.TxtFuncMap()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, name := range []string{"ticket.subject", "ticket.body", "reminder.subject", "reminder.body"} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("parse templates: %q not defined", name)
		}
	}
	return &Templates{tmpl: tmpl}, nil
}

// TicketMessage builds the ticket delivery email with png attached as
// ticket_<event>.png.
func (t *Templates) TicketMessage(to string, data Data, png []byte) (Message, error) {
	msg, err := t.render("ticket", to, data)
	if err != nil {
		return Message{}, err
	}
	msg.Attachment = &Attachment{
		Name:        AttachmentName(data.EventName),
		ContentType: "image/png",
		Data:        png,
	}
	return msg, nil
}

// ReminderMessage builds the payment reminder email.
func (t *Templates) ReminderMessage(to string, data Data) (Message, error) {
	return t.render("reminder", to, data)
}

func (t *Templates) render(kind, to string, data Data) (Message, error) {
	subject, err := t.exec(kind+".subject", data)
	if err != nil {
		return Message{}, err
	}
	body, err := t.exec(kind+".body", data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: strings.TrimSpace(subject), Body: body}, nil
}

func (t *Templates) exec(name string, data Data) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// AttachmentName returns the attachment file name for an event.
func AttachmentName(event string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '-'
		}
		return r
	}, event)
	return "ticket_" + clean + ".png"
}
