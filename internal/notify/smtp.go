package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultSMTPPort is the implicit-TLS submission port.
const DefaultSMTPPort = 465

// SMTPConfig configures the outbound mail endpoint.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From defaults to Username.
	From    string
	Timeout time.Duration
}

// Mailer sends messages over SMTP with implicit TLS and PLAIN auth.
// Each Send opens its own connection.
type Mailer struct {
	cfg SMTPConfig
}

// NewMailer returns a Mailer for cfg.
func NewMailer(cfg SMTPConfig) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailer{cfg: cfg}
}

// Send delivers msg. Any failure, including building the message, is
// returned as a *DeliveryError.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	mm, err := m.build(msg)
	if err != nil {
		return &DeliveryError{To: msg.To, Err: err}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return &DeliveryError{To: msg.To, Err: fmt.Errorf("smtp client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return &DeliveryError{To: msg.To, Err: err}
	}
	return nil
}

func (m *Mailer) build(msg Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from address %q: %w", m.cfg.From, err)
	}
	if err := mm.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address %q: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Body)

	if a := msg.Attachment; a != nil {
		opts := []mail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := mm.AttachReader(a.Name, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return mm, nil
}
