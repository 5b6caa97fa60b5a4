package mail

import (
	"errors"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"opertrack.org/internal/config"
)

// ErrNotConfigured means no SMTP relay was provided in the environment.
var ErrNotConfigured = errors.New("mail: smtp relay is not configured")

// Sender dispatches report artifacts over SMTP. One instance is built at
// startup and shared; gomail dials per message, so there is no connection
// state to guard.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender builds a Sender from config. A nil return with ErrNotConfigured
// signals the optional feature is off, not a startup failure.
func NewSender(cfg config.SMTPConfig) (*Sender, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Attachment is an in-memory report artifact.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Send mails the attachment to one recipient. No retry: first failure is
// terminal for the request that asked for dispatch.
func (s *Sender) Send(to, subject, body string, att Attachment) error {
	if s == nil {
		return ErrNotConfigured
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("mail: recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if att.Filename != "" {
		m.Attach(att.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.Data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {att.ContentType}}),
		)
	}
	return s.dialer.DialAndSend(m)
}
