package mail

import (
	"context"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a new SMTP-backed sender.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendEmail delivers the message through the SMTP relay.
func (s *SMTPSender) SendEmail(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)

	if msg.PlainText != "" {
		m.SetBody("text/plain", msg.PlainText)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	return s.dialer.DialAndSend(m)
}

// FromAddress returns the configured sender address.
func (s *SMTPSender) FromAddress() string {
	return s.from
}

// LogSender logs rendered messages instead of delivering them. It is the
// sender of choice when no SMTP relay is configured, so payment processing
// keeps working in environments without email.
type LogSender struct {
	logger zerolog.Logger
	from   string
}

// NewLogSender creates a sender that only logs outbound messages.
func NewLogSender(logger zerolog.Logger, from string) *LogSender {
	return &LogSender{
		logger: logger,
		from:   from,
	}
}

// SendEmail logs the message and reports success.
func (s *LogSender) SendEmail(ctx context.Context, msg *Message) error {
	s.logger.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTML)).
		Msg("Email delivery disabled, message logged only")
	return nil
}

// FromAddress returns the configured sender address.
func (s *LogSender) FromAddress() string {
	return s.from
}
