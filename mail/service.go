package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templates embed.FS

// Message is an outbound email ready for delivery.
type Message struct {
	From      string
	To        []string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers rendered email messages.
type Sender interface {
	SendEmail(ctx context.Context, msg *Message) error
	FromAddress() string
}

// TemplateMessage is a template-backed message accepted by SendRendered.
// Template names the embedded HTML template without its extension.
type TemplateMessage interface {
	Template() string
	Subject() string
}

// Service renders template-backed messages and hands the result to a sender.
type Service struct {
	logger zerolog.Logger
	sender Sender
	html   *htmltemplate.Template
}

// NewService creates a new mail service with the embedded templates parsed.
func NewService(logger zerolog.Logger, sender Sender) (*Service, error) {
	html, err := htmltemplate.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	return &Service{
		logger: logger,
		sender: sender,
		html:   html,
	}, nil
}

// Send dispatches a prepared message without template rendering.
func (s *Service) Send(ctx context.Context, msg *Message) error {
	return s.sender.SendEmail(ctx, msg)
}

// SendRendered renders the message template and dispatches the result to
// the given recipients.
func (s *Service) SendRendered(ctx context.Context, to []string, msg TemplateMessage) error {
	var body bytes.Buffer
	if err := s.html.ExecuteTemplate(&body, msg.Template()+".html", msg); err != nil {
		emailsTotal.WithLabelValues(msg.Template(), "error").Inc()
		return fmt.Errorf("failed to render template %s: %w", msg.Template(), err)
	}

	rendered := &Message{
		From:    s.sender.FromAddress(),
		To:      to,
		Subject: msg.Subject(),
		HTML:    body.String(),
	}

	if err := s.sender.SendEmail(ctx, rendered); err != nil {
		emailsTotal.WithLabelValues(msg.Template(), "error").Inc()
		s.logger.Error().
			Err(err).
			Strs("recipients", to).
			Str("template", msg.Template()).
			Msg("Failed to send email")
		return err
	}

	emailsTotal.WithLabelValues(msg.Template(), "sent").Inc()
	s.logger.Info().
		Strs("recipients", to).
		Str("template", msg.Template()).
		Msg("Email sent")

	return nil
}
