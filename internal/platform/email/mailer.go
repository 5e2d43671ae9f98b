// Package email sends templated transactional mail over SMTP.
//
// A Mailer is built once at startup from configuration and passed to whoever
// needs to send mail. When the email feature is disabled the Mailer still
// exists and every send is skipped with a warning.
package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wneessen/go-mail"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/redact"
)

const subjectEndMarker = "===SUBJECT END==="

// ErrEmail wraps every failure to render or deliver a message.
var ErrEmail = errors.New("email error")

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Sender delivers composed messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// WelcomeData fills the welcome template.
type WelcomeData struct {
	Name            string `validate:"required"`
	VerificationURL string `validate:"omitempty,url"`
	// Year defaults to the current year when zero.
	Year int `validate:"omitempty,gte=1970"`
}

// Mailer renders and sends transactional mail.
type Mailer struct {
	sender   Sender
	from     string
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSender replaces the SMTP client, e.g. with a recorder in tests.
func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

// New builds a Mailer from cfg. A disabled configuration yields a Mailer that
// skips every send.
func New(cfg config.EmailConfig, logger *slog.Logger, opts ...Option) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{
		from:     cfg.From,
		logger:   logger.With(slog.String("component", "email")),
		validate: validator.New(),
	}

	if cfg.Enabled {
		client, err := newClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create SMTP client: %s", ErrEmail, redact.Error(err))
		}
		m.sender = client
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.sender == nil {
		m.logger.Info("email service disabled")
	} else {
		m.logger.Info("email service initialized", slog.String("from", m.from))
	}
	return m, nil
}

func newClient(cfg config.EmailConfig) (*mail.Client, error) {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUser),
		mail.WithPassword(cfg.SMTPPass),
		mail.WithTimeout(10 * time.Second),
	}
	if port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	return mail.NewClient(cfg.SMTPHost, opts...)
}

// Enabled reports whether messages are actually delivered.
func (m *Mailer) Enabled() bool {
	return m != nil && m.sender != nil
}

// SendWelcome sends the welcome message in lang to the given recipients.
func (m *Mailer) SendWelcome(ctx context.Context, to []string, lang string, data WelcomeData) error {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	return m.send(ctx, "welcome", to, lang, data)
}

func (m *Mailer) send(ctx context.Context, name string, to []string, lang string, data any) error {
	if !m.Enabled() {
		if m != nil {
			m.logger.Warn("email service not configured, skipping message",
				slog.String("template", name))
		}
		return nil
	}

	if err := m.validate.Struct(data); err != nil {
		return fmt.Errorf("%w: invalid data for template %s: %v", ErrEmail, name, err)
	}

	subject, body, err := render(name, lang, data)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("%w: invalid sender: %v", ErrEmail, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("%w: invalid recipient: %v", ErrEmail, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: failed to send email: %s", ErrEmail, redact.Error(err))
	}

	m.logger.Debug("email sent", slog.String("template", name), slog.Int("recipients", len(to)))
	return nil
}

// render executes template name.lang.html and splits it into subject and body.
func render(name, lang string, data any) (subject, body string, err error) {
	file := name + "." + lang + ".html"
	if templates.Lookup(file) == nil {
		return "", "", fmt.Errorf("%w: no %q template for language %q", ErrEmail, name, lang)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, file, data); err != nil {
		return "", "", fmt.Errorf("%w: failed to render %s: %v", ErrEmail, file, err)
	}

	subject, body, found := strings.Cut(buf.String(), subjectEndMarker)
	if !found {
		return "", "", fmt.Errorf("%w: template %s has no subject section", ErrEmail, file)
	}
	return html.UnescapeString(strings.TrimSpace(subject)), strings.TrimSpace(body), nil
}
