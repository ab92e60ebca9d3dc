package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPConfig holds mail-submission settings.
type SMTPConfig struct {
	Host     string
	Username string
	Password string
	From     string // defaults to Username
	FromName string
	Timeout  time.Duration
}

// smtpAttempt is one port/encryption combination.
type smtpAttempt struct {
	Port        int
	ImplicitTLS bool
}

func (a smtpAttempt) String() string {
	if a.ImplicitTLS {
		return fmt.Sprintf("%d/tls", a.Port)
	}
	return fmt.Sprintf("%d/starttls", a.Port)
}

// Submission port with mandatory STARTTLS first, then implicit TLS on 465.
var defaultSMTPAttempts = []smtpAttempt{
	{Port: 587, ImplicitTLS: false},
	{Port: 465, ImplicitTLS: true},
}

// SMTPBackend submits mail directly to an SMTP server.
type SMTPBackend struct {
	cfg      SMTPConfig
	attempts []smtpAttempt
	logger   *zap.Logger
	// send is swapped in tests.
	send func(ctx context.Context, a smtpAttempt, m *mail.Msg) error
}

// NewSMTPBackend creates an SMTP backend.
func NewSMTPBackend(cfg SMTPConfig, logger *zap.Logger) *SMTPBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	b := &SMTPBackend{cfg: cfg, attempts: defaultSMTPAttempts, logger: logger}
	b.send = b.dialAndSend
	return b
}

// Name implements Backend.
func (b *SMTPBackend) Name() string { return "smtp" }

// Send implements Backend. Each attempt uses its own connection and timeout.
func (b *SMTPBackend) Send(ctx context.Context, msg *Message) error {
	m, err := b.buildMsg(msg)
	if err != nil {
		return &DeliveryError{Backend: b.Name(), Recipient: msg.To, Err: err}
	}

	var errs []error
	timedOut := false
	for _, a := range b.attempts {
		err := b.send(ctx, a, m)
		if err == nil {
			return nil
		}
		b.logger.Warn("smtp attempt failed",
			zap.String("attempt", a.String()),
			zap.String("host", b.cfg.Host),
			zap.String("recipient", msg.To),
			zap.Error(err),
		)
		if isTimeout(err) {
			timedOut = true
		}
		errs = append(errs, fmt.Errorf("%s: %w", a, err))
	}
	return &DeliveryError{
		Backend:   b.Name(),
		Recipient: msg.To,
		Timeout:   timedOut,
		Err:       errors.Join(errs...),
	}
}

func (b *SMTPBackend) buildMsg(msg *Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	var err error
	if b.cfg.FromName != "" {
		err = m.FromFormat(b.cfg.FromName, b.cfg.From)
	} else {
		err = m.From(b.cfg.From)
	}
	if err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, fmt.Errorf("bcc address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if a := msg.Attachment; a != nil {
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content), mail.WithFileContentType(mail.ContentType(a.ContentType))); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}

func (b *SMTPBackend) dialAndSend(ctx context.Context, a smtpAttempt, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(a.Port),
		mail.WithTimeout(b.cfg.Timeout),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(b.cfg.Username),
		mail.WithPassword(b.cfg.Password),
		mail.WithTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: b.cfg.Host,
		}),
	}
	if a.ImplicitTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	client, err := mail.NewClient(b.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}
