package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBrevoURL is the transactional email endpoint.
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 4096

// BrevoConfig holds hosted API settings.
type BrevoConfig struct {
	APIKey   string
	URL      string
	From     string
	FromName string
	Timeout  time.Duration
}

// BrevoBackend delivers through the Brevo transactional email API.
type BrevoBackend struct {
	cfg    BrevoConfig
	client *http.Client
	logger *zap.Logger
}

// NewBrevoBackend creates a Brevo backend.
func NewBrevoBackend(cfg BrevoConfig, logger *zap.Logger) *BrevoBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultBrevoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &BrevoBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type brevoRequest struct {
	Sender      brevoAddress      `json:"sender"`
	To          []brevoAddress    `json:"to"`
	Bcc         []brevoAddress    `json:"bcc,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent"`
	Attachment  []brevoAttachment `json:"attachment,omitempty"`
}

// Name implements Backend.
func (b *BrevoBackend) Name() string { return "brevo" }

// Send implements Backend. Any status outside 2xx is a DeliveryError carrying the response body.
func (b *BrevoBackend) Send(ctx context.Context, msg *Message) error {
	payload := brevoRequest{
		Sender:      brevoAddress{Email: b.cfg.From, Name: b.cfg.FromName},
		To:          []brevoAddress{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	}
	for _, addr := range msg.Bcc {
		payload.Bcc = append(payload.Bcc, brevoAddress{Email: addr})
	}
	if a := msg.Attachment; a != nil {
		payload.Attachment = []brevoAttachment{{
			Name:    a.Filename,
			Content: base64.StdEncoding.EncodeToString(a.Content),
		}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Backend: b.Name(), Recipient: msg.To, Err: fmt.Errorf("marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Backend: b.Name(), Recipient: msg.To, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("api-key", b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return &DeliveryError{Backend: b.Name(), Recipient: msg.To, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{
			Backend:    b.Name(),
			Recipient:  msg.To,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	b.logger.Debug("brevo accepted message", zap.String("recipient", msg.To), zap.Int("status", resp.StatusCode))
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
