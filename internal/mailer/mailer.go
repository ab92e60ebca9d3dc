// Package mailer renders and delivers registration confirmation emails.
package mailer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds connection, handshake and data transfer of one delivery attempt.
const DefaultTimeout = 20 * time.Second

// Attachment is a file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email.
type Message struct {
	To         string
	Bcc        []string
	Subject    string
	HTML       string
	Attachment *Attachment
}

// Backend delivers a message through one provider.
type Backend interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// DeliveryRecorder receives the outcome of every backend attempt.
type DeliveryRecorder interface {
	RecordDelivery(backend string, err error)
}

// Dispatcher sends messages through its backends in order, stopping at the first success.
type Dispatcher struct {
	backends []Backend
	recorder DeliveryRecorder
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. recorder may be nil.
func NewDispatcher(backends []Backend, recorder DeliveryRecorder, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{backends: backends, recorder: recorder, logger: logger}
}

// Backends returns the backend names in fallback order.
func (d *Dispatcher) Backends() []string {
	names := make([]string, 0, len(d.backends))
	for _, b := range d.backends {
		names = append(names, b.Name())
	}
	return names
}

// Send delivers msg. It returns ErrNoBackend when nothing is configured, or the
// joined errors of every backend when all of them fail.
func (d *Dispatcher) Send(ctx context.Context, msg *Message) error {
	if len(d.backends) == 0 {
		return ErrNoBackend
	}
	var errs []error
	for _, b := range d.backends {
		err := b.Send(ctx, msg)
		if d.recorder != nil {
			d.recorder.RecordDelivery(b.Name(), err)
		}
		if err == nil {
			d.logger.Info("email delivered",
				zap.String("backend", b.Name()),
				zap.String("recipient", msg.To),
			)
			return nil
		}
		fields := []zap.Field{
			zap.String("backend", b.Name()),
			zap.String("recipient", msg.To),
			zap.Error(err),
		}
		var de *DeliveryError
		if errors.As(err, &de) {
			fields = append(fields, zap.Int("status", de.StatusCode), zap.Bool("timeout", de.Timeout))
		}
		d.logger.Warn("email backend failed", fields...)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
