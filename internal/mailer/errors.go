package mailer

import (
	"errors"
	"fmt"
)

// ErrNoBackend is returned when no delivery backend has credentials configured.
var ErrNoBackend = errors.New("no email delivery backend configured")

// DeliveryError describes a failed send through one backend.
type DeliveryError struct {
	Backend    string
	Recipient  string
	StatusCode int    // HTTP status for API backends, 0 otherwise
	Body       string // response body for API backends
	Timeout    bool
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s delivery to %s timed out: %v", e.Backend, e.Recipient, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s delivery to %s failed: HTTP %d: %s", e.Backend, e.Recipient, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s delivery to %s failed: %v", e.Backend, e.Recipient, e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }
