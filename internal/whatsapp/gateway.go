package whatsapp

import (
	"context"
	"errors"
)

// ErrNotConfigured signals configuration absence: missing credentials or
// template id. It is a distinct, non-fatal outcome, not a transport error.
var ErrNotConfigured = errors.New("whatsapp gateway not configured")

// Gateway delivers a templated WhatsApp message. Implementations own their
// transport timeout; callers treat any returned error as a per-recipient
// failure and never retry within a poller tick.
type Gateway interface {
	Send(ctx context.Context, to string, variables map[string]string) error
}
