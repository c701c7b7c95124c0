// Package notify delivers one-time codes to email addresses.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrDelivery is returned when a configured transport fails to deliver a code.
var ErrDelivery = errors.New("failed to send OTP email")

// Notifier delivers a one-time code to an email address.
type Notifier interface {
	SendCode(ctx context.Context, email, code string) error
}

// Config describes the SMTP transport. It is validated once at startup by
// the config package; a zero Username or Password selects the log fallback.
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SendTimeout   time.Duration
	ExpiryMinutes int
}

// Configured reports whether real delivery credentials are present.
func (c Config) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// New returns an SMTP notifier when credentials are configured and a
// log-only notifier otherwise.
func New(cfg Config, logger *slog.Logger) Notifier {
	if !cfg.Configured() {
		return NewLogNotifier(logger)
	}
	return NewSMTPNotifier(cfg, logger)
}
