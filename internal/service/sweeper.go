package service

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredPurger is implemented by OTP stores without native expiry.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// RunOTPSweeper deletes expired codes every interval until ctx is cancelled.
func RunOTPSweeper(ctx context.Context, purger ExpiredPurger, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purger.PurgeExpired(ctx, time.Now())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("otp sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired otps purged", "count", n)
			}
		}
	}
}
