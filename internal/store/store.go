// Package store builds the Credential and OTP stores selected by configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AadeshhhGavhane/c3/internal/config"
	"github.com/AadeshhhGavhane/c3/internal/repository"
	"github.com/AadeshhhGavhane/c3/internal/repository/memory"
	"github.com/AadeshhhGavhane/c3/internal/repository/mongostore"
	"github.com/AadeshhhGavhane/c3/internal/repository/redisstore"
	"github.com/AadeshhhGavhane/c3/internal/service"
)

// Stores is the set of opened backends.
type Stores struct {
	Users service.UserStore
	OTPs  service.OTPStore
	// Purger is set when the OTP store has no native expiry and must be swept.
	Purger service.ExpiredPurger

	closers []func(context.Context) error
}

// Open connects the backend named by cfg.StoreDriver. When cfg.RedisURL is
// set, one-time codes are kept in Redis instead.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	s := &Stores{}

	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := repository.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		otps := repository.NewOTPRepository(db)
		s.Users = repository.NewUserRepository(db)
		s.OTPs = otps
		s.Purger = otps
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })

	case config.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.Users = ms.Users()
		s.OTPs = ms.OTPs()
		s.closers = append(s.closers, ms.Close)

	case config.DriverMemory:
		otps := memory.NewOTPRepository()
		s.Users = memory.NewUserRepository()
		s.OTPs = otps
		s.Purger = otps

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
		s.OTPs = redisstore.NewOTPRepository(client)
		s.Purger = nil
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
	}

	logger.Info("stores opened", "driver", cfg.StoreDriver, "otp_store", otpBackend(cfg), "sweeper", s.Purger != nil)
	return s, nil
}

// Close releases every backend connection.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func otpBackend(cfg config.Config) string {
	if cfg.RedisURL != "" {
		return "redis"
	}
	return cfg.StoreDriver
}
