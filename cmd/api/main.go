package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AadeshhhGavhane/c3/internal/config"
	"github.com/AadeshhhGavhane/c3/internal/handler"
	"github.com/AadeshhhGavhane/c3/internal/notify"
	"github.com/AadeshhhGavhane/c3/internal/service"
	"github.com/AadeshhhGavhane/c3/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	cfg.LogSummary(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	stores, err := store.Open(openCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			logger.Warn("closing stores", "error", err)
		}
	}()

	if stores.Purger != nil {
		go service.RunOTPSweeper(ctx, stores.Purger, cfg.OTPSweepInterval, logger)
	}

	authService := service.NewAuthService(stores.Users, stores.OTPs, notify.New(cfg.Notifier(), logger), service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		JWTExpiry:  cfg.JWTExpiry,
		OTPExpiry:  cfg.OTPExpiry,
		HashParams: cfg.HashParams(),
		Logger:     logger,
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(handler.RouterConfig{
			Auth:           handler.NewAuthHandler(authService),
			Users:          stores.Users,
			JWTSecret:      cfg.JWTSecret,
			AllowedOrigins: cfg.FrontendURL,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
