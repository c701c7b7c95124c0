package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"syscall"
)

// SMTPNotifier sends codes over SMTP. Port 465 uses implicit TLS; any other
// port upgrades with STARTTLS when the server offers it.
type SMTPNotifier struct {
	cfg    Config
	logger *slog.Logger
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg Config, logger *slog.Logger) *SMTPNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// SendCode renders the code email and delivers it. The send is bounded by
// the configured SendTimeout in addition to ctx.
func (n *SMTPNotifier) SendCode(ctx context.Context, email, code string) error {
	body, err := renderCode(code, n.cfg.ExpiryMinutes)
	if err != nil {
		return fmt.Errorf("%w: render template: %v", ErrDelivery, err)
	}

	if n.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.SendTimeout)
		defer cancel()
	}

	if err := n.send(ctx, email, buildMessage(n.cfg.From, email, subject, body)); err != nil {
		n.logger.ErrorContext(ctx, "sending OTP email failed", "email", email, "error", err, "hint", failureHint(err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	n.logger.InfoContext(ctx, "OTP email sent", "email", email)
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, to, message string) error {
	client, err := n.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := client.Mail(parseAddress(n.cfg.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}

// dial opens the connection and ties its lifetime to ctx, so a timeout or
// cancellation aborts any blocked read or write.
func (n *SMTPNotifier) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	tlsConfig := &tls.Config{ServerName: n.cfg.Host}

	var conn net.Conn
	var err error
	if n.cfg.Port == 465 {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		stop()
		conn.Close()
		return nil, fmt.Errorf("greeting: %w", err)
	}

	if n.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				stop()
				client.Close()
				return nil, fmt.Errorf("starttls: %w", err)
			}
		}
	}

	return client, nil
}

func buildMessage(from, to, subject, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		body,
	}
	return strings.Join(headers, "\r\n")
}

func parseAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}

func failureHint(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "connection timeout, the host may be blocking outbound SMTP"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused, check SMTP_HOST and SMTP_PORT"
	case strings.HasPrefix(err.Error(), "auth:"):
		return "authentication failed, check GMAIL_USER and GMAIL_APP_PASSWORD"
	default:
		return "unexpected SMTP failure"
	}
}
