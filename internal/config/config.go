package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AadeshhhGavhane/c3/internal/crypto"
	"github.com/AadeshhhGavhane/c3/internal/notify"
)

const devJWTSecret = "dev-secret-change-in-production"

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	StoreDriver   string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret        string
	JWTExpiry        time.Duration
	OTPExpiry        time.Duration
	OTPSweepInterval time.Duration
	HashIterations   int
	HashMemoryKiB    int

	FrontendURL string

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	MailSendTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the configuration from the environment and validates it once.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:          getEnv("PORT", "3000"),
		Env:           getEnv("ENV", "development"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverMySQL)),
		DatabaseDSN:   getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/c3?parseTime=true"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "c3"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     getEnv("JWT_SECRET", devJWTSecret),
		FrontendURL:   getEnv("FRONTEND_URL", "*"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPUsername:  os.Getenv("GMAIL_USER"),
		SMTPPassword:  os.Getenv("GMAIL_APP_PASSWORD"),
	}
	cfg.SMTPFrom = getEnv("SMTP_FROM", cfg.SMTPUsername)

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	errs = append(errs, err)
	cfg.LogLevel = level

	cfg.JWTExpiry, err = parseLifetime("JWT_EXPIRES_IN", getEnv("JWT_EXPIRES_IN", "7d"))
	errs = append(errs, err)

	minutes, err := getEnvInt("OTP_EXPIRY_MINUTES", 10)
	errs = append(errs, err)
	cfg.OTPExpiry = time.Duration(minutes) * time.Minute

	cfg.OTPSweepInterval, err = getEnvDuration("OTP_SWEEP_INTERVAL", time.Minute)
	errs = append(errs, err)

	defaults := crypto.DefaultHashParams()
	cfg.HashIterations, err = getEnvInt("HASH_ITERATIONS", int(defaults.Iterations))
	errs = append(errs, err)

	cfg.HashMemoryKiB, err = getEnvInt("HASH_MEMORY_KB", int(defaults.Memory))
	errs = append(errs, err)

	cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587)
	errs = append(errs, err)

	cfg.MailSendTimeout, err = getEnvDuration("MAIL_SEND_TIMEOUT", 30*time.Second)
	errs = append(errs, err)

	cfg.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", 5)
	errs = append(errs, err)

	cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 10)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMySQL, DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of mysql, mongo, memory, got %q", c.StoreDriver))
	}

	if c.IsProduction() {
		if c.JWTSecret == devJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production environment"))
		} else if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
		}
		if c.StoreDriver == DriverMemory {
			errs = append(errs, errors.New("STORE_DRIVER=memory is not allowed in production"))
		}
	}

	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.OTPExpiry <= 0 {
		errs = append(errs, errors.New("OTP_EXPIRY_MINUTES must be positive"))
	}
	if c.OTPSweepInterval <= 0 {
		errs = append(errs, errors.New("OTP_SWEEP_INTERVAL must be positive"))
	}
	if c.HashIterations < crypto.MinHashIterations || c.HashIterations > crypto.MaxHashIterations {
		errs = append(errs, fmt.Errorf("HASH_ITERATIONS must be between %d and %d", crypto.MinHashIterations, crypto.MaxHashIterations))
	}
	if c.HashMemoryKiB < crypto.MinHashMemoryKiB || c.HashMemoryKiB > crypto.MaxHashMemoryKiB {
		errs = append(errs, fmt.Errorf("HASH_MEMORY_KB must be between %d and %d", crypto.MinHashMemoryKiB, crypto.MaxHashMemoryKiB))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT %d out of range", c.SMTPPort))
	}
	if c.MailSendTimeout <= 0 {
		errs = append(errs, errors.New("MAIL_SEND_TIMEOUT must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// HashParams returns the Argon2id parameters for new password hashes.
func (c Config) HashParams() crypto.HashParams {
	p := crypto.DefaultHashParams()
	p.Iterations = uint32(c.HashIterations)
	p.Memory = uint32(c.HashMemoryKiB)
	return p
}

// Notifier builds the notifier configuration. It is the single place that
// decides between real delivery and the log fallback.
func (c Config) Notifier() notify.Config {
	return notify.Config{
		Host:          c.SMTPHost,
		Port:          c.SMTPPort,
		Username:      c.SMTPUsername,
		Password:      c.SMTPPassword,
		From:          c.SMTPFrom,
		SendTimeout:   c.MailSendTimeout,
		ExpiryMinutes: int(c.OTPExpiry / time.Minute),
	}
}

// LogSummary reports the effective configuration without secrets.
func (c Config) LogSummary(logger *slog.Logger) {
	logger.Info("configuration loaded",
		"env", c.Env,
		"store", c.StoreDriver,
		"redis_otp_store", c.RedisURL != "",
		"otp_expiry", c.OTPExpiry,
		"jwt_expiry", c.JWTExpiry,
	)
	if c.Notifier().Configured() {
		logger.Info("email delivery configured", "host", c.SMTPHost, "port", c.SMTPPort, "from", c.SMTPFrom)
	} else {
		logger.Warn("GMAIL_USER or GMAIL_APP_PASSWORD not set, OTP codes will be logged instead of emailed")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return parseLifetime(key, v)
}

// parseLifetime accepts Go durations plus a whole-day form such as "7d".
func parseLifetime(key, v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("%s: invalid duration %q", key, v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: invalid level %q", v)
	}
	return level, nil
}
