package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AadeshhhGavhane/c3/internal/crypto"
	"github.com/AadeshhhGavhane/c3/internal/model"
	"github.com/AadeshhhGavhane/c3/internal/notify"
)

// resetOTPExpiry is the lifetime of forgot-password codes. It does not follow
// the configurable signup expiry.
const resetOTPExpiry = 10 * time.Minute

// UserStore persists user records. Emails passed in are already normalized.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetVerified(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// OTPStore persists one-time codes.
type OTPStore interface {
	DeleteAllForEmail(ctx context.Context, email string) error
	Create(ctx context.Context, otp *model.OneTimeCode) error
	GetByEmailAndCode(ctx context.Context, email, code string) (*model.OneTimeCode, error)
	DeleteByID(ctx context.Context, id string) error
}

// AuthConfig holds the tunables of the auth flow.
type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	OTPExpiry  time.Duration
	HashParams crypto.HashParams
	Logger     *slog.Logger
	Now        func() time.Time
}

// AuthService handles authentication business logic: registration, sign-in,
// email verification and password reset.
type AuthService struct {
	users    UserStore
	otps     OTPStore
	notifier notify.Notifier

	jwtSecret  string
	jwtExpiry  time.Duration
	otpExpiry  time.Duration
	hashParams crypto.HashParams
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, otps OTPStore, notifier notify.Notifier, cfg AuthConfig) *AuthService {
	s := &AuthService{
		users:      users,
		otps:       otps,
		notifier:   notifier,
		jwtSecret:  cfg.JWTSecret,
		jwtExpiry:  cfg.JWTExpiry,
		otpExpiry:  cfg.OTPExpiry,
		hashParams: cfg.HashParams,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if s.otpExpiry <= 0 {
		s.otpExpiry = 10 * time.Minute
	}
	if s.hashParams == (crypto.HashParams{}) {
		s.hashParams = crypto.DefaultHashParams()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register creates an unverified user and emails a verification code.
// A delivery failure is reported after the user has been stored; the
// account stays unverified until the code is resent.
func (s *AuthService) Register(ctx context.Context, req model.SignUpRequest) (model.UserResponse, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.UserResponse{}, ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.UserResponse{}, internalError(err)
	}

	hash, err := crypto.HashPassword(req.Password, s.hashParams)
	if err != nil {
		return model.UserResponse{}, internalError(err)
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, internalError(err)
	}

	s.logger.Info("user registered", "user_id", user.ID)

	if err := s.issueCode(ctx, email, s.otpExpiry); err != nil {
		return model.UserResponse{}, err
	}

	return user.ToResponse(), nil
}

// Login authenticates a verified user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req model.SignInRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, internalError(err)
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, internalError(err)
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return model.AuthResponse{}, ErrNotVerified
	}

	token, err := crypto.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, internalError(err)
	}

	return model.AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// SendOTP replaces the verification code of an existing user and emails it.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return internalError(err)
	}

	return s.issueCode(ctx, email, s.otpExpiry)
}

// VerifyOTP consumes a code and marks its owner verified. Unknown and wrong
// codes are reported identically.
func (s *AuthService) VerifyOTP(ctx context.Context, req model.VerifyOTPRequest) (model.UserResponse, error) {
	email := normalizeEmail(req.Email)

	otp, err := s.lookupCode(ctx, email, req.OTP, ErrInvalidOTP)
	if err != nil {
		return model.UserResponse{}, err
	}

	user, err := s.users.SetVerified(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, internalError(err)
	}

	if err := s.otps.DeleteByID(ctx, otp.ID); err != nil {
		return model.UserResponse{}, internalError(err)
	}

	s.logger.Info("user verified", "user_id", user.ID)
	return user.ToResponse(), nil
}

// ForgotPassword emails a reset code when the address is registered. The
// result is the same whether or not it is.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return internalError(err)
	}

	return s.issueCode(ctx, email, resetOTPExpiry)
}

// ResetPassword consumes a reset code and replaces the user's password hash.
// No token is issued; the user signs in again afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)

	otp, err := s.lookupCode(ctx, email, req.OTP, ErrInvalidOrExpiredOTP)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return internalError(err)
	}

	hash, err := crypto.HashPassword(req.NewPassword, s.hashParams)
	if err != nil {
		return internalError(err)
	}

	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return internalError(err)
	}

	if err := s.otps.DeleteByID(ctx, otp.ID); err != nil {
		return internalError(err)
	}

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, internalError(err)
	}

	return user.ToResponse(), nil
}

// lookupCode finds the live code for (email, code). An expired record is
// deleted and reported as expired.
func (s *AuthService) lookupCode(ctx context.Context, email, code string, notFound error) (*model.OneTimeCode, error) {
	otp, err := s.otps.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, model.ErrOTPNotFound) {
			return nil, notFound
		}
		return nil, internalError(err)
	}

	if otp.Expired(s.now()) {
		if err := s.otps.DeleteByID(ctx, otp.ID); err != nil {
			return nil, internalError(err)
		}
		return nil, ErrOTPExpired
	}
	return otp, nil
}

// issueCode replaces any codes held by email with a fresh one and sends it.
// The code is stored before delivery so a failed send can be retried by
// requesting a new code.
func (s *AuthService) issueCode(ctx context.Context, email string, ttl time.Duration) error {
	code, err := crypto.GenerateOTP()
	if err != nil {
		return internalError(err)
	}

	if err := s.otps.DeleteAllForEmail(ctx, email); err != nil {
		return internalError(err)
	}

	now := s.now()
	otp := &model.OneTimeCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return internalError(err)
	}

	if err := s.notifier.SendCode(ctx, email, code); err != nil {
		s.logger.Error("otp delivery failed", "error", err)
		return deliveryError(fmt.Errorf("send code: %w", err))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
