package model

import "time"

// OneTimeCode is a 4-digit code proving control of an email address.
// At most one live code exists per email.
type OneTimeCode struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// EmailRequest carries a single email address (send-otp, forgot-password).
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest represents an OTP verification request.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp"`
}

// ResetPasswordRequest represents a password reset completion request.
// ConfirmPassword is optional; when present it must match NewPassword.
type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required,otp"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"omitempty,eqfield=NewPassword"`
}
