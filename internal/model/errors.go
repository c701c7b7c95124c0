package model

import "errors"

// Store sentinel errors shared by every storage backend.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrOTPNotFound    = errors.New("otp not found")
)
