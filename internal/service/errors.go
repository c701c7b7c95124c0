package service

import "errors"

// Kind classifies a controller failure. The HTTP boundary maps each kind to
// exactly one status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidOTP
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidOTP:
		return "invalid_otp"
	case KindDelivery:
		return "delivery"
	default:
		return "internal"
	}
}

// Error is the tagged error returned by AuthService. Message is safe to show
// to callers; Err carries the underlying cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so the sentinels
// below work with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrEmailTaken          = &Error{Kind: KindConflict, Message: "User with this email already exists"}
	ErrInvalidCredentials  = &Error{Kind: KindUnauthorized, Message: "Invalid email or password"}
	ErrNotVerified         = &Error{Kind: KindForbidden, Message: "Please verify your email with OTP first"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrInvalidOTP          = &Error{Kind: KindInvalidOTP, Message: "Invalid OTP"}
	ErrInvalidOrExpiredOTP = &Error{Kind: KindInvalidOTP, Message: "Invalid or expired OTP"}
	ErrOTPExpired          = &Error{Kind: KindInvalidOTP, Message: "OTP has expired"}
)

func internalError(err error) error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

func deliveryError(err error) error {
	return &Error{Kind: KindDelivery, Message: "Failed to send OTP email", Err: err}
}

// KindOf reports the kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
