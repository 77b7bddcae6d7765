package otpauth

import "errors"

var (
	// ErrStoreUnavailable signals an unreachable backend. Callers may retry
	// after backoff; the wrapped cause is for logs, not for end users.
	ErrStoreUnavailable = errors.New("otp backend unavailable")
	// ErrChallengeNotFound signals no active OTP for the identifier; the
	// user must request a new one.
	ErrChallengeNotFound = errors.New("no otp found")
	// ErrChallengeExpired signals the OTP outlived its 10 minute window.
	// The challenge is consumed; the user must request a new one.
	ErrChallengeExpired = errors.New("otp expired")
	// ErrAttemptsExhausted signals too many wrong codes. The challenge is
	// consumed; the user must request a new one.
	ErrAttemptsExhausted = errors.New("otp attempts exhausted")
	// ErrCodeMismatch signals a wrong code on a still-live challenge. The
	// error message carries the remaining attempt count.
	ErrCodeMismatch = errors.New("invalid otp code")
	// ErrPurposeMismatch signals a challenge handle used for the wrong
	// flow, e.g. a login challenge passed to registration.
	ErrPurposeMismatch = errors.New("otp purpose mismatch")
	// ErrInvalidIdentifier signals an identifier with neither or both of
	// email and phone set.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrDuplicateUser signals a registration for an identifier that
	// already has an account.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrUserNotFound signals a login for an identifier with no account;
	// login never implicitly registers.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound signals a credential whose session entry is gone.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRevoked signals a credential whose session entry was
	// marked inactive.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrTokenInvalid signals a credential failing signature or expiry.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineNotReady signals use of an engine missing a required
	// dependency.
	ErrEngineNotReady = errors.New("engine not initialized")
)
