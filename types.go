package otpauth

import (
	"time"

	"github.com/anpurna-aahar/otpauth/directory"
	"github.com/anpurna-aahar/otpauth/store"
)

// Purpose is what a successful verification unlocks.
type Purpose string

const (
	// PurposeRegistration verifies an identifier for a new account.
	PurposeRegistration Purpose = "registration"
	// PurposeLogin verifies an identifier for an existing account.
	PurposeLogin Purpose = "login"
)

func (p Purpose) valid() bool {
	return p == PurposeRegistration || p == PurposeLogin
}

// Identifier is the channel being proven: exactly one of Email or Phone.
type Identifier struct {
	Email string
	Phone string
}

// EmailIdentifier builds an email identifier.
func EmailIdentifier(email string) Identifier {
	return Identifier{Email: email}
}

// PhoneIdentifier builds a phone identifier.
func PhoneIdentifier(phone string) Identifier {
	return Identifier{Phone: phone}
}

// String returns whichever side is populated.
func (i Identifier) String() string {
	if i.Email != "" {
		return i.Email
	}
	return i.Phone
}

func (i Identifier) validate() error {
	if (i.Email == "") == (i.Phone == "") {
		return ErrInvalidIdentifier
	}
	return nil
}

// ChallengeHandle is what RequestOTP returns and VerifyOTP consumes. It
// pins the flow to the backend the challenge was issued on, so a
// mid-flow availability change can never verify against the wrong store.
type ChallengeHandle struct {
	ChallengeID string
	Identifier  Identifier
	Purpose     Purpose
	Backend     store.Kind
	ExpiresAt   time.Time
}

// VerificationResult reports the outcome of a verify call. On success
// Identifier and Purpose echo the challenge metadata for downstream
// resolution; on a mismatch RemainingAttempts carries the store's
// authoritative post-increment budget.
type VerificationResult struct {
	Identifier        Identifier
	Purpose           Purpose
	Attempts          int
	RemainingAttempts int
}

// RegistrationProfile carries the profile fields a registration merges
// with the verified identifier.
type RegistrationProfile struct {
	FirstName string
	LastName  string
}

// ClientInfo is request metadata recorded on session entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AuthResult is returned by the composite register/login flows.
type AuthResult struct {
	User      *directory.UserRecord
	Token     string
	SessionID string
	ExpiresAt time.Time
}
