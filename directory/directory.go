// Package directory defines the User Directory collaborator: lookup and
// creation of user records by email or phone. The OTP subsystem only
// consumes this narrow interface; account CRUD beyond it lives elsewhere.
package directory

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user record matches the identifier.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a record already exists for the identifier.
	ErrDuplicate = errors.New("user already exists")
	// ErrUnavailable is returned when the directory backend cannot be reached.
	ErrUnavailable = errors.New("user directory unavailable")
)

// UserRecord mirrors the storefront's user row.
type UserRecord struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	IsVerified       bool
	RegistrationDate time.Time
	LastLoginDate    time.Time
}

// Profile carries the fields a registration supplies. Exactly one of
// Email or Phone must be set; it doubles as the unique identifier.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (p Profile) identifier() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Phone
}

// Directory is the collaborator contract.
//
// Create must be idempotent on the profile's identifier: a retried
// registration for the same email/phone reports ErrDuplicate instead of
// minting a second account.
type Directory interface {
	FindByIdentifier(ctx context.Context, identifier string) (*UserRecord, error)
	Create(ctx context.Context, profile Profile) (*UserRecord, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
