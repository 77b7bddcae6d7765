package otpauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/anpurna-aahar/otpauth/directory"
)

// resolveRegistration creates the user record for a just-verified
// identifier. A record that already exists is a duplicate registration,
// not a login.
func (e *Engine) resolveRegistration(ctx context.Context, identifier Identifier, profile RegistrationProfile) (*directory.UserRecord, error) {
	user, err := e.dir.Create(ctx, directory.Profile{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     identifier.Email,
		Phone:     identifier.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrDuplicate):
			return nil, ErrDuplicateUser
		case errors.Is(err, directory.ErrUnavailable):
			return nil, errStoreUnavailable(err)
		default:
			return nil, fmt.Errorf("create user: %w", err)
		}
	}
	return user, nil
}

// resolveLogin looks up the account behind a just-verified identifier
// and stamps the login time. Login never implicitly registers: a
// missing record is ErrUserNotFound even though the identifier itself
// was proven.
func (e *Engine) resolveLogin(ctx context.Context, identifier Identifier) (*directory.UserRecord, error) {
	user, err := e.dir.FindByIdentifier(ctx, identifier.String())
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, directory.ErrUnavailable):
			return nil, errStoreUnavailable(err)
		default:
			return nil, fmt.Errorf("find user: %w", err)
		}
	}

	// Best effort: a failed stamp must not block an otherwise valid login.
	now := e.now()
	if err := e.dir.UpdateLastLogin(ctx, user.ID, now); err == nil {
		user.LastLoginDate = now
	}

	return user, nil
}
