package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/anpurna-aahar/otpauth/directory"
	"github.com/anpurna-aahar/otpauth/token"
)

// Client carries request metadata recorded on the entry for audit.
type Client struct {
	IP        string
	UserAgent string
}

// Credential is the result of issuing a session: the signed token the
// caller hands to the user, plus the bookkeeping identifiers.
type Credential struct {
	Token     string
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

// Manager issues signed credentials and keeps the revocation side table.
// Tokens stay cryptographically valid after revocation; consumers that
// need immediate revocation must also check the entry via Validate.
type Manager struct {
	store       *Store
	tokens      *token.Manager
	ttl         time.Duration
	rememberTTL time.Duration

	now func() time.Time
}

// NewManager wires the entry store and token manager with the two
// session lifetimes (plain and remember-me).
func NewManager(store *Store, tokens *token.Manager, ttl, rememberTTL time.Duration) *Manager {
	return &Manager{
		store:       store,
		tokens:      tokens,
		ttl:         ttl,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// Issue mints a credential for the user and records its session entry.
func (m *Manager) Issue(ctx context.Context, user *directory.UserRecord, rememberMe bool, client Client) (*Credential, error) {
	ttl := m.ttl
	if rememberMe {
		ttl = m.rememberTTL
	}

	sessionID := uuid.NewString()
	name := displayName(user)

	signed, expiresAt, err := m.tokens.Create(user.ID, sessionID, user.Email, name, ttl)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		SessionID: sessionID,
		UserID:    user.ID,
		TokenHash: sha256.Sum256([]byte(signed)),
		IP:        client.IP,
		UserAgent: client.UserAgent,
		Active:    true,
		CreatedAt: m.now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	if err := m.store.Save(ctx, entry); err != nil {
		return nil, err
	}

	return &Credential{
		Token:     signed,
		SessionID: sessionID,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate parses the credential and then consults the session entry,
// so revoked sessions fail even while the signature is still good.
func (m *Manager) Validate(ctx context.Context, rawToken string) (*token.Claims, error) {
	claims, err := m.tokens.Parse(rawToken)
	if err != nil {
		return nil, err
	}

	entry, err := m.store.Get(ctx, claims.SID)
	if err != nil {
		return nil, err
	}
	if !entry.Active {
		return nil, ErrRevoked
	}
	if m.now().Unix() > entry.ExpiresAt {
		return nil, ErrRevoked
	}

	return claims, nil
}

// Revoke marks one session inactive.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Revoke(ctx, sessionID)
}

// RevokeAllForUser marks every session of the user inactive.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.store.RevokeAllForUser(ctx, userID)
}

// IsActive reports whether a session entry exists and is active.
func (m *Manager) IsActive(ctx context.Context, sessionID string) (bool, error) {
	entry, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return entry.Active && m.now().Unix() <= entry.ExpiresAt, nil
}

func displayName(user *directory.UserRecord) string {
	switch {
	case user.FirstName != "" && user.LastName != "":
		return user.FirstName + " " + user.LastName
	case user.FirstName != "":
		return user.FirstName
	default:
		return user.LastName
	}
}
