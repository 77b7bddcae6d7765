package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anpurna-aahar/otpauth/directory"
	"github.com/anpurna-aahar/otpauth/token"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, _ := newTestStore(t)

	tokens, err := token.NewManager(token.Config{
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte("test-signing-secret-0123456789ab"),
	})
	if err != nil {
		t.Fatalf("token.NewManager: %v", err)
	}

	return NewManager(s, tokens, 24*time.Hour, 30*24*time.Hour)
}

func testUser() *directory.UserRecord {
	return &directory.UserRecord{
		ID:        "user-1",
		FirstName: "Asha",
		LastName:  "Patil",
		Email:     "asha@example.com",
	}
}

func TestIssueAndValidate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cred, err := m.Issue(ctx, testUser(), false, Client{IP: "203.0.113.7", UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if cred.Token == "" || cred.SessionID == "" {
		t.Fatal("credential missing token or session ID")
	}

	claims, err := m.Validate(ctx, cred.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UID != "user-1" || claims.SID != cred.SessionID {
		t.Fatalf("claims uid=%s sid=%s", claims.UID, claims.SID)
	}

	entry, err := m.store.Get(ctx, cred.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.IP != "203.0.113.7" || entry.UserAgent != "test-agent" {
		t.Fatal("client metadata not recorded")
	}
}

func TestIssueLifetimes(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	plain, err := m.Issue(ctx, testUser(), false, Client{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(plain.ExpiresAt); until < 23*time.Hour || until > 24*time.Hour {
		t.Fatalf("plain session lifetime %v, want about 24h", until)
	}

	remembered, err := m.Issue(ctx, testUser(), true, Client{})
	if err != nil {
		t.Fatalf("Issue remember-me: %v", err)
	}
	if until := time.Until(remembered.ExpiresAt); until < 719*time.Hour || until > 720*time.Hour {
		t.Fatalf("remember-me lifetime %v, want about 720h", until)
	}
}

func TestValidateRevoked(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cred, err := m.Issue(ctx, testUser(), false, Client{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := m.Revoke(ctx, cred.SessionID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := m.Validate(ctx, cred.Token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}

	active, err := m.IsActive(ctx, cred.SessionID)
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if active {
		t.Fatal("revoked session reported active")
	}
}

func TestValidateEntryExpiry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cred, err := m.Issue(ctx, testUser(), false, Client{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// The token is still signed-valid; only the entry clock has moved.
	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if _, err := m.Validate(ctx, cred.Token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked past entry expiry, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Validate(context.Background(), "not-a-token"); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRevokeAllForUserManager(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Issue(ctx, testUser(), false, Client{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := m.Issue(ctx, testUser(), true, Client{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := m.RevokeAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	for _, cred := range []*Credential{first, second} {
		if _, err := m.Validate(ctx, cred.Token); !errors.Is(err, ErrRevoked) {
			t.Fatalf("expected ErrRevoked for %s, got %v", cred.SessionID, err)
		}
	}
}
