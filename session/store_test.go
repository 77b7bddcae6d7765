package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ""), mr
}

func testEntry(sessionID, userID string) *Entry {
	now := time.Now().Unix()
	return &Entry{
		SessionID: sessionID,
		UserID:    userID,
		TokenHash: sha256.Sum256([]byte("token-" + sessionID)),
		IP:        "203.0.113.7",
		UserAgent: "test-agent",
		Active:    true,
		CreatedAt: now,
		ExpiresAt: now + 3600,
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	entry := testEntry("sess-1", "user-1")
	if err := s.Save(ctx, entry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != "sess-1" || got.UserID != "user-1" {
		t.Fatalf("got session %s user %s", got.SessionID, got.UserID)
	}
	if got.TokenHash != entry.TokenHash {
		t.Fatal("token hash did not round-trip")
	}
	if got.IP != entry.IP || got.UserAgent != entry.UserAgent {
		t.Fatalf("client metadata %q / %q did not round-trip", got.IP, got.UserAgent)
	}
	if !got.Active {
		t.Fatal("entry should be active")
	}

	// Entries carry no TTL; they are the audit trail.
	if ttl := mr.TTL("ase:sess-1"); ttl != 0 {
		t.Fatalf("entry key has TTL %v, want none", ttl)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRevokeKeepsEntry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testEntry("sess-1", "user-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Revoke(ctx, "sess-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get after revoke: %v", err)
	}
	if got.Active {
		t.Fatal("entry still active after revoke")
	}
	if got.UserID != "user-1" {
		t.Fatal("revoke destroyed entry payload")
	}

	// Revoking again is a no-op.
	if err := s.Revoke(ctx, "sess-1"); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}

func TestStoreRevokeMissing(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Revoke(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRevokeAllForUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"sess-1", "sess-2"} {
		if err := s.Save(ctx, testEntry(id, "user-1")); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := s.Save(ctx, testEntry("sess-3", "user-2")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.RevokeAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	for _, id := range []string{"sess-1", "sess-2"} {
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		if got.Active {
			t.Fatalf("session %s still active", id)
		}
	}

	other, err := s.Get(ctx, "sess-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !other.Active {
		t.Fatal("other user's session was revoked")
	}
}

func TestStoreActiveSessionIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"sess-1", "sess-2"} {
		if err := s.Save(ctx, testEntry(id, "user-1")); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := s.Revoke(ctx, "sess-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	active, err := s.ActiveSessionIDs(ctx, "user-1")
	if err != nil {
		t.Fatalf("ActiveSessionIDs: %v", err)
	}
	if len(active) != 1 || active[0] != "sess-2" {
		t.Fatalf("active = %v, want [sess-2]", active)
	}
}

func TestEntryCodecRejectsBadData(t *testing.T) {
	entry := testEntry("sess-1", "user-1")
	data, err := Encode(entry)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := Decode(data[:10]); err == nil {
		t.Fatal("expected error on truncated record")
	}

	data[0] = 99
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error on unknown version")
	}
}
