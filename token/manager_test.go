package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-signing-secret-0123456789ab")

func newHS256Manager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Issuer:        "otpauth-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestCreateAndParseHS256(t *testing.T) {
	m := newHS256Manager(t)

	signed, expiresAt, err := m.Create("user-1", "sess-1", "asha@example.com", "Asha Patil", time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("expiry %v not about an hour out", until)
	}

	claims, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UID != "user-1" || claims.SID != "sess-1" {
		t.Fatalf("claims uid=%s sid=%s", claims.UID, claims.SID)
	}
	if claims.Email != "asha@example.com" || claims.Name != "Asha Patil" {
		t.Fatalf("profile claims email=%s name=%s", claims.Email, claims.Name)
	}
}

func TestCreateAndParseEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	signed, _, err := m.Create("user-1", "sess-1", "", "", time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Parse(signed); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	m := newHS256Manager(t)

	signed, _, err := m.Create("user-1", "sess-1", "", "", time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tampered := signed[:len(signed)-2] + "xx"
	if _, err := m.Parse(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newHS256Manager(t)
	other, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("a-different-secret-entirely-0000"),
		Issuer:        "otpauth-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	signed, _, err := other.Create("user-1", "sess-1", "", "", time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newHS256Manager(t)

	signed, _, err := m.Create("user-1", "sess-1", "", "", time.Millisecond)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing hs256 key", Config{SigningMethod: MethodHS256}, "private key"},
		{"missing ed25519 public key", Config{SigningMethod: MethodEd25519}, "public key"},
		{"unknown method", Config{SigningMethod: "rs256"}, "unsupported"},
		{"excessive leeway", Config{SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: 5 * time.Minute}, "leeway"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewManager(tc.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
