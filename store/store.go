// Package store provides the challenge storage backends for OTP
// verification: an ephemeral in-process store and a durable
// document-store-backed one, both behind the same contract, plus the
// Selector that binds a verification flow to exactly one of them.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no active challenge matches the lookup.
	ErrNotFound = errors.New("otp challenge not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("otp store unavailable")
)

// Challenge is a single outstanding OTP verification window. Exactly one
// of Email or Phone is set. A challenge is created once, mutated only by
// attempt increments or the consumed flip, and never touched after
// Consumed is true.
type Challenge struct {
	ID        string
	Code      string
	Email     string
	Phone     string
	Purpose   string
	ExpiresAt int64 // unix milliseconds
	Attempts  int
	Consumed  bool
	CreatedAt int64 // unix milliseconds, store-assigned
}

// ChallengeStore is the contract both backends satisfy.
//
// GetActive returns the most recently created non-consumed challenge for
// (identifier, purpose); older unconsumed challenges are implicitly
// superseded, not deleted. IncrementAttempts must be atomic and returns
// the post-increment count so callers never re-derive remaining attempts
// from a stale read. MarkConsumed is terminal: the store must refuse any
// later mutation of that challenge.
type ChallengeStore interface {
	Put(ctx context.Context, ch *Challenge) error
	GetActive(ctx context.Context, email, phone, purpose string) (*Challenge, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	MarkConsumed(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Kind tags which backend a challenge lives on.
type Kind uint8

const (
	// Ephemeral is the in-process backend, lost on restart.
	Ephemeral Kind = iota
	// Durable is the external document-store backend.
	Durable
)

func (k Kind) String() string {
	switch k {
	case Durable:
		return "durable"
	default:
		return "ephemeral"
	}
}

// Backend is a ChallengeStore together with its Kind tag.
type Backend struct {
	Kind Kind
	ChallengeStore
}

// Selector owns the backend pair and implements the per-flow selection
// policy: the backend is picked once at issue time and the same backend
// must serve every later call of that flow. A challenge issued on one
// backend is never verified against the other.
type Selector struct {
	durable   ChallengeStore
	ephemeral ChallengeStore
}

// NewSelector builds a Selector. durable may be nil when no external
// store is configured; ephemeral must not be nil.
func NewSelector(durable, ephemeral ChallengeStore) *Selector {
	return &Selector{
		durable:   durable,
		ephemeral: ephemeral,
	}
}

// Pick chooses the backend for a new flow: the durable store when it is
// configured and reachable, the ephemeral store otherwise. Falling back
// here is safe because the returned Kind travels with the challenge
// handle for the rest of the flow.
func (s *Selector) Pick(ctx context.Context) Backend {
	if s.durable != nil && s.durable.Ping(ctx) == nil {
		return Backend{Kind: Durable, ChallengeStore: s.durable}
	}
	return Backend{Kind: Ephemeral, ChallengeStore: s.ephemeral}
}

// Resolve returns the backend a previously issued handle points at. If
// the durable backend was chosen at issue time but is no longer
// configured, the flow fails with ErrUnavailable rather than silently
// retargeting the ephemeral store.
func (s *Selector) Resolve(kind Kind) (Backend, error) {
	switch kind {
	case Durable:
		if s.durable == nil {
			return Backend{}, ErrUnavailable
		}
		return Backend{Kind: Durable, ChallengeStore: s.durable}, nil
	case Ephemeral:
		if s.ephemeral == nil {
			return Backend{}, ErrUnavailable
		}
		return Backend{Kind: Ephemeral, ChallengeStore: s.ephemeral}, nil
	default:
		return Backend{}, ErrUnavailable
	}
}
