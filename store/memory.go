package store

import (
	"context"
	"sync"
	"time"
)

// Memory is the ephemeral single-process backend. Contents are lost on
// restart, which the design tolerates: callers simply re-issue. All
// mutation happens under one mutex, which gives IncrementAttempts and
// MarkConsumed the atomicity the contract requires.
type Memory struct {
	mu    sync.Mutex
	byID  map[string]*Challenge
	byKey map[string][]*Challenge

	now func() time.Time
}

// NewMemory returns an empty in-process challenge store.
func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]*Challenge),
		byKey: make(map[string][]*Challenge),
		now:   time.Now,
	}
}

func challengeKey(email, phone, purpose string) string {
	identifier := email
	if identifier == "" {
		identifier = phone
	}
	return purpose + ":" + identifier
}

// Put records a new challenge. The newest entry for a key wins on
// GetActive; older unconsumed entries stay in place as superseded.
func (m *Memory) Put(_ context.Context, ch *Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *ch
	stored.CreatedAt = m.now().UnixMilli()

	key := challengeKey(stored.Email, stored.Phone, stored.Purpose)
	m.byID[stored.ID] = &stored
	m.byKey[key] = append(m.byKey[key], &stored)

	ch.CreatedAt = stored.CreatedAt
	return nil
}

// GetActive returns a copy of the most recently created non-consumed
// challenge for (identifier, purpose). Expiry is not judged here; the
// challenge manager needs the expired record to consume it.
func (m *Memory) GetActive(_ context.Context, email, phone, purpose string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.byKey[challengeKey(email, phone, purpose)]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Consumed {
			continue
		}
		out := *entries[i]
		return &out, nil
	}
	return nil, ErrNotFound
}

// IncrementAttempts bumps the attempt counter and returns the
// post-increment value. Consumed challenges are immutable and report
// ErrNotFound.
func (m *Memory) IncrementAttempts(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.byID[id]
	if !ok || ch.Consumed {
		return 0, ErrNotFound
	}
	ch.Attempts++
	return ch.Attempts, nil
}

// MarkConsumed flips the terminal flag. Marking an already consumed
// challenge is a no-op.
func (m *Memory) MarkConsumed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	ch.Consumed = true
	return nil
}

// Ping always succeeds; the process-local store cannot be unreachable.
func (m *Memory) Ping(context.Context) error {
	return nil
}
