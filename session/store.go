package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no entry exists for the session ID.
	ErrNotFound = errors.New("session not found")
	// ErrRevoked is returned when the entry exists but is no longer active.
	ErrRevoked = errors.New("session revoked")
	// ErrRedisUnavailable is returned when the entry store cannot be reached.
	ErrRedisUnavailable = errors.New("session store unavailable")
)

// Store is the Redis-backed session entry store. Keys carry no TTL:
// entries outlive both expiry and revocation so the trail stays
// auditable, and a per-user set indexes entries for revoke-all.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session entry store. prefix namespaces the Redis
// keys; the default is "ase".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ase"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "u:" + userID
}

// Save persists a new entry and indexes it under its user.
func (s *Store) Save(ctx context.Context, entry *Entry) error {
	data, err := Encode(entry)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(entry.SessionID), data, 0)
		pipe.SAdd(ctx, s.userKey(entry.UserID), entry.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves an entry by session ID, active or not.
func (s *Store) Get(ctx context.Context, sessionID string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	entry, err := Decode(data)
	if err != nil {
		return nil, err
	}
	entry.SessionID = sessionID
	return entry, nil
}

// Revoke marks the entry inactive. The record itself is kept. Revoking
// an already inactive entry is a no-op.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	const maxRetries = 4
	key := s.key(sessionID)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			entry, err := Decode(data)
			if err != nil {
				return err
			}
			if !entry.Active {
				return nil
			}

			entry.Active = false
			updated, err := Encode(entry)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, 0)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: revoke retries exhausted", ErrRedisUnavailable)
}

// RevokeAllForUser marks every indexed entry for the user inactive.
// Entries that disappeared from under the index are skipped.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	sessionIDs, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	for _, sessionID := range sessionIDs {
		if err := s.Revoke(ctx, sessionID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

// ActiveSessionIDs returns the indexed session IDs for a user that are
// still marked active.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	sessionIDs, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	active := make([]string, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		entry, err := s.Get(ctx, sessionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if entry.Active {
			active = append(active, sessionID)
		}
	}
	return active, nil
}

// Ping reports entry-store reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
