package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Directory, used for tests and for deployments
// that have not wired an external user store yet.
type Memory struct {
	mu   sync.Mutex
	byID map[string]*UserRecord

	now func() time.Time
}

// NewMemory returns an empty in-process directory.
func NewMemory() *Memory {
	return &Memory{
		byID: make(map[string]*UserRecord),
		now:  time.Now,
	}
}

func (m *Memory) FindByIdentifier(_ context.Context, identifier string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user := m.lookup(identifier); user != nil {
		out := *user
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Create(_ context.Context, profile Profile) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookup(profile.identifier()) != nil {
		return nil, ErrDuplicate
	}

	user := &UserRecord{
		ID:               uuid.NewString(),
		FirstName:        profile.FirstName,
		LastName:         profile.LastName,
		Email:            profile.Email,
		Phone:            profile.Phone,
		IsVerified:       true,
		RegistrationDate: m.now(),
	}
	m.byID[user.ID] = user

	out := *user
	return &out, nil
}

func (m *Memory) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLoginDate = at
	return nil
}

func (m *Memory) lookup(identifier string) *UserRecord {
	if identifier == "" {
		return nil
	}
	for _, user := range m.byID {
		if user.Email == identifier || user.Phone == identifier {
			return user
		}
	}
	return nil
}
