package user

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory.  Each Save waits a random
// duration below MaxDelay first, to behave like a remote store in demos.
type MemoryStore struct {
	MaxDelay time.Duration

	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty store.  maxDelay of zero disables the
// simulated latency.
func NewMemoryStore(maxDelay time.Duration) *MemoryStore {
	return &MemoryStore{
		MaxDelay: maxDelay,
		byID:     make(map[string]User),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

// Save implements Store.  It returns ctx.Err() if ctx ends during the delay.
func (m *MemoryStore) Save(ctx context.Context, name, email string) (User, error) {
	if m.MaxDelay > 0 {
		t := time.NewTimer(rand.N(m.MaxDelay))
		defer t.Stop()
		select {
		case <-ctx.Done():
			return User{}, ctx.Err()
		case <-t.C:
		}
	}

	key := strings.ToLower(email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[key]; taken {
		return User{}, ErrDuplicateEmail
	}
	u := User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: m.now().UTC()}
	m.byID[u.ID] = u
	m.byEmail[key] = u.ID
	return u, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Len reports how many users are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
