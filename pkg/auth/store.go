package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoToken indicates the store holds no (unexpired) token.
var ErrNoToken = errors.New("no stored token")

// Store keeps the current token between aggregations.
type Store interface {
	// Get returns ErrNoToken when nothing usable is stored.
	Get(ctx context.Context) (Token, error)

	// Set stores the token; ttl <= 0 keeps it until deleted.
	Set(ctx context.Context, token Token, ttl time.Duration) error

	Delete(ctx context.Context) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	token   Token
	expires time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token.IsZero() {
		return "", ErrNoToken
	}
	if !m.expires.IsZero() && !m.now().Before(m.expires) {
		m.token = ""
		return "", ErrNoToken
	}
	return m.token, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, token Token, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.expires = time.Time{}
	if ttl > 0 {
		m.expires = m.now().Add(ttl)
	}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.expires = time.Time{}
	return nil
}

var _ Store = (*MemoryStore)(nil)
