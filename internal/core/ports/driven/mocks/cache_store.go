package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// MockCacheStore is a mock implementation of CacheStore for testing.
// It never expires entries on its own.
type MockCacheStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	gets int
	sets int

	// Injected failures
	GetErr  error
	SetErr  error
	PingErr error
}

// NewMockCacheStore creates a new MockCacheStore
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *MockCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MockCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.entries[key] = v
	m.ttls[key] = ttl
	return nil
}

func (m *MockCacheStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	delete(m.ttls, key)
	return nil
}

func (m *MockCacheStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			delete(m.ttls, key)
			n++
		}
	}
	return n, nil
}

func (m *MockCacheStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Has reports whether key is stored
func (m *MockCacheStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// TTL returns the backend TTL key was stored with
func (m *MockCacheStore) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[key]
}

// Len returns the number of stored keys
func (m *MockCacheStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetCount returns the number of Set calls
func (m *MockCacheStore) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
