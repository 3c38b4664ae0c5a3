package tokencache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// Memory is the in-process [Cache] backend: a mutex-guarded map with lazy,
// read-time eviction.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory describes the newmemory operation and its observable behavior.
func NewMemory() *Memory {
	return &Memory{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

// SetNow overrides the cache clock. Tests only.
func (m *Memory) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Set describes the set operation and its observable behavior.
func (m *Memory) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		token:     token,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Get describes the get operation and its observable behavior.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[key]
	if !exists {
		return "", false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.token, true, nil
}

// Has describes the has operation and its observable behavior.
func (m *Memory) Has(ctx context.Context, key string) (bool, error) {
	_, present, err := m.Get(ctx, key)
	return present, err
}

// Clear describes the clear operation and its observable behavior.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]memoryEntry{}
	return nil
}
