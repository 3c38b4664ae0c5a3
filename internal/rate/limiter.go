package rate

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is an exported constant or variable used by the sign-in limiter.
var ErrRateLimited = errors.New("rate limited")

// Config holds sign-in limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// SignInLimiter is the budget check applied before a sign-in reaches the
// repository.
type SignInLimiter interface {
	// Allow records an attempt for key and reports whether it is within
	// budget. The attempt is counted whether or not it is admitted.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the attempt history for key.
	Reset(ctx context.Context, key string) error
}

// Memory is the in-process sliding-window [SignInLimiter].
type Memory struct {
	config Config

	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewMemory creates a memory sign-in limiter with the given budget.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		config:   cfg,
		attempts: map[string][]time.Time{},
		now:      time.Now,
	}
}

// SetNow overrides the limiter clock. Tests only.
func (m *Memory) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Allow checks whether key is within the attempt budget, trimming timestamps
// that fell out of the trailing window first.
func (m *Memory) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.config.Window)

	recent := m.attempts[key][:0]
	for _, ts := range m.attempts[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= m.config.MaxAttempts {
		m.attempts[key] = recent
		return false, nil
	}

	m.attempts[key] = append(recent, now)
	return true, nil
}

// Reset clears the failed-attempt history for key. Called after successful
// sign-in.
func (m *Memory) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, key)
	return nil
}
