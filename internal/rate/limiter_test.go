package rate

import (
	"context"
	"testing"
	"time"
)

func newClockedLimiter(max int, window time.Duration) (*Memory, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(Config{MaxAttempts: max, Window: window})
	m.SetNow(func() time.Time { return now })
	return m, &now
}

func TestMemoryBudget(t *testing.T) {
	m, _ := newClockedLimiter(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := m.Allow(ctx, "a@b.com")
		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed=%v err=%v, want admitted", i+1, allowed, err)
		}
	}
	if allowed, _ := m.Allow(ctx, "a@b.com"); allowed {
		t.Fatal("6th attempt inside the window must be denied")
	}
}

func TestMemoryResetClearsHistory(t *testing.T) {
	m, _ := newClockedLimiter(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = m.Allow(ctx, "a@b.com")
	}
	if err := m.Reset(ctx, "a@b.com"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if allowed, _ := m.Allow(ctx, "a@b.com"); !allowed {
		t.Fatal("attempt after Reset must be admitted")
	}
}

func TestMemoryWindowSlides(t *testing.T) {
	m, now := newClockedLimiter(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = m.Allow(ctx, "a@b.com")
	}
	if allowed, _ := m.Allow(ctx, "a@b.com"); allowed {
		t.Fatal("budget exhausted, expected denial")
	}

	*now = now.Add(15*time.Minute + time.Second)
	if allowed, _ := m.Allow(ctx, "a@b.com"); !allowed {
		t.Fatal("attempts outside the trailing window must not count")
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m, _ := newClockedLimiter(1, time.Minute)
	ctx := context.Background()

	if allowed, _ := m.Allow(ctx, "a@b.com"); !allowed {
		t.Fatal("first attempt for a must be admitted")
	}
	if allowed, _ := m.Allow(ctx, "b@c.com"); !allowed {
		t.Fatal("b's budget must be untouched by a's attempts")
	}
	if allowed, _ := m.Allow(ctx, "a@b.com"); allowed {
		t.Fatal("a's budget is exhausted")
	}
}
