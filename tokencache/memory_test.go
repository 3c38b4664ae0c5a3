package tokencache

import (
	"context"
	"testing"
	"time"
)

func newClockedMemory() (*Memory, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.SetNow(func() time.Time { return now })
	return m, &now
}

func TestMemoryGetBeforeExpiry(t *testing.T) {
	m, _ := newClockedMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "tok", time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	tok, present, err := m.Get(ctx, "k")
	if err != nil || !present || tok != "tok" {
		t.Fatalf("get = (%q, %v, %v), want (tok, true, nil)", tok, present, err)
	}
}

func TestMemoryExpiryIsCheckedOnRead(t *testing.T) {
	m, now := newClockedMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "tok", time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	*now = now.Add(time.Second)
	if _, present, _ := m.Get(ctx, "k"); present {
		t.Fatal("expired entry must not be observable")
	}
	// The expired entry was evicted, not just hidden.
	if has, _ := m.Has(ctx, "k"); has {
		t.Fatal("Has must apply the same expiry check as Get")
	}
}

func TestMemoryHasMatchesGet(t *testing.T) {
	m, now := newClockedMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "k", "tok", 2*time.Second)
	if has, _ := m.Has(ctx, "k"); !has {
		t.Fatal("expected Has true before expiry")
	}
	*now = now.Add(3 * time.Second)
	if has, _ := m.Has(ctx, "k"); has {
		t.Fatal("expected Has false after expiry")
	}
}

func TestMemoryClear(t *testing.T) {
	m, _ := newClockedMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "a", "1", time.Minute)
	_ = m.Set(ctx, "b", "2", time.Minute)
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, present, _ := m.Get(ctx, k); present {
			t.Fatalf("key %q survived Clear", k)
		}
	}
}
