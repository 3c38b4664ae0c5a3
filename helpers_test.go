package medauth

import (
	"testing"
	"time"

	"github.com/caldermed/medauth/provider"
)

func newTestService(t *testing.T) (*Service, *provider.Fake) {
	t.Helper()

	fake := provider.NewFake()
	svc, err := New().WithProvider(fake).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, fake
}

func newTestServiceWithConfig(t *testing.T, cfg Config) (*Service, *provider.Fake) {
	t.Helper()

	fake := provider.NewFake()
	svc, err := New().WithProvider(fake).WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, fake
}

// waitFor polls cond until it holds or the deadline lapses. Broadcast
// delivery is asynchronous, so state assertions go through here.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
