package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caldermed/medauth"
)

func TestWatchdogPushSignsOutOnDeletion(t *testing.T) {
	c, fake, id := signedInController(t, DefaultWebConfig())

	fake.DeleteProfile(id)

	waitFor(t, time.Second, func() bool {
		return !c.State().SignedIn()
	})
	if st := c.State(); st.Error != nil {
		t.Fatalf("a forced sign-out is not an error state, got %+v", st.Error)
	}
}

func TestWatchdogPollDetectsSilentDeletion(t *testing.T) {
	cfg := Config{Runtime: "web", PollInterval: 10 * time.Millisecond}
	c, fake, id := signedInController(t, cfg)

	// The push channel never hears about this one; only the poll can.
	fake.DropProfile(id)

	waitFor(t, 2*time.Second, func() bool {
		return !c.State().SignedIn()
	})
}

func TestWatchdogIgnoresNetworkErrors(t *testing.T) {
	c, fake, svc := newTestController(t, Config{Runtime: "web", PollInterval: 10 * time.Millisecond})
	fake.Seed("ada@example.com", "Correct1!", nil)
	if _, err := svc.SignIn(context.Background(), medauth.Credential{Email: "ada@example.com", Password: "Correct1!"}); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	// Every profile poll from here on fails like a flaky network would.
	fake.FailWith = errors.New("connection reset by peer")
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !c.State().SignedIn() {
		t.Fatal("expected a restored session despite the profile fetch failing")
	}

	// Let several polls fail.
	time.Sleep(100 * time.Millisecond)

	if !c.State().SignedIn() {
		t.Fatal("network errors must never force a sign-out")
	}
}

func TestWatchdogRetargetsOnUserSwitch(t *testing.T) {
	c, fake, firstID := signedInController(t, DefaultWebConfig())

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	fake.Seed("bob@example.com", "Correct1!", map[string]any{"first_name": "Bob"})
	if err := c.SignIn(context.Background(), medauth.Credential{Email: "bob@example.com", Password: "Correct1!"}); err != nil {
		t.Fatalf("second sign-in failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return c.State().SignedIn()
	})

	// Deleting the previous user's profile must not touch the new session.
	fake.DeleteProfile(firstID)
	time.Sleep(50 * time.Millisecond)

	if !c.State().SignedIn() {
		t.Fatal("the watchdog acted on a stale user")
	}
}
