package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/caldermed/medauth"
)

// watchdog detects server-side deletion of the signed-in user's profile
// through two independent signals: a realtime push subscription on the
// profile row and a fallback poll. Either signal fires the same idempotent
// sign-out; both are cancelled together when the session ends.
type watchdog struct {
	userID    string
	cancel    context.CancelFunc
	unsubPush func()
	wg        sync.WaitGroup
}

// ensureWatchdog starts the watchdog for userID if it is not already
// running for that user.
func (c *Controller) ensureWatchdog(userID string) {
	if !c.alive.Load() || userID == "" {
		return
	}

	c.mu.Lock()
	if c.watch != nil && c.watch.userID == userID {
		c.mu.Unlock()
		return
	}
	prev := c.watch

	ctx, cancel := context.WithCancel(context.Background())
	w := &watchdog{userID: userID, cancel: cancel}
	c.watch = w
	c.mu.Unlock()

	if prev != nil {
		prev.stop()
	}

	// Push path: immediate detection while the channel stays up.
	if unsub, err := c.svc.OnProfileDeleted(ctx, userID, func() {
		c.onProfileGone(userID)
	}); err == nil {
		w.unsubPush = unsub
	}
	// Poll path: bounded-latency fallback for dropped channels.
	w.wg.Add(1)
	go c.pollProfile(ctx, w)
}

func (c *Controller) stopWatchdog() {
	c.mu.Lock()
	w := c.watch
	c.watch = nil
	c.mu.Unlock()

	if w != nil {
		w.stop()
	}
}

func (w *watchdog) stop() {
	w.cancel()
	if w.unsubPush != nil {
		w.unsubPush()
	}
	w.wg.Wait()
}

func (c *Controller) pollProfile(ctx context.Context, w *watchdog) {
	defer w.wg.Done()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := c.svc.Profile(ctx, w.userID)
			if err == nil {
				continue
			}
			// Only confirmed absence forces a sign-out. A flaky network is
			// not a deleted profile.
			if errors.Is(err, medauth.ErrProfileMissing) {
				c.onProfileGone(w.userID)
				return
			}
		}
	}
}

// onProfileGone handles a confirmed profile deletion: an immediate,
// idempotent sign-out. The push and poll paths may both report the same
// deletion; the second report finds the sign-out already done and returns.
func (c *Controller) onProfileGone(userID string) {
	if !c.alive.Load() {
		return
	}

	c.mu.Lock()
	stillCurrent := c.state.User != nil && c.state.User.ID == userID
	c.mu.Unlock()
	if !stillCurrent {
		return
	}

	// Detached from the watchdog goroutine so stopWatchdog inside SignOut
	// cannot deadlock on the poll goroutine's WaitGroup.
	go func() {
		_ = c.SignOut(context.Background())
	}()
}
