package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/caldermed/medauth"
)

// Config holds the runtime-specific knobs of a [Controller]. The web and
// mobile runtimes share one state machine and differ only here.
type Config struct {
	// Runtime names the hosting runtime in diagnostics.
	Runtime string
	// PollInterval is the watchdog's fallback poll cadence.
	PollInterval time.Duration
}

// DefaultWebConfig returns the configuration the web runtime ships with.
func DefaultWebConfig() Config {
	return Config{Runtime: "web", PollInterval: 30 * time.Second}
}

// DefaultMobileConfig returns the configuration the mobile runtime ships
// with. Mobile polls at the same cadence but keeps the slot for
// battery-driven tuning.
func DefaultMobileConfig() Config {
	return Config{Runtime: "mobile", PollInterval: 30 * time.Second}
}

// Controller defines a public type used by medauth APIs.
//
// Controller is the single owner of AuthState for one application instance.
// All exported methods are safe for concurrent use after Start.
type Controller struct {
	svc *medauth.Service
	cfg Config

	mu        sync.Mutex
	state     medauth.AuthState
	listeners map[string]func(medauth.AuthState)

	unsubBroadcast func()
	watch          *watchdog

	alive      atomic.Bool
	signingOut atomic.Bool
	closeOnce  sync.Once
}

// New creates a controller over svc with the given runtime configuration.
func New(svc *medauth.Service, cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Controller{
		svc:       svc,
		cfg:       cfg,
		state:     medauth.AuthState{Loading: true},
		listeners: map[string]func(medauth.AuthState){},
	}
}

// NewWeb creates the web runtime's controller.
func NewWeb(svc *medauth.Service) *Controller {
	return New(svc, DefaultWebConfig())
}

// NewMobile creates the mobile runtime's controller.
func NewMobile(svc *medauth.Service) *Controller {
	return New(svc, DefaultMobileConfig())
}

// Start describes the start operation and its observable behavior.
//
// Start may return an error when input validation, dependency calls, or security checks fail.
// It restores the persisted session, fetches the user and profile when one
// exists, and subscribes to the service broadcast. Whatever happens, the
// controller leaves Start with Loading false: failures produce the default
// signed-out state plus a populated Error, never a stuck loading screen.
func (c *Controller) Start(ctx context.Context) error {
	if !c.alive.CompareAndSwap(false, true) {
		return errors.New("controller: already started")
	}

	c.unsubBroadcast = c.svc.OnAuthStateChange(c.applySnapshot)

	defer func() {
		if r := recover(); r != nil {
			c.setState(medauth.AuthState{
				Error: &medauth.AuthError{Kind: medauth.KindUnknown, Message: "An unexpected error occurred. Please try again."},
			})
		}
	}()

	sess, err := c.svc.Session(ctx)
	if err != nil {
		c.setState(medauth.AuthState{Error: medauth.AsAuthError(err)})
		return err
	}
	if sess == nil {
		c.setState(medauth.AuthState{})
		return nil
	}

	st := medauth.AuthState{Session: sess}
	if user, uerr := c.svc.User(ctx); uerr == nil {
		st.User = user
	} else {
		st.User = &medauth.User{ID: sess.UserID}
	}
	if profile, perr := c.svc.Profile(ctx, sess.UserID); perr == nil {
		st.Profile = profile
	}
	c.setState(st)
	c.ensureWatchdog(sess.UserID)
	return nil
}

// Close tears the controller down: the watchdog, the push subscription, and
// the broadcast listener stop synchronously; results of network calls still
// in flight are discarded via the liveness flag. Safe to call repeatedly.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.alive.Store(false)
		c.stopWatchdog()
		if c.unsubBroadcast != nil {
			c.unsubBroadcast()
		}
	})
}

// State returns a copy of the current auth state.
func (c *Controller) State() medauth.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a UI observer called after every state transition with
// a copy of the new state. The returned closure removes exactly this
// observer.
func (c *Controller) Subscribe(fn func(medauth.AuthState)) (unsubscribe func()) {
	key := uuid.NewString()

	c.mu.Lock()
	c.listeners[key] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, key)
	}
}

// setState replaces the whole state. Mutations after Close are discarded.
func (c *Controller) setState(st medauth.AuthState) {
	if !c.alive.Load() {
		return
	}
	c.mu.Lock()
	c.state = st
	fns := c.listenerList()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// mutateState applies fn to the current state under the lock.
func (c *Controller) mutateState(mutate func(*medauth.AuthState)) {
	if !c.alive.Load() {
		return
	}
	c.mu.Lock()
	mutate(&c.state)
	st := c.state
	fns := c.listenerList()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (c *Controller) listenerList() []func(medauth.AuthState) {
	fns := make([]func(medauth.AuthState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// applySnapshot merges one broadcast snapshot into the current state. A
// fully empty snapshot is a sign-out and resets the state; otherwise the
// merge is shallow so partial snapshots do not erase known fields. Snapshot
// profiles overwrite optimistic local merges unconditionally.
func (c *Controller) applySnapshot(snap medauth.AuthState) {
	if !c.alive.Load() {
		return
	}

	if snap.User == nil && snap.Session == nil {
		c.mutateState(func(st *medauth.AuthState) {
			loading := st.Loading
			*st = medauth.AuthState{Loading: loading}
		})
		c.stopWatchdog()
		return
	}

	c.mutateState(func(st *medauth.AuthState) {
		if snap.User != nil {
			st.User = snap.User
		}
		if snap.Session != nil {
			st.Session = snap.Session
		}
		if snap.Profile != nil {
			st.Profile = snap.Profile
		}
		st.Error = nil
	})

	if snap.User != nil {
		c.ensureWatchdog(snap.User.ID)
	}
}

// beginAction marks an action in flight: Loading true, Error cleared.
func (c *Controller) beginAction() {
	c.mutateState(func(st *medauth.AuthState) {
		st.Loading = true
		st.Error = nil
	})
}

// endAction clears Loading and records err (nil on success). It runs on
// every exit path of every action, panics included.
func (c *Controller) endAction(err error) {
	c.mutateState(func(st *medauth.AuthState) {
		st.Loading = false
		st.Error = medauth.AsAuthError(err)
	})
}
