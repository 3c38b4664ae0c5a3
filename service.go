package medauth

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/caldermed/medauth/internal/broadcast"
	"github.com/caldermed/medauth/internal/rate"
	"github.com/caldermed/medauth/internal/repo"
	"github.com/caldermed/medauth/provider"
	"github.com/caldermed/medauth/tokencache"
)

// Service defines a public type used by medauth APIs.
//
// Service instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// It is the orchestration layer between UI-facing controllers and the
// identity repository: input validation and sanitization, sign-in rate
// limiting, transparent session refresh, and the auth-state broadcast.
type Service struct {
	config     Config
	repo       *repo.Repo
	provider   provider.Client
	cache      tokencache.Cache
	limiter    rate.SignInLimiter
	dispatcher *broadcast.Dispatcher

	unsubEvents func()
	closed      atomic.Bool

	// now is the service clock. Tests may replace it before first use.
	now func() time.Time
}

func (s *Service) start() {
	if s.now == nil {
		s.now = time.Now
	}
	// One subscription to the provider's low-level event stream for the
	// lifetime of the service; every published snapshot flows through it.
	s.unsubEvents = s.provider.OnAuthEvent(s.handleProviderEvent)
}

// Close tears down the provider event subscription and the broadcast
// dispatcher. Safe to call more than once.
func (s *Service) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.unsubEvents != nil {
		s.unsubEvents()
	}
	s.dispatcher.Close()
}

// handleProviderEvent converts one provider auth event into a full snapshot:
// the session from the event, the user fetched from the server, and the
// profile re-fetched for that user. Sign-out events publish the empty
// snapshot.
func (s *Service) handleProviderEvent(ev provider.Event) {
	if s.closed.Load() {
		return
	}

	if ev.Session == nil {
		if ev.Type == provider.EventInitialSession {
			// Nothing restored from persistence; subscribers start from the
			// default state on their own.
			return
		}
		s.dispatcher.Publish(broadcast.Snapshot{})
		return
	}

	ctx := context.Background()
	snap := broadcast.Snapshot{Session: sessionRecordFromProvider(ev.Session)}

	if user, fail := s.repo.User(ctx); fail == nil {
		snap.User = user
	} else {
		// The event already proves an authenticated session; degrade to the
		// identity the session carries rather than dropping the event.
		snap.User = &repo.UserRecord{ID: ev.Session.UserID}
	}

	if profile, fail := s.repo.Profile(ctx, ev.Session.UserID); fail == nil {
		snap.Profile = profile
	}

	s.dispatcher.Publish(snap)
}

func sessionRecordFromProvider(sess *provider.Session) *repo.SessionRecord {
	if sess == nil {
		return nil
	}
	return &repo.SessionRecord{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    sess.TokenType,
		ExpiresAt:    sess.ExpiresAt,
		UserID:       sess.UserID,
	}
}

// OnAuthStateChange registers a listener for auth-state snapshots. Every
// listener receives every snapshot, in emission order; the returned closure
// unsubscribes exactly this listener without affecting others.
//
// The authoritative post-sign-in state arrives here, not through SignIn's
// return value: callers must not assume state is updated synchronously after
// a successful call resolves.
func (s *Service) OnAuthStateChange(fn func(AuthState)) (unsubscribe func()) {
	return s.dispatcher.Subscribe(func(snap broadcast.Snapshot) {
		fn(AuthState{
			User:    userFromRecord(snap.User),
			Session: sessionFromRecord(snap.Session),
			Profile: profileFromRecord(snap.Profile),
		})
	})
}

// OnProfileDeleted opens the provider's realtime push subscription for the
// given user's profile row. The session controller owns the returned
// teardown closure.
func (s *Service) OnProfileDeleted(ctx context.Context, userID string, fn func()) (func(), error) {
	return s.provider.OnProfileDeleted(ctx, userID, fn)
}
