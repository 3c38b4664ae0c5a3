package provider

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Fake is an in-memory [Client] for tests. Accounts and profile rows are
// plain maps; every operation that would hit the network increments Calls so
// tests can assert on round-trip counts.
type Fake struct {
	mu        sync.Mutex
	accounts  map[string]fakeAccount // email -> account
	profiles  map[string]map[string]any
	session   *Session
	listeners []*eventListener
	deletion  map[string][]func() // userID -> pending deletion callbacks

	// Calls counts network-equivalent operations.
	Calls atomic.Int64
	opsMu sync.Mutex
	ops   map[string]int
	// FailWith, when set, is returned by every network-equivalent operation.
	FailWith error
	// SessionTTL controls the expiry of newly minted sessions. Defaults to 1h.
	SessionTTL time.Duration
	// AutoConfirm mints a session on SignUp when true.
	AutoConfirm bool

	now func() time.Time
}

type fakeAccount struct {
	userID   string
	password string
	metadata map[string]string
}

// NewFake describes the newfake operation and its observable behavior.
func NewFake() *Fake {
	return &Fake{
		accounts: map[string]fakeAccount{},
		profiles: map[string]map[string]any{},
		deletion: map[string][]func(){},
		now:      time.Now,
	}
}

// SetNow overrides the fake's clock.
func (f *Fake) SetNow(now func() time.Time) { f.now = now }

func (f *Fake) countOp(name string) {
	f.Calls.Add(1)
	f.opsMu.Lock()
	if f.ops == nil {
		f.ops = map[string]int{}
	}
	f.ops[name]++
	f.opsMu.Unlock()
}

// OpCalls returns how many times the named operation hit the fake.
func (f *Fake) OpCalls(name string) int {
	f.opsMu.Lock()
	defer f.opsMu.Unlock()
	return f.ops[name]
}

// Seed registers an account and its profile row, returning the user id.
func (f *Fake) Seed(email, password string, profile map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.NewString()
	f.accounts[email] = fakeAccount{userID: id, password: password}
	if profile == nil {
		profile = map[string]any{}
	}
	profile["id"] = id
	profile["email"] = email
	f.profiles[id] = profile
	return id
}

// DeleteProfile removes the profile row for userID and fires any pending
// push callbacks, mimicking a server-side deletion.
func (f *Fake) DeleteProfile(userID string) {
	f.mu.Lock()
	delete(f.profiles, userID)
	cbs := f.deletion[userID]
	delete(f.deletion, userID)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

// DropProfile removes the profile row without firing push callbacks,
// mimicking a deletion that happens while the realtime channel is down.
func (f *Fake) DropProfile(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, userID)
}

// CurrentSession exposes the persisted session for assertions.
func (f *Fake) CurrentSession() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil
	}
	cp := *f.session
	return &cp
}

func (f *Fake) ttl() time.Duration {
	if f.SessionTTL > 0 {
		return f.SessionTTL
	}
	return time.Hour
}

func (f *Fake) mintSession(userID string) *Session {
	return &Session{
		AccessToken:  "access-" + uuid.NewString(),
		RefreshToken: "refresh-" + uuid.NewString(),
		TokenType:    "bearer",
		ExpiresAt:    f.now().Add(f.ttl()),
		UserID:       userID,
	}
}

// SetSessionExpiry rewrites the persisted session's expiry. Used by refresh
// threshold tests.
func (f *Fake) SetSessionExpiry(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session != nil {
		f.session.ExpiresAt = at
	}
}

// SignUp describes the signup operation and its observable behavior.
func (f *Fake) SignUp(ctx context.Context, creds Credentials) (*User, *Session, error) {
	f.countOp("signup")
	if f.FailWith != nil {
		return nil, nil, f.FailWith
	}

	f.mu.Lock()
	if _, exists := f.accounts[creds.Email]; exists {
		f.mu.Unlock()
		// Mirrors the provider's anti-enumeration behavior: a non-error
		// response whose user carries no linked identities.
		return &User{ID: uuid.NewString(), Email: creds.Email}, nil, nil
	}

	id := uuid.NewString()
	f.accounts[creds.Email] = fakeAccount{
		userID:   id,
		password: creds.Password,
		metadata: creds.Metadata,
	}
	// The backend trigger copies signup metadata into the profile row.
	row := map[string]any{"id": id, "email": creds.Email}
	for k, v := range creds.Metadata {
		row[k] = v
	}
	f.profiles[id] = row
	f.mu.Unlock()

	user := &User{
		ID:         id,
		Email:      creds.Email,
		Identities: []Identity{{ID: uuid.NewString(), Provider: "email"}},
		Metadata:   creds.Metadata,
		CreatedAt:  f.now(),
	}

	if !f.AutoConfirm {
		return user, nil, nil
	}

	sess := f.mintSession(id)
	f.store(sess, EventSignedIn)
	confirmed := f.now()
	user.EmailConfirmedAt = &confirmed
	return user, sess, nil
}

// SignInWithPassword describes the signinwithpassword operation and its observable behavior.
func (f *Fake) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	f.countOp("signin")
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	acct, ok := f.accounts[creds.Email]
	f.mu.Unlock()
	if !ok || acct.password != creds.Password {
		return nil, &Error{Code: "invalid_credentials", Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}

	sess := f.mintSession(acct.userID)
	f.store(sess, EventSignedIn)
	return sess, nil
}

// SignOut describes the signout operation and its observable behavior.
func (f *Fake) SignOut(ctx context.Context) error {
	f.countOp("signout")
	if f.FailWith != nil {
		return f.FailWith
	}
	f.store(nil, EventSignedOut)
	return nil
}

// Session describes the session operation and its observable behavior.
func (f *Fake) Session(ctx context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, ErrNoSession
	}
	cp := *f.session
	return &cp, nil
}

// User describes the user operation and its observable behavior.
func (f *Fake) User(ctx context.Context) (*User, error) {
	f.countOp("user")
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, &Error{Code: "no_session", Status: http.StatusUnauthorized, Message: "no session"}
	}
	for email, acct := range f.accounts {
		if acct.userID == f.session.UserID {
			return &User{
				ID:         acct.userID,
				Email:      email,
				Identities: []Identity{{ID: uuid.NewString(), Provider: "email"}},
				Metadata:   acct.metadata,
			}, nil
		}
	}
	return nil, &Error{Code: "user_not_found", Status: http.StatusNotFound, Message: "user not found"}
}

// RefreshSession describes the refreshsession operation and its observable behavior.
func (f *Fake) RefreshSession(ctx context.Context) (*Session, error) {
	f.countOp("refresh")
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	if f.session == nil {
		f.mu.Unlock()
		return nil, ErrNoSession
	}
	userID := f.session.UserID
	f.mu.Unlock()

	sess := f.mintSession(userID)
	f.store(sess, EventTokenRefreshed)
	return sess, nil
}

// ResetPasswordForEmail describes the resetpasswordforemail operation and its observable behavior.
func (f *Fake) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	f.countOp("reset")
	return f.FailWith
}

// UpdateUser describes the updateuser operation and its observable behavior.
func (f *Fake) UpdateUser(ctx context.Context, upd UserUpdate) (*User, error) {
	f.countOp("update_user")
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, &Error{Code: "no_session", Status: http.StatusUnauthorized, Message: "no session"}
	}
	for email, acct := range f.accounts {
		if acct.userID == f.session.UserID {
			if upd.Password != "" {
				acct.password = upd.Password
				f.accounts[email] = acct
			}
			return &User{ID: acct.userID, Email: email}, nil
		}
	}
	return nil, &Error{Code: "user_not_found", Status: http.StatusNotFound, Message: "user not found"}
}

// OnAuthEvent describes the onauthevent operation and its observable behavior.
func (f *Fake) OnAuthEvent(fn func(Event)) func() {
	l := &eventListener{fn: fn}

	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	initial := Event{Type: EventInitialSession}
	if f.session != nil {
		cp := *f.session
		initial.Session = &cp
	}
	f.mu.Unlock()

	fn(initial)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, cand := range f.listeners {
			if cand == l {
				f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
				break
			}
		}
	}
}

func (f *Fake) store(sess *Session, event EventType) {
	f.mu.Lock()
	f.session = sess
	listeners := make([]*eventListener, len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, l := range listeners {
		l.fn(Event{Type: event, Session: sess})
	}
}

// SelectProfile describes the selectprofile operation and its observable behavior.
func (f *Fake) SelectProfile(ctx context.Context, userID string) (map[string]any, error) {
	f.countOp("select_profile")
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	out := map[string]any{}
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
func (f *Fake) UpdateProfile(ctx context.Context, userID string, row map[string]any) (map[string]any, error) {
	f.countOp("update_profile")
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	for k, v := range row {
		existing[k] = v
	}
	out := map[string]any{}
	for k, v := range existing {
		out[k] = v
	}
	return out, nil
}

// OnProfileDeleted describes the onprofiledeleted operation and its observable behavior.
func (f *Fake) OnProfileDeleted(ctx context.Context, userID string, fn func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletion[userID] = append(f.deletion[userID], fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		cbs := f.deletion[userID]
		for i := range cbs {
			// Closures have no identity to compare; removing one entry is
			// enough for the single-subscription lifecycles tests exercise.
			f.deletion[userID] = append(cbs[:i], cbs[i+1:]...)
			break
		}
	}, nil
}
