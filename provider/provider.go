package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EventType identifies a low-level auth event emitted by the provider's
// event stream.
type EventType string

const (
	// EventInitialSession is emitted once to a new subscriber with the
	// session the provider restored from persistence, if any.
	EventInitialSession EventType = "INITIAL_SESSION"
	// EventSignedIn is an exported constant or variable used by the provider contract.
	EventSignedIn EventType = "SIGNED_IN"
	// EventSignedOut is an exported constant or variable used by the provider contract.
	EventSignedOut EventType = "SIGNED_OUT"
	// EventTokenRefreshed is an exported constant or variable used by the provider contract.
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	// EventUserUpdated is an exported constant or variable used by the provider contract.
	EventUserUpdated EventType = "USER_UPDATED"
)

// Event is one entry of the provider's auth event stream. Session is nil
// for sign-out events.
type Event struct {
	Type    EventType
	Session *Session
}

// Session is the provider-native session record: an opaque access token,
// an optional refresh token, and an absolute expiry.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	UserID       string
}

// Identity is one linked authentication method on a provider user. The
// sign-up duplicate-email probe relies on this: an existing address comes
// back as a user with an empty identity list.
type Identity struct {
	ID       string
	Provider string
}

// User is the provider-native identity record.
type User struct {
	ID               string
	Email            string
	EmailConfirmedAt *time.Time
	Identities       []Identity
	Metadata         map[string]string
	CreatedAt        time.Time
}

// Credentials carries a sign-up or sign-in request. CaptchaToken is opaque
// and forwarded unmodified. Metadata is echoed back on the created user at
// sign-up.
type Credentials struct {
	Email        string
	Password     string
	CaptchaToken string
	Metadata     map[string]string
}

// UserUpdate carries the mutable attributes of UpdateUser. Only Password is
// used by this module today.
type UserUpdate struct {
	Password string
}

// Error is the provider-native failure shape: a machine code, the HTTP
// status it arrived with, and the provider's own message. The message is
// never shown to end users; the root package maps Code to the user-facing
// taxonomy.
type Error struct {
	Code    string
	Status  int
	Message string
}

// Error describes the error operation and its observable behavior.
func (e *Error) Error() string {
	if e == nil {
		return "provider: <nil>"
	}
	return fmt.Sprintf("provider: %s (%d): %s", e.Code, e.Status, e.Message)
}

// ErrNoSession is returned by Session and RefreshSession when the provider
// holds no persisted session for this client.
var ErrNoSession = errors.New("provider: no session")

// ErrProfileNotFound is returned by SelectProfile when no row exists for the
// requested user id. Callers must distinguish this from transport failures:
// it is the signal the profile-deletion watchdog acts on.
var ErrProfileNotFound = errors.New("provider: profile not found")

// Client defines a public type used by medauth APIs.
//
// Client is the complete surface this module consumes from the remote
// identity/data service. Implementations must be safe for concurrent use.
type Client interface {
	// SignUp creates an account. The provider may return a user without a
	// session when email confirmation is pending, and may return a non-error
	// response for an already-registered address (see Identity).
	SignUp(ctx context.Context, creds Credentials) (*User, *Session, error)

	// SignInWithPassword exchanges credentials for a session and persists it.
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)

	// SignOut revokes and forgets the current session.
	SignOut(ctx context.Context) error

	// Session returns the current session from provider-managed local
	// persistence without a network round-trip. ErrNoSession when absent.
	Session(ctx context.Context) (*Session, error)

	// User fetches the authenticated user from the server (round-trip, not
	// cache).
	User(ctx context.Context) (*User, error)

	// RefreshSession exchanges the persisted refresh token for a new session
	// and replaces the persisted one.
	RefreshSession(ctx context.Context) (*Session, error)

	// ResetPasswordForEmail requests a password-reset email. redirectTo is
	// forwarded to the provider's email template.
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error

	// UpdateUser mutates the authenticated user (password change).
	UpdateUser(ctx context.Context, upd UserUpdate) (*User, error)

	// OnAuthEvent registers a listener on the provider's auth event stream.
	// Listeners receive events in emission order. The returned closure
	// removes exactly this listener.
	OnAuthEvent(fn func(Event)) (unsubscribe func())

	// SelectProfile reads the profile row for userID using provider-native
	// column names. ErrProfileNotFound when the row is absent.
	SelectProfile(ctx context.Context, userID string) (map[string]any, error)

	// UpdateProfile patches the profile row for userID and returns the row
	// as stored, provider-native column names included.
	UpdateProfile(ctx context.Context, userID string, row map[string]any) (map[string]any, error)

	// OnProfileDeleted opens a realtime push subscription scoped to the
	// profile row of userID, invoking fn once when the row is deleted. The
	// returned closure tears the subscription down.
	OnProfileDeleted(ctx context.Context, userID string, fn func()) (unsubscribe func(), err error)
}
