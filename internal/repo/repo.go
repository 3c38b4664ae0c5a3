package repo

import (
	"context"
	"errors"
	"time"

	"github.com/caldermed/medauth/provider"
)

// FailureKind classifies repository failures for root-level mapping.
type FailureKind int

const (
	// FailureNone is an exported constant or variable used by the identity repository.
	FailureNone FailureKind = iota
	// FailureInvalidCredentials is an exported constant or variable used by the identity repository.
	FailureInvalidCredentials
	// FailureEmailExists is an exported constant or variable used by the identity repository.
	FailureEmailExists
	// FailureEmailNotConfirmed is an exported constant or variable used by the identity repository.
	FailureEmailNotConfirmed
	// FailureWeakPassword is an exported constant or variable used by the identity repository.
	FailureWeakPassword
	// FailureProviderThrottled is an exported constant or variable used by the identity repository.
	FailureProviderThrottled
	// FailureProfileNotFound is an exported constant or variable used by the identity repository.
	FailureProfileNotFound
	// FailureNetwork is an exported constant or variable used by the identity repository.
	FailureNetwork
	// FailureProvider is any other provider-reported error.
	FailureProvider
)

// Failure is the repository-local error shape. Code carries the raw provider
// code for diagnostics; it never reaches the UI.
type Failure struct {
	Kind FailureKind
	Code string
	Err  error
}

// SessionRecord is the repo-local session model.
type SessionRecord struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	UserID       string
}

// UserRecord is the repo-local user model.
type UserRecord struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       map[string]string
	CreatedAt      time.Time
}

// SignUpRecord is the repo-local sign-up response: the created user, the
// session when the provider auto-confirms, and whether email confirmation is
// still pending.
type SignUpRecord struct {
	User                 *UserRecord
	Session              *SessionRecord
	ConfirmationRequired bool
}

// Repo issues provider calls and normalizes their outcomes.
type Repo struct {
	provider provider.Client
}

// New creates a repository over the given provider client.
func New(p provider.Client) *Repo {
	return &Repo{provider: p}
}

var providerKinds = map[string]FailureKind{
	"invalid_credentials":     FailureInvalidCredentials,
	"invalid_grant":           FailureInvalidCredentials,
	"user_already_exists":     FailureEmailExists,
	"email_exists":            FailureEmailExists,
	"email_not_confirmed":     FailureEmailNotConfirmed,
	"weak_password":           FailureWeakPassword,
	"over_request_rate_limit": FailureProviderThrottled,
}

// classify converts any error leaving a provider call into a Failure. It is
// total: unknown codes land on FailureProvider, transport errors on
// FailureNetwork.
func classify(err error) *Failure {
	if err == nil {
		return nil
	}
	if errors.Is(err, provider.ErrProfileNotFound) {
		return &Failure{Kind: FailureProfileNotFound, Err: err}
	}

	var perr *provider.Error
	if errors.As(err, &perr) {
		if kind, ok := providerKinds[perr.Code]; ok {
			return &Failure{Kind: kind, Code: perr.Code, Err: err}
		}
		return &Failure{Kind: FailureProvider, Code: perr.Code, Err: err}
	}
	return &Failure{Kind: FailureNetwork, Err: err}
}

func sessionRecord(s *provider.Session) *SessionRecord {
	if s == nil {
		return nil
	}
	return &SessionRecord{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.UserID,
	}
}

func userRecord(u *provider.User) *UserRecord {
	if u == nil {
		return nil
	}
	return &UserRecord{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		Metadata:       u.Metadata,
		CreatedAt:      u.CreatedAt,
	}
}

// SignUp creates an account. A non-error provider response whose user has no
// linked identities means the address is already registered; that is
// converted into FailureEmailExists rather than reported as success.
func (r *Repo) SignUp(ctx context.Context, creds provider.Credentials) (*SignUpRecord, *Failure) {
	user, sess, err := r.provider.SignUp(ctx, creds)
	if err != nil {
		return nil, classify(err)
	}
	if user == nil {
		return nil, &Failure{Kind: FailureProvider, Err: errors.New("repo: signup returned no user")}
	}
	if len(user.Identities) == 0 {
		return nil, &Failure{Kind: FailureEmailExists, Code: "email_exists"}
	}
	return &SignUpRecord{
		User:                 userRecord(user),
		Session:              sessionRecord(sess),
		ConfirmationRequired: sess == nil,
	}, nil
}

// SignIn exchanges credentials for a session.
func (r *Repo) SignIn(ctx context.Context, creds provider.Credentials) (*SessionRecord, *Failure) {
	sess, err := r.provider.SignInWithPassword(ctx, creds)
	if err != nil {
		return nil, classify(err)
	}
	return sessionRecord(sess), nil
}

// SignOut revokes the current session.
func (r *Repo) SignOut(ctx context.Context) *Failure {
	return classify(r.provider.SignOut(ctx))
}

// Session returns the current session from provider persistence. Absence is
// not a failure: a signed-out client gets (nil, nil).
func (r *Repo) Session(ctx context.Context) (*SessionRecord, *Failure) {
	sess, err := r.provider.Session(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrNoSession) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return sessionRecord(sess), nil
}

// User fetches the authenticated user from the server.
func (r *Repo) User(ctx context.Context) (*UserRecord, *Failure) {
	user, err := r.provider.User(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return userRecord(user), nil
}

// RefreshSession replaces the current session with a freshly issued one.
func (r *Repo) RefreshSession(ctx context.Context) (*SessionRecord, *Failure) {
	sess, err := r.provider.RefreshSession(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return sessionRecord(sess), nil
}

// RequestPasswordReset asks the provider to send a reset email.
func (r *Repo) RequestPasswordReset(ctx context.Context, email, redirectTo string) *Failure {
	return classify(r.provider.ResetPasswordForEmail(ctx, email, redirectTo))
}

// UpdatePassword sets a new password on the authenticated user.
func (r *Repo) UpdatePassword(ctx context.Context, newPassword string) (*UserRecord, *Failure) {
	user, err := r.provider.UpdateUser(ctx, provider.UserUpdate{Password: newPassword})
	if err != nil {
		return nil, classify(err)
	}
	return userRecord(user), nil
}

// Profile reads the profile row for userID and maps it to the application
// field names.
func (r *Repo) Profile(ctx context.Context, userID string) (*ProfileRecord, *Failure) {
	row, err := r.provider.SelectProfile(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	rec := profileFromRow(row)
	return &rec, nil
}

// UpdateProfile patches the profile row for userID and returns the stored
// profile.
func (r *Repo) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*ProfileRecord, *Failure) {
	row, err := r.provider.UpdateProfile(ctx, userID, rowFromUpdate(upd))
	if err != nil {
		return nil, classify(err)
	}
	rec := profileFromRow(row)
	return &rec, nil
}
