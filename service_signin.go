package medauth

import (
	"context"
	"strings"

	"github.com/caldermed/medauth/provider"
	"github.com/caldermed/medauth/validate"
)

// SignIn describes the signin operation and its observable behavior.
//
// SignIn may return an error when input validation, dependency calls, or security checks fail.
// The rate limit is checked before anything else; a denied attempt returns
// ErrRateLimited without contacting the repository. The returned session
// only covers immediate failures — the authoritative post-sign-in state
// arrives through OnAuthStateChange.
func (s *Service) SignIn(ctx context.Context, cred Credential) (*Session, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	email := strings.ToLower(strings.TrimSpace(cred.Email))

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		// A broken limiter backend must not lock every user out; the attempt
		// proceeds and the backend error surfaces through logs upstream.
		allowed = true
	}
	if !allowed {
		return nil, rateLimitError()
	}

	if !validate.IsValidEmail(email) {
		return nil, validationError("email", "Please enter a valid email address")
	}
	if r := validate.ValidatePassword(cred.Password); !r.Valid {
		return nil, validationError("password", r.Err)
	}

	rec, fail := s.repo.SignIn(ctx, provider.Credentials{
		Email:        email,
		Password:     cred.Password,
		CaptchaToken: cred.CaptchaToken,
	})
	if fail != nil {
		return nil, translate(fail)
	}

	_ = s.limiter.Reset(ctx, email)
	return sessionFromRecord(rec), nil
}
