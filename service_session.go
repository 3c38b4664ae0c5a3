package medauth

import (
	"context"
)

const accessTokenCacheKey = "access_token"

func (s *Service) cacheKey(key string) string {
	if s.config.Session.CacheKeyPrefix == "" {
		return key
	}
	return s.config.Session.CacheKeyPrefix + ":" + key
}

// Session describes the session operation and its observable behavior.
//
// Session may return an error when input validation, dependency calls, or security checks fail.
// When the current session's remaining lifetime is below the refresh
// threshold, the session is transparently refreshed and the refreshed
// session returned instead of the stale one. A signed-out client gets
// (nil, nil).
func (s *Service) Session(ctx context.Context) (*Session, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	rec, fail := s.repo.Session(ctx)
	if fail != nil {
		return nil, translate(fail)
	}
	if rec == nil {
		return nil, nil
	}

	remaining := rec.ExpiresAt.Sub(s.now())
	if remaining < s.config.Session.RefreshThreshold {
		refreshed, rfail := s.repo.RefreshSession(ctx)
		if rfail != nil {
			return nil, translate(rfail)
		}
		rec = refreshed
		remaining = rec.ExpiresAt.Sub(s.now())
	}

	if remaining > 0 {
		_ = s.cache.Set(ctx, s.cacheKey(accessTokenCacheKey), rec.AccessToken, remaining)
	}
	return sessionFromRecord(rec), nil
}

// AccessToken returns a bearer token for domain-data calls, served from the
// token cache when an unexpired entry exists and re-read through Session
// otherwise.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	if s.closed.Load() {
		return "", ErrServiceClosed
	}

	if token, present, err := s.cache.Get(ctx, s.cacheKey(accessTokenCacheKey)); err == nil && present {
		return token, nil
	}

	sess, err := s.Session(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", nil
	}
	return sess.AccessToken, nil
}

// User fetches the authenticated user from the provider. This is a server
// round-trip, not a cache read.
func (s *Service) User(ctx context.Context) (*User, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	rec, fail := s.repo.User(ctx)
	if fail != nil {
		return nil, translate(fail)
	}
	return userFromRecord(rec), nil
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// The token cache is cleared before the provider call, so no stale bearer
// token survives a sign-out whose network leg fails.
func (s *Service) SignOut(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServiceClosed
	}

	_ = s.cache.Clear(ctx)

	if fail := s.repo.SignOut(ctx); fail != nil {
		return translate(fail)
	}
	return nil
}
