package controller

import (
	"context"
	"fmt"

	"github.com/caldermed/medauth"
)

// runAction wraps an imperative action with the loading/error discipline:
// Loading true and Error nil at the start, Loading false at the end on every
// exit path. A panic escaping the service layer is converted into a generic
// error state instead of crashing the UI tree.
func (c *Controller) runAction(fn func() error) (err error) {
	c.beginAction()
	defer func() {
		if r := recover(); r != nil {
			err = medauth.AsAuthError(fmt.Errorf("panic: %v", r))
		}
		c.endAction(err)
	}()
	return fn()
}

// SignIn describes the signin operation and its observable behavior.
//
// SignIn may return an error when input validation, dependency calls, or security checks fail.
// A nil return only means the provider accepted the credentials; the
// authenticated state lands asynchronously via the broadcast.
func (c *Controller) SignIn(ctx context.Context, cred medauth.Credential) error {
	return c.runAction(func() error {
		_, err := c.svc.SignIn(ctx, cred)
		return err
	})
}

// SignUp describes the signup operation and its observable behavior.
//
// SignUp may return an error when input validation, dependency calls, or security checks fail.
func (c *Controller) SignUp(ctx context.Context, params medauth.SignUpParams) (result *medauth.SignUpResult, err error) {
	err = c.runAction(func() error {
		var inner error
		result, inner = c.svc.SignUp(ctx, params)
		return inner
	})
	return result, err
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// It is idempotent under concurrent invocation: overlapping calls converge
// on one signed-out state without error. A failed provider call leaves the
// previous session state intact so the UI can surface the error and retry.
func (c *Controller) SignOut(ctx context.Context) error {
	if !c.signingOut.CompareAndSwap(false, true) {
		return nil
	}
	defer c.signingOut.Store(false)

	return c.runAction(func() error {
		if err := c.svc.SignOut(ctx); err != nil {
			return err
		}
		c.stopWatchdog()
		c.mutateState(func(st *medauth.AuthState) {
			loading := st.Loading
			*st = medauth.AuthState{Loading: loading}
		})
		return nil
	})
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	return c.runAction(func() error {
		return c.svc.ResetPassword(ctx, email)
	})
}

// UpdatePassword describes the updatepassword operation and its observable behavior.
//
// UpdatePassword may return an error when input validation, dependency calls, or security checks fail.
func (c *Controller) UpdatePassword(ctx context.Context, newPassword string) error {
	return c.runAction(func() error {
		_, err := c.svc.UpdatePassword(ctx, newPassword)
		return err
	})
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// On success the returned profile is merged into local state immediately, so
// the UI reflects the edit without waiting for a broadcast round-trip. A
// later broadcast snapshot for the same user overwrites this optimistic
// merge.
func (c *Controller) UpdateProfile(ctx context.Context, upd medauth.ProfileUpdate) error {
	return c.runAction(func() error {
		c.mu.Lock()
		var userID string
		if c.state.User != nil {
			userID = c.state.User.ID
		}
		c.mu.Unlock()
		if userID == "" {
			return medauth.AsAuthError(medauth.ErrUnknown)
		}

		profile, err := c.svc.UpdateProfile(ctx, userID, upd)
		if err != nil {
			return err
		}
		c.mutateState(func(st *medauth.AuthState) {
			st.Profile = profile
		})
		return nil
	})
}

// RefreshProfile re-fetches the signed-in user's profile and merges it into
// state.
func (c *Controller) RefreshProfile(ctx context.Context) error {
	return c.runAction(func() error {
		c.mu.Lock()
		var userID string
		if c.state.User != nil {
			userID = c.state.User.ID
		}
		c.mu.Unlock()
		if userID == "" {
			return nil
		}

		profile, err := c.svc.Profile(ctx, userID)
		if err != nil {
			return err
		}
		c.mutateState(func(st *medauth.AuthState) {
			st.Profile = profile
		})
		return nil
	})
}
