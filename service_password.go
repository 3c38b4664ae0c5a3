package medauth

import (
	"context"
	"strings"

	"github.com/caldermed/medauth/validate"
)

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if s.closed.Load() {
		return ErrServiceClosed
	}

	email = strings.TrimSpace(email)
	if !validate.IsValidEmail(email) {
		return validationError("email", "Please enter a valid email address")
	}

	if fail := s.repo.RequestPasswordReset(ctx, email, s.config.PasswordReset.RedirectTo); fail != nil {
		return translate(fail)
	}
	return nil
}

// UpdatePassword describes the updatepassword operation and its observable behavior.
//
// UpdatePassword may return an error when input validation, dependency calls, or security checks fail.
// The new password is held to the account-facing strength policy before the
// provider is contacted.
func (s *Service) UpdatePassword(ctx context.Context, newPassword string) (*User, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	if r := validate.ValidateProfilePassword(newPassword); !r.Valid {
		return nil, validationError("password", r.Err)
	}

	rec, fail := s.repo.UpdatePassword(ctx, newPassword)
	if fail != nil {
		return nil, translate(fail)
	}
	return userFromRecord(rec), nil
}
