package medauth

import (
	"context"
	"strings"

	"github.com/caldermed/medauth/provider"
	"github.com/caldermed/medauth/validate"
)

const (
	msgSignUpConfirm = "Account created. Please check your email to confirm your address."
	msgSignUpDone    = "Account created."
)

// SignUp describes the signup operation and its observable behavior.
//
// SignUp may return an error when input validation, dependency calls, or security checks fail.
// Input is validated and sanitized before any network call; a provider
// response for an already-registered address is reported as ErrEmailExists,
// never as success.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	email := strings.TrimSpace(params.Email)
	if !validate.IsValidEmail(email) {
		return nil, validationError("email", "Please enter a valid email address")
	}
	if r := validate.ValidateProfilePassword(params.Password); !r.Valid {
		return nil, validationError("password", r.Err)
	}
	if params.ConfirmPassword != "" && !validate.PasswordsMatch(params.Password, params.ConfirmPassword) {
		return nil, validationError("confirmPassword", "Passwords do not match")
	}
	if params.FirstName != "" {
		if r := validate.ValidateName(params.FirstName); !r.Valid {
			return nil, validationError("firstName", r.Err)
		}
	}
	if params.LastName != "" {
		if r := validate.ValidateName(params.LastName); !r.Valid {
			return nil, validationError("lastName", r.Err)
		}
	}
	if params.PhoneNumber != "" {
		if r := validate.ValidatePhone(params.PhoneCountryCode, params.PhoneNumber); !r.Valid {
			return nil, validationError("phone", r.Err)
		}
	}
	if params.DateOfBirth != "" {
		if r := validate.ValidateDateOfBirth(params.DateOfBirth); !r.Valid {
			return nil, validationError("dateOfBirth", r.Err)
		}
	}

	metadata := map[string]string{}
	setMeta := func(key, value string) {
		if value != "" {
			metadata[key] = validate.SanitizeInput(value)
		}
	}
	setMeta("first_name", params.FirstName)
	setMeta("last_name", params.LastName)
	setMeta("gender", params.Gender)
	setMeta("date_of_birth", params.DateOfBirth)
	if params.PhoneNumber != "" {
		setMeta("phone", params.PhoneCountryCode+params.PhoneNumber)
	}

	rec, fail := s.repo.SignUp(ctx, provider.Credentials{
		Email:        email,
		Password:     params.Password,
		CaptchaToken: params.CaptchaToken,
		Metadata:     metadata,
	})
	if fail != nil {
		return nil, translate(fail)
	}

	result := &SignUpResult{
		User:                 userFromRecord(rec.User),
		Session:              sessionFromRecord(rec.Session),
		ConfirmationRequired: rec.ConfirmationRequired,
		Message:              msgSignUpDone,
	}
	if rec.ConfirmationRequired {
		result.Message = msgSignUpConfirm
	}
	return result, nil
}
