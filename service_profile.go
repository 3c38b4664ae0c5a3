package medauth

import (
	"context"

	"github.com/caldermed/medauth/validate"
)

// Profile describes the profile operation and its observable behavior.
//
// Profile may return an error when input validation, dependency calls, or security checks fail.
// A missing row surfaces as ErrProfileMissing, which callers treat as a
// consistency event rather than a user-facing error.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	rec, fail := s.repo.Profile(ctx, userID)
	if fail != nil {
		return nil, translate(fail)
	}
	return profileFromRecord(rec), nil
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// Free-text fields are sanitized and the phone number validated before the
// repository is called.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	if upd.Phone != nil && *upd.Phone != "" {
		if r := validate.ValidatePhone("", *upd.Phone); !r.Valid {
			return nil, validationError("phone", r.Err)
		}
	}
	if upd.FirstName != nil {
		if r := validate.ValidateName(*upd.FirstName); !r.Valid {
			return nil, validationError("firstName", r.Err)
		}
	}
	if upd.LastName != nil {
		if r := validate.ValidateName(*upd.LastName); !r.Valid {
			return nil, validationError("lastName", r.Err)
		}
	}
	if upd.DateOfBirth != nil && *upd.DateOfBirth != "" {
		if r := validate.ValidateDateOfBirth(*upd.DateOfBirth); !r.Valid {
			return nil, validationError("dateOfBirth", r.Err)
		}
	}

	sanitize := func(v *string) *string {
		if v == nil {
			return nil
		}
		clean := validate.SanitizeInput(*v)
		return &clean
	}
	upd.FirstName = sanitize(upd.FirstName)
	upd.LastName = sanitize(upd.LastName)
	upd.Gender = sanitize(upd.Gender)
	upd.Allergies = sanitize(upd.Allergies)
	upd.ChronicConditions = sanitize(upd.ChronicConditions)
	upd.EmergencyContactName = sanitize(upd.EmergencyContactName)
	upd.InsuranceProvider = sanitize(upd.InsuranceProvider)
	upd.InsuranceNumber = sanitize(upd.InsuranceNumber)
	upd.MedicalNotes = sanitize(upd.MedicalNotes)

	rec, fail := s.repo.UpdateProfile(ctx, userID, recordFromUpdate(upd))
	if fail != nil {
		return nil, translate(fail)
	}
	return profileFromRecord(rec), nil
}
