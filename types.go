package medauth

import (
	"time"

	"github.com/caldermed/medauth/internal/repo"
)

// Credential carries a sign-in or sign-up secret. It is ephemeral: nothing
// in this module retains it past the duration of the request it belongs to.
type Credential struct {
	Email        string
	Password     string
	CaptchaToken string
}

// Session represents an authenticated connection: an opaque access token, an
// optional refresh token, an absolute expiry, and the owning user id.
// Sessions are replaced on refresh, never mutated.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	UserID       string
}

// ExpiresIn returns the session's remaining lifetime at now.
func (s *Session) ExpiresIn(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// User is the minimal identity record issued by the provider. Immutable from
// the client's perspective except through provider-side events.
type User struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       map[string]string
	CreatedAt      time.Time
}

// Profile is the application's extended record for a User, 1:1 by
// identifier: identity fields plus the medical attributes the records
// screens consume.
type Profile struct {
	ID                    string
	Email                 string
	FirstName             string
	LastName              string
	Phone                 string
	Gender                string
	DateOfBirth           string
	BloodType             string
	Allergies             string
	ChronicConditions     string
	HeightCm              float64
	WeightKg              float64
	EmergencyContactName  string
	EmergencyContactPhone string
	InsuranceProvider     string
	InsuranceNumber       string
	MedicalNotes          string
	AvatarURL             string
}

// ProfileUpdate is a partial profile edit. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName             *string
	LastName              *string
	Phone                 *string
	Gender                *string
	DateOfBirth           *string
	BloodType             *string
	Allergies             *string
	ChronicConditions     *string
	HeightCm              *float64
	WeightKg              *float64
	EmergencyContactName  *string
	EmergencyContactPhone *string
	InsuranceProvider     *string
	InsuranceNumber       *string
	MedicalNotes          *string
	AvatarURL             *string
}

// AuthState is the aggregate exposed to UI layers. Exactly one AuthState is
// live per runtime; Loading is true only during an in-flight initialization
// or action, and Error is set only on terminal failure of the most recent
// action.
type AuthState struct {
	User    *User
	Session *Session
	Profile *Profile
	Loading bool
	Error   *AuthError
}

// SignedIn reports whether the state carries an authenticated user.
func (s AuthState) SignedIn() bool {
	return s.User != nil && s.Session != nil
}

// SignUpParams carries a sign-up request: the credential, the confirmation
// copy of the password, and the metadata echoed onto the created user.
type SignUpParams struct {
	Credential
	ConfirmPassword  string
	FirstName        string
	LastName         string
	PhoneCountryCode string
	PhoneNumber      string
	Gender           string
	DateOfBirth      string
}

// SignUpResult reports a successful sign-up. Session is nil while email
// confirmation is pending; Message is safe to render directly.
type SignUpResult struct {
	User                 *User
	Session              *Session
	ConfirmationRequired bool
	Message              string
}

func sessionFromRecord(rec *repo.SessionRecord) *Session {
	if rec == nil {
		return nil
	}
	return &Session{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		ExpiresAt:    rec.ExpiresAt,
		UserID:       rec.UserID,
	}
}

func userFromRecord(rec *repo.UserRecord) *User {
	if rec == nil {
		return nil
	}
	return &User{
		ID:             rec.ID,
		Email:          rec.Email,
		EmailConfirmed: rec.EmailConfirmed,
		Metadata:       rec.Metadata,
		CreatedAt:      rec.CreatedAt,
	}
}

func profileFromRecord(rec *repo.ProfileRecord) *Profile {
	if rec == nil {
		return nil
	}
	return &Profile{
		ID:                    rec.ID,
		Email:                 rec.Email,
		FirstName:             rec.FirstName,
		LastName:              rec.LastName,
		Phone:                 rec.Phone,
		Gender:                rec.Gender,
		DateOfBirth:           rec.DateOfBirth,
		BloodType:             rec.BloodType,
		Allergies:             rec.Allergies,
		ChronicConditions:     rec.ChronicConditions,
		HeightCm:              rec.HeightCm,
		WeightKg:              rec.WeightKg,
		EmergencyContactName:  rec.EmergencyContactName,
		EmergencyContactPhone: rec.EmergencyContactPhone,
		InsuranceProvider:     rec.InsuranceProvider,
		InsuranceNumber:       rec.InsuranceNumber,
		MedicalNotes:          rec.MedicalNotes,
		AvatarURL:             rec.AvatarURL,
	}
}

func recordFromUpdate(upd ProfileUpdate) repo.ProfileUpdate {
	return repo.ProfileUpdate{
		FirstName:             upd.FirstName,
		LastName:              upd.LastName,
		Phone:                 upd.Phone,
		Gender:                upd.Gender,
		DateOfBirth:           upd.DateOfBirth,
		BloodType:             upd.BloodType,
		Allergies:             upd.Allergies,
		ChronicConditions:     upd.ChronicConditions,
		HeightCm:              upd.HeightCm,
		WeightKg:              upd.WeightKg,
		EmergencyContactName:  upd.EmergencyContactName,
		EmergencyContactPhone: upd.EmergencyContactPhone,
		InsuranceProvider:     upd.InsuranceProvider,
		InsuranceNumber:       upd.InsuranceNumber,
		MedicalNotes:          upd.MedicalNotes,
		AvatarURL:             upd.AvatarURL,
	}
}
