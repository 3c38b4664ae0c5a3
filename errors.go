package medauth

import (
	"errors"

	"github.com/caldermed/medauth/internal/repo"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the authentication core.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists is an exported constant or variable used by the authentication core.
	ErrEmailExists = errors.New("email already registered")
	// ErrEmailNotConfirmed is an exported constant or variable used by the authentication core.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrWeakPassword is an exported constant or variable used by the authentication core.
	ErrWeakPassword = errors.New("weak password")
	// ErrRateLimited is an exported constant or variable used by the authentication core.
	ErrRateLimited = errors.New("rate limited")
	// ErrValidation is an exported constant or variable used by the authentication core.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork is an exported constant or variable used by the authentication core.
	ErrNetwork = errors.New("network failure")
	// ErrProfileMissing signals that the authenticated session's profile row
	// no longer exists. It is a consistency event, not a user-facing error:
	// the session controller reacts by signing out.
	ErrProfileMissing = errors.New("profile missing")
	// ErrUnknown is an exported constant or variable used by the authentication core.
	ErrUnknown = errors.New("unexpected error")
	// ErrServiceClosed is an exported constant or variable used by the authentication core.
	ErrServiceClosed = errors.New("service closed")
)

// ErrorKind is the closed taxonomy every failure in this module collapses
// into before it reaches a caller.
type ErrorKind int

const (
	// KindUnknown is an exported constant or variable used by the authentication core.
	KindUnknown ErrorKind = iota
	// KindValidation is a malformed input caught before any network call.
	KindValidation
	// KindRateLimited is too many sign-in attempts in the trailing window.
	KindRateLimited
	// KindInvalidCredentials is an exported constant or variable used by the authentication core.
	KindInvalidCredentials
	// KindEmailExists is an exported constant or variable used by the authentication core.
	KindEmailExists
	// KindEmailNotConfirmed is an exported constant or variable used by the authentication core.
	KindEmailNotConfirmed
	// KindWeakPassword is an exported constant or variable used by the authentication core.
	KindWeakPassword
	// KindNetwork is an exported constant or variable used by the authentication core.
	KindNetwork
	// KindProfileMissing marks the authenticated profile as confirmed absent.
	KindProfileMissing
)

// AuthError is the tagged-variant error every Service and Controller
// operation returns. Message is user-facing and safe to render directly;
// raw provider text never lands here. Field names the offending input for
// validation failures and is empty otherwise.
type AuthError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

// Error describes the error operation and its observable behavior.
func (e *AuthError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

var kindSentinels = map[ErrorKind]error{
	KindUnknown:            ErrUnknown,
	KindValidation:         ErrValidation,
	KindRateLimited:        ErrRateLimited,
	KindInvalidCredentials: ErrInvalidCredentials,
	KindEmailExists:        ErrEmailExists,
	KindEmailNotConfirmed:  ErrEmailNotConfirmed,
	KindWeakPassword:       ErrWeakPassword,
	KindNetwork:            ErrNetwork,
	KindProfileMissing:     ErrProfileMissing,
}

// Is lets errors.Is match an AuthError against the package sentinels, e.g.
// errors.Is(err, ErrRateLimited).
func (e *AuthError) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// AsAuthError unwraps err into an *AuthError, mapping foreign errors onto
// the generic fallback so callers always get a renderable message.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return &AuthError{Kind: KindUnknown, Message: msgUnknown}
}

const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgEmailExists        = "This email is already registered. Try signing in instead."
	msgEmailNotConfirmed  = "Please confirm your email address before signing in."
	msgWeakPassword       = "Password is too weak. Please choose a stronger password."
	msgThrottled          = "Too many requests. Please wait a moment and try again."
	msgRateLimited        = "Too many sign-in attempts. Please try again in a few minutes."
	msgNetwork            = "Network error. Please check your connection and try again."
	msgUnknown            = "An unexpected error occurred. Please try again."
)

func validationError(field, message string) *AuthError {
	return &AuthError{Kind: KindValidation, Field: field, Message: message}
}

func rateLimitError() *AuthError {
	return &AuthError{Kind: KindRateLimited, Message: msgRateLimited}
}

// translate is the single total mapping from repository failures to the
// user-facing taxonomy. Unmapped failures land on the generic fallback; no
// branch elsewhere in the module inspects provider codes.
func translate(f *repo.Failure) *AuthError {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case repo.FailureInvalidCredentials:
		return &AuthError{Kind: KindInvalidCredentials, Message: msgInvalidCredentials}
	case repo.FailureEmailExists:
		return &AuthError{Kind: KindEmailExists, Message: msgEmailExists}
	case repo.FailureEmailNotConfirmed:
		return &AuthError{Kind: KindEmailNotConfirmed, Message: msgEmailNotConfirmed}
	case repo.FailureWeakPassword:
		return &AuthError{Kind: KindWeakPassword, Message: msgWeakPassword}
	case repo.FailureProviderThrottled:
		return &AuthError{Kind: KindRateLimited, Message: msgThrottled}
	case repo.FailureProfileNotFound:
		return &AuthError{Kind: KindProfileMissing, Message: msgUnknown}
	case repo.FailureNetwork:
		return &AuthError{Kind: KindNetwork, Message: msgNetwork}
	default:
		return &AuthError{Kind: KindUnknown, Message: msgUnknown}
	}
}
