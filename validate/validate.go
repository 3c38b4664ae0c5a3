// Package validate holds the pure input checks run before any network call:
// email/password/phone/name/date-of-birth validation and free-text
// sanitization. Every check returns a structured [Result]; nothing in this
// package panics on bad input or touches I/O.
package validate

import (
	"strings"
	"time"
	"unicode"
)

// Result is the outcome of a validation check. Err is a field-level,
// user-facing message and is empty when Valid.
type Result struct {
	Valid bool
	Err   string
}

func ok() Result { return Result{Valid: true} }

func fail(msg string) Result { return Result{Err: msg} }

const (
	passwordMinLen = 8
	passwordMaxLen = 128
	nameMinLen     = 2
)

// IsValidEmail reports whether s looks like a deliverable address: non-empty
// local and domain parts around a single "@", domain containing a ".". This
// is deliberately RFC-light; the provider is the final authority.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if local == "" || domain == "" {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// ValidatePassword enforces the sign-in password policy: length bounds only.
func ValidatePassword(s string) Result {
	if len(s) < passwordMinLen {
		return fail("Password must be at least 8 characters long")
	}
	if len(s) > passwordMaxLen {
		return fail("Password must be at most 128 characters long")
	}
	return ok()
}

// ValidateProfilePassword enforces the stricter account-facing policy: the
// basic length bounds plus at least one uppercase, one lowercase, one digit,
// and one symbol.
func ValidateProfilePassword(s string) Result {
	if r := ValidatePassword(s); !r.Valid {
		return r
	}

	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	switch {
	case !upper:
		return fail("Password must contain at least one uppercase letter")
	case !lower:
		return fail("Password must contain at least one lowercase letter")
	case !digit:
		return fail("Password must contain at least one number")
	case !symbol:
		return fail("Password must contain at least one symbol")
	}
	return ok()
}

// PasswordsMatch reports exact equality of a password and its confirmation.
func PasswordsMatch(a, b string) bool {
	return a == b
}

type phoneRule struct {
	min, max int
}

// Country dialing rules for the markets the application ships in. Unlisted
// codes fall back to the ITU-T E.164 bounds.
var phoneRules = map[string]phoneRule{
	"+1":  {10, 10}, // US/Canada
	"+44": {10, 10}, // UK
	"+49": {10, 11}, // Germany
	"+33": {9, 9},   // France
	"+61": {9, 9},   // Australia
	"+63": {10, 10}, // Philippines
	"+81": {10, 10}, // Japan
	"+91": {10, 10}, // India
}

var defaultPhoneRule = phoneRule{min: 7, max: 15}

// ValidatePhone strips non-digits from number and checks its length against
// the rule table for countryCode.
func ValidatePhone(countryCode, number string) Result {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.Len()
	if n == 0 {
		return fail("Phone number is required")
	}

	rule, known := phoneRules[strings.TrimSpace(countryCode)]
	if !known {
		rule = defaultPhoneRule
	}
	if n < rule.min || n > rule.max {
		return fail("Please enter a valid phone number")
	}
	return ok()
}

// ValidateName rejects empty, whitespace-only, and overly short names.
func ValidateName(s string) Result {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fail("Name is required")
	}
	if len([]rune(trimmed)) < nameMinLen {
		return fail("Name must be at least 2 characters long")
	}
	return ok()
}

const minBirthYear = 1900

// ValidateDateOfBirth accepts a YYYY-MM-DD calendar date no earlier than
// 1900-01-01 and at least one year in the past.
func ValidateDateOfBirth(s string) Result {
	return validateDateOfBirthAt(s, time.Now())
}

func validateDateOfBirthAt(s string, now time.Time) Result {
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return fail("Please enter a valid date of birth (YYYY-MM-DD)")
	}
	if dob.Year() < minBirthYear {
		return fail("Date of birth must be after 1900")
	}
	if dob.After(now.AddDate(-1, 0, 0)) {
		return fail("Date of birth must be at least one year in the past")
	}
	return ok()
}

// SanitizeInput trims surrounding whitespace and strips angle brackets to
// reduce injection surface. It is not a full HTML sanitizer; rendering
// layers must still escape output.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}
