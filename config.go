package medauth

import (
	"errors"
	"time"
)

// Config defines a public type used by medauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	RateLimit     RateLimitConfig
	Session       SessionConfig
	PasswordReset PasswordResetConfig
	Broadcast     BroadcastConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig tunes the sliding-window sign-in limiter.
type RateLimitConfig struct {
	// MaxAttempts is the sign-in budget per email inside Window.
	MaxAttempts int
	// Window is the trailing window attempts are counted over.
	Window time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by medauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// RefreshThreshold triggers a transparent refresh when the current
	// session's remaining lifetime drops below it.
	RefreshThreshold time.Duration
	// CacheKeyPrefix namespaces token cache entries.
	CacheKeyPrefix string
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig defines a public type used by medauth APIs.
type PasswordResetConfig struct {
	// RedirectTo is forwarded to the provider's reset email template.
	RedirectTo string
}

/*
====================================
BROADCAST CONFIG
====================================
*/

// BroadcastConfig defines a public type used by medauth APIs.
type BroadcastConfig struct {
	// Buffer is the snapshot queue depth between the provider event stream
	// and subscriber delivery.
	Buffer int
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Session: SessionConfig{
			RefreshThreshold: 5 * time.Minute,
			CacheKeyPrefix:   "medauth",
		},
		Broadcast: BroadcastConfig{
			Buffer: 16,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All sections are value types today; the clone exists so future
	// reference-typed sections cannot alias caller state.
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.RateLimit.MaxAttempts <= 0 {
		return errors.New("medauth: RateLimit.MaxAttempts must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return errors.New("medauth: RateLimit.Window must be positive")
	}
	if cfg.Session.RefreshThreshold <= 0 {
		return errors.New("medauth: Session.RefreshThreshold must be positive")
	}
	if cfg.Broadcast.Buffer < 0 {
		return errors.New("medauth: Broadcast.Buffer must not be negative")
	}
	return nil
}
