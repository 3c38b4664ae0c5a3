package tokencache

import (
	"context"
	"time"
)

// Cache defines a public type used by medauth APIs.
//
// Get and Has must apply the same expiry check; a key whose entry has
// expired behaves exactly like a key that was never set.
type Cache interface {
	// Set stores token under key, valid for ttl from now.
	Set(ctx context.Context, key, token string, ttl time.Duration) error
	// Get returns the token and true while the entry is unexpired. Expired
	// entries are evicted on the spot and reported as absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Has reports whether an unexpired entry exists for key.
	Has(ctx context.Context, key string) (bool, error)
	// Clear drops every entry. Called on sign-out.
	Clear(ctx context.Context) error
}
