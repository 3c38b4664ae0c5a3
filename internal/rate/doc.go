// Package rate provides internal primitives for sliding-window sign-in
// attempt limiting.
//
// # Window semantics
//
// Each attempt records a timestamp under the caller's key; only timestamps
// inside the trailing window count. Allow admits while the count is below the
// budget; Reset clears the key's history (called after a successful sign-in).
// Key prefix for the Redis backend: si: (sign-in per-identifier).
//
// # What this package must NOT do
//
//   - Decide the budget or window (the root package's config owns policy).
//   - Be imported outside the medauth module.
package rate
