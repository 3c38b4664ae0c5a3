// Package medauth is the client-side authentication and session lifecycle
// core of a patient-facing medical records application: sign-up/sign-in/
// sign-out, session persistence and refresh, auth-state broadcast to UI
// layers, and reactive profile-deletion detection.
//
// The package is designed for concurrent client runtimes: Service methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// medauth is the public surface. It exposes [Service], [Builder], [Config],
// and value types (Session, User, Profile, AuthState, AuthError). All
// internal coordination — repository normalization, rate limiting, broadcast
// dispatch — lives under internal/ and is never exported. The remote
// identity/data service is consumed only through [provider.Client]; password
// hashing, token signing, and row-level authorization are its side of the
// boundary.
//
// # What this package must NOT do
//
//   - Parse the provider's persisted session blob or verify token signatures.
//   - Surface raw provider error text to callers (the AuthError translation
//     table is total, with a generic fallback).
//   - Perform I/O outside of Service methods (construction via Builder is
//     allocation-only until Build).
package medauth
