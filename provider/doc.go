// Package provider defines the contract this module expects from the remote
// identity/data service, together with an HTTP implementation speaking a
// GoTrue-style REST surface and an in-memory fake for tests.
//
// # Architecture boundaries
//
// The provider owns password storage, token signing, row-level authorization,
// and client-side session persistence. Nothing in this module parses the
// persisted session blob or verifies token signatures; sessions are read and
// written only through [Client] accessors.
//
// # What this package must NOT do
//
//   - Validate or sanitize user input (that is the service layer's job).
//   - Translate provider error codes into user-facing messages (the root
//     package owns the translation table).
//   - Be bypassed: no other package may issue network calls to the provider.
package provider
