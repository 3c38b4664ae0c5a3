// Package internal groups the packages that are intentionally private to
// medauth.
//
// # Sub-packages
//
//   - broadcast — ordered auth-state snapshot dispatch (Dispatcher)
//   - rate — sign-in rate limit primitives (memory and Redis backed)
//   - repo — identity repository over the remote provider, with failure
//     classification
//
// # What this package must NOT do
//
//   - Export types that appear in the public medauth API.
//   - Be imported by any package outside the medauth module.
package internal
