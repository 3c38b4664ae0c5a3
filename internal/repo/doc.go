// Package repo is the identity repository: the single adapter between the
// remote provider's network surface and the rest of the module. Every
// operation issues exactly one provider call and normalizes the outcome into
// a record plus a classified [Failure] — callers never see a raw transport
// error or provider-native field names.
//
// # What this package must NOT do
//
//   - Validate or sanitize input (the service layer runs first).
//   - Apply rate limits or business policy.
//   - Let provider column names leak past the record types.
package repo
