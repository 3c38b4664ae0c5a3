// Package controller owns the live AuthState for one running application
// instance. Each client runtime (web, mobile) constructs exactly one
// [Controller] per app lifetime: it initializes state at startup, follows the
// identity service's broadcast, exposes the imperative auth actions to the UI
// tree, and runs the profile-deletion watchdog while a user is signed in.
//
// # Ordering contract
//
// State updates apply in the order their triggering events complete. Two
// overlapping mutating actions on the same profile resolve last-write-wins;
// broadcast snapshots always win over optimistic local merges, because the
// broadcast path re-fetches from the server.
//
// # What this package must NOT do
//
//   - Talk to the provider directly (everything goes through the service).
//   - Leave Loading true on any exit path, including panics.
//   - Let a watchdog timer or push subscription outlive its owning session.
package controller
