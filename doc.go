// Package authclient manages the client side of a bearer credential. It
// projects the stored token into a session and answers "am I logged in"
// for views and route guards.
//
// Session lifecycle:
//   - SessionStore is the single writer of the credential slot. Login decodes
//     and persists a credential while Logout clears it. Validate rebuilds the
//     session from whatever the slot currently holds, purging anything
//     expired or undecodable so a stored credential is always a live one.
//   - Subscribers registered via Subscribe hear the new session once per
//     state-changing operation, always after the credential write landed.
//     A validate that reaffirms the existing state stays silent.
//
// Credential storage:
//   - CredentialStore abstracts the single durable slot. Memory, file, and
//     Bun/SQLite implementations ship in the box; all report an absent slot
//     with ErrNoCredential so callers can treat "logged out" uniformly.
//
// Route guarding:
//   - RouteGuard is a one-shot state machine (pending, authorized,
//     unauthorized) that settles exactly once per navigation. Validation
//     failures fail closed to unauthorized; a cancelled context leaves the
//     guard pending so an abandoned view renders nothing.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing login, logout,
//     and purge events. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking session work.
package authclient
