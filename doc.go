// Package library implements the backend of a small library content
// management system: accounts, admin accounts, authors and books exposed
// through a JSON REST API.
//
// Authorization:
//   - Every protected request resolves a Caller (anonymous, user or admin)
//     from the x-auth-token header. Admin permissions are read from the store
//     on each request so revocations apply immediately.
//   - Authorize is a pure decision table over (caller, action, target). The
//     Guard wraps it with logging and metrics; handlers consult the Guard
//     before looking up the target so a denial never reveals existence.
//
// Account lifecycle:
//   - Register creates an unconfirmed account with a confirmation token bound
//     to the username and email. Confirm clears the token.
//   - An owner's email change returns the account to unconfirmed and issues a
//     new token. An admin changing the email leaves confirmation untouched.
//   - Username and password changes are independent of confirmation. Banned
//     is an orthogonal flag that blocks login.
//
// Activity sinks:
//   - ActivitySink receives audit events for logins and lifecycle
//     transitions. Sinks run best-effort; errors are logged and never fail the
//     request. Metrics implements ActivitySink to count events.
package library
