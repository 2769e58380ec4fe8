// Package guard decides whether the current session may enter a console route.
//
// [Guard.Check] is a pure function of a [session.State], a [Route], and the
// current snapshots of the role registry and permission catalog. It returns
// [Allow], [RedirectToLogin], or [Deny]; acting on the decision (redirecting,
// logging out an expired session) is left to the caller.
//
// # What this package must NOT do
//
//   - Mutate the session, roles, or catalog.
//   - Cache decisions across calls.
package guard
