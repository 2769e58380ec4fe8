// Package session holds the single authenticated session of the console and
// persists it across restarts.
//
// # State model
//
// A [Store] publishes immutable [State] values through an atomic pointer. Readers
// never lock and never observe a half-applied mutation; writers are serialized
// so that the persisted record is written in the same order the in-memory
// states were published.
//
// # Persistence
//
// The persisted record mirrors the browser-era "auth-storage" envelope:
//
//	{"state":{"user":{...},"token":"...","isAuthenticated":true},"version":1}
//
// Only user, token, and isAuthenticated are persisted. The loading flag is
// transient. [RedisPersister] and [MemoryPersister] are provided; any
// [Persister] may be plugged in.
//
// # Architecture boundaries
//
// This package owns the session record and its codec. It does NOT verify
// credentials, parse tokens, or decide route access; those belong to the
// credential service, the jwt package, and the guard package respectively.
//
// # What this package must NOT do
//
//   - Import goAccess, guard, or middleware (no upward imports).
//   - Roll back the in-memory state because persistence failed.
//   - Persist the loading flag.
package session
