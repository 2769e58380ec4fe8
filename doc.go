// Package goAccess is the access-control core of an administrative console: a
// hierarchical permission catalog, role-to-permission assignment, and a
// session and route guard that every protected view consults.
//
// [Console] methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Reads never lock; mutations are
// serialized per component and become visible to the next read.
//
// # Architecture boundaries
//
// goAccess is the public surface. It exposes [Console], [Builder], [Config],
// and re-exports the component sentinels. The catalog and registry live in
// permission, the session in session, and route decisions in guard. Audit
// dispatch lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Verify credentials or hash passwords; the user record and token come
//     from an external credential service.
//   - Act as the server-side authority; decisions mirror what the server
//     enforces.
//   - Import any sub-package that re-imports goAccess (no import cycles).
package goAccess
