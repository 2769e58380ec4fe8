// Package permission provides the permission catalog (a forest of menu, button
// and api nodes) and the role registry that maps roles to sets of permission
// codes.
//
// # Data layout
//
// The [Catalog] stores nodes in a flat arena keyed by id and derives children
// from a parent-id index. Codes are unique across the whole catalog, the parent
// graph is acyclic, and every parent id resolves. These invariants are checked
// on every mutation, never lazily.
//
// # Snapshots
//
// [Catalog] and [RoleRegistry] publish a new immutable snapshot after each
// successful mutation. Reads load the current snapshot without locking, so tree
// projections and authorization checks never see half-applied changes.
//
// # What this package must NOT do
//
//   - Perform I/O of any kind.
//   - Import goAccess, session, or guard.
//   - Treat super_admin as anything other than a tagged role code.
package permission
