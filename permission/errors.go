package permission

import "errors"

var (
	// ErrNotFound is returned when an id or code does not resolve.
	ErrNotFound = errors.New("permission: not found")
	// ErrDuplicateCode is returned when a code is already taken by another node or role.
	ErrDuplicateCode = errors.New("permission: duplicate code")
	// ErrParentNotFound is returned when a parent id does not resolve in the catalog.
	ErrParentNotFound = errors.New("permission: parent not found")
	// ErrCycleDetected is returned when a move would make a node its own ancestor.
	ErrCycleDetected = errors.New("permission: cycle detected")
	// ErrInvalidPermission is returned for empty codes/names and unknown kinds.
	ErrInvalidPermission = errors.New("permission: invalid permission")

	// ErrReservedCode is returned when creating a role with a reserved code.
	ErrReservedCode = errors.New("permission: reserved role code")
	// ErrImmutableRole is returned for any mutation that targets the super-admin role.
	ErrImmutableRole = errors.New("permission: immutable role")
	// ErrUnknownPermission is returned when a role is assigned a code the catalog does not know.
	ErrUnknownPermission = errors.New("permission: unknown permission")
	// ErrInvalidRole is returned for malformed role fields.
	ErrInvalidRole = errors.New("permission: invalid role")
)
