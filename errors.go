package goAccess

import (
	"errors"

	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/session"
)

// Errors returned by Console operations. Catalog, role, and session errors
// are the component sentinels, re-exported so callers only import this
// package; match them with errors.Is.
var (
	ErrNotFound          = permission.ErrNotFound
	ErrDuplicateCode     = permission.ErrDuplicateCode
	ErrParentNotFound    = permission.ErrParentNotFound
	ErrCycleDetected     = permission.ErrCycleDetected
	ErrInvalidPermission = permission.ErrInvalidPermission
	ErrReservedCode      = permission.ErrReservedCode
	ErrImmutableRole     = permission.ErrImmutableRole
	ErrUnknownPermission = permission.ErrUnknownPermission
	ErrInvalidRole       = permission.ErrInvalidRole

	ErrPersistenceUnavailable = session.ErrPersistenceUnavailable
	ErrRecordCorrupt          = session.ErrRecordCorrupt

	// ErrInvalidConfig is returned by Config.Validate and Builder.Build.
	ErrInvalidConfig = errors.New("goaccess: invalid config")
	// ErrBuilderUsed is returned when Build is called twice.
	ErrBuilderUsed = errors.New("goaccess: builder already used")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("goaccess: not authenticated")
)
