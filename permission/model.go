package permission

import (
	"strings"
	"time"
)

// Kind classifies a catalog node.
type Kind string

const (
	// KindMenu is a navigable menu entry; it may carry a route path.
	KindMenu Kind = "menu"
	// KindButton is an in-page action.
	KindButton Kind = "button"
	// KindAPI is a backend endpoint; Path holds the endpoint path.
	KindAPI Kind = "api"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMenu, KindButton, KindAPI:
		return true
	default:
		return false
	}
}

// Permission is a node of the catalog forest. Values returned by the catalog are
// copies; mutating them has no effect on the catalog.
type Permission struct {
	ID          string    `json:"id" yaml:"id"`
	Code        string    `json:"code" yaml:"code"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        Kind      `json:"kind" yaml:"kind"`
	Path        string    `json:"path,omitempty" yaml:"path,omitempty"`
	Icon        string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	ParentID    string    `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	SortOrder   int       `json:"sortOrder" yaml:"sortOrder"`
	Enabled     bool      `json:"enabled" yaml:"enabled"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`

	// seq is the insertion sequence used to break SortOrder ties.
	seq uint64
}

// IsRoot reports whether the node has no parent.
func (p Permission) IsRoot() bool {
	return p.ParentID == ""
}

// Fields carries the caller-chosen attributes of a new node.
type Fields struct {
	Code        string
	Name        string
	Description string
	Kind        Kind
	Path        string
	Icon        string
	SortOrder   int
	Enabled     bool
}

// Patch describes a partial update. Nil fields are left untouched. A non-nil
// ParentID pointing at "" moves the node to the root level.
type Patch struct {
	Code        *string
	Name        *string
	Description *string
	Kind        *Kind
	Path        *string
	Icon        *string
	SortOrder   *int
	Enabled     *bool
	ParentID    *string
}

func normalizeFields(f Fields) (Fields, error) {
	f.Code = strings.TrimSpace(f.Code)
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Path = strings.TrimSpace(f.Path)
	if f.Kind == "" {
		f.Kind = KindMenu
	}
	if f.Code == "" || f.Name == "" || !f.Kind.Valid() {
		return f, ErrInvalidPermission
	}
	return f, nil
}
