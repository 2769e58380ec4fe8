// Package seed loads an initial permission tree and role set from YAML.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MrEthical07/goAccess/guard"
	"github.com/MrEthical07/goAccess/permission"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidSeed is returned for seeds that cannot be parsed or applied.
var ErrInvalidSeed = errors.New("seed: invalid seed")

// Seed is the document root.
type Seed struct {
	Permissions []Node `yaml:"permissions"`
	Roles       []Role `yaml:"roles"`
}

// Node is one permission with its children. Enabled defaults to true.
type Node struct {
	Code        string          `yaml:"code"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Kind        permission.Kind `yaml:"kind"`
	Path        string          `yaml:"path"`
	Icon        string          `yaml:"icon"`
	Sort        int             `yaml:"sort"`
	Enabled     *bool           `yaml:"enabled"`
	Children    []Node          `yaml:"children"`
}

// Role is one role. For super_admin only userCount is honoured.
type Role struct {
	Code        string   `yaml:"code"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
	UserCount   int      `yaml:"userCount"`
}

// Default returns the built-in seed.
func Default() (*Seed, error) {
	return Parse(defaultYAML)
}

// Load reads a seed file.
func Load(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Parse decodes a seed document.
func Parse(data []byte) (*Seed, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a seed document from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return &s, nil
}

// Apply inserts the permission tree depth-first, then creates the roles and
// assigns their permissions. It stops at the first error; entries applied
// before it stay applied.
func (s *Seed) Apply(catalog *permission.Catalog, roles *permission.RoleRegistry) error {
	for _, n := range s.Permissions {
		if err := insertNode(catalog, "", n); err != nil {
			return err
		}
	}
	for _, r := range s.Roles {
		if err := applyRole(roles, r); err != nil {
			return err
		}
	}
	return nil
}

func insertNode(catalog *permission.Catalog, parentID string, n Node) error {
	enabled := true
	if n.Enabled != nil {
		enabled = *n.Enabled
	}
	p, err := catalog.Insert(parentID, permission.Fields{
		Code:        n.Code,
		Name:        n.Name,
		Description: n.Description,
		Kind:        n.Kind,
		Path:        n.Path,
		Icon:        n.Icon,
		SortOrder:   n.Sort,
		Enabled:     enabled,
	})
	if err != nil {
		return fmt.Errorf("%w: permission %q: %w", ErrInvalidSeed, n.Code, err)
	}
	for _, child := range n.Children {
		if err := insertNode(catalog, p.ID, child); err != nil {
			return err
		}
	}
	return nil
}

func applyRole(roles *permission.RoleRegistry, r Role) error {
	if r.Code == permission.SuperAdmin {
		if err := roles.SetUserCount(permission.SuperAdmin, r.UserCount); err != nil {
			return fmt.Errorf("%w: role %q: %w", ErrInvalidSeed, r.Code, err)
		}
		return nil
	}
	role, err := roles.CreateRole(permission.RoleFields{Code: r.Code, Name: r.Name, Description: r.Description})
	if err != nil {
		return fmt.Errorf("%w: role %q: %w", ErrInvalidSeed, r.Code, err)
	}
	if len(r.Permissions) > 0 {
		if err := roles.AssignPermissions(role.ID, r.Permissions); err != nil {
			return fmt.Errorf("%w: role %q: %w", ErrInvalidSeed, r.Code, err)
		}
	}
	if r.UserCount != 0 {
		if err := roles.SetUserCount(role.ID, r.UserCount); err != nil {
			return fmt.Errorf("%w: role %q: %w", ErrInvalidSeed, r.Code, err)
		}
	}
	return nil
}

// Routes derives page routes from the menu nodes that carry a path. Each
// route requires the node's own code. Disabled nodes are included; the guard
// refuses their codes.
func (s *Seed) Routes() []guard.Route {
	var out []guard.Route
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			kind := n.Kind
			if kind == "" {
				kind = permission.KindMenu
			}
			if kind == permission.KindMenu && n.Path != "" {
				out = append(out, guard.Route{Path: n.Path, AnyOf: []string{n.Code}})
			}
			walk(n.Children)
		}
	}
	walk(s.Permissions)
	return out
}
