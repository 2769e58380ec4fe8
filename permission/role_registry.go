package permission

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SuperAdmin is the reserved role code. The role always exists, cannot be
// edited or deleted, and satisfies every authorization check.
const SuperAdmin = "super_admin"

var roleCodePattern = regexp.MustCompile(`^[a-z_]+$`)

// Role is a named, reusable set of permission codes.
type Role struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	UserCount   int       `json:"userCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	seq uint64
}

// IsSuperAdmin reports whether r is the reserved super-admin role.
func (r Role) IsSuperAdmin() bool {
	return r.Code == SuperAdmin
}

// Grants reports whether the role's explicit permission set contains code. It
// does not apply the super-admin bypass; see [RoleRegistry.Grants].
func (r Role) Grants(code string) bool {
	i := sort.SearchStrings(r.Permissions, code)
	return i < len(r.Permissions) && r.Permissions[i] == code
}

// RoleFields carries the attributes of a new role.
type RoleFields struct {
	Code        string
	Name        string
	Description string
}

// RolePatch describes a partial role update. The code is immutable and has no
// patch field.
type RolePatch struct {
	Name        *string
	Description *string
}

// CodeResolver validates permission codes. [*Catalog] satisfies it.
type CodeResolver interface {
	HasCode(code string) bool
}

// RoleRegistry owns roles and their permission sets. Like [Catalog] it publishes
// an immutable snapshot after every mutation.
type RoleRegistry struct {
	opts     options
	resolver CodeResolver

	mu    sync.Mutex
	state atomic.Pointer[roleSnapshot]
}

type roleSnapshot struct {
	roles  map[string]Role
	byCode map[string]string
	seq    uint64
}

// NewRoleRegistry creates a registry that validates permission codes against
// resolver. The super-admin role is created up front with id [SuperAdmin].
func NewRoleRegistry(resolver CodeResolver, opts ...Option) *RoleRegistry {
	r := &RoleRegistry{
		opts:     applyOptions(opts),
		resolver: resolver,
	}
	now := r.opts.now()
	super := Role{
		ID:          SuperAdmin,
		Code:        SuperAdmin,
		Name:        "Super Administrator",
		Description: "Holds every permission; cannot be edited or deleted.",
		Permissions: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
		seq:         1,
	}
	r.state.Store(&roleSnapshot{
		roles:  map[string]Role{super.ID: super},
		byCode: map[string]string{super.Code: super.ID},
		seq:    1,
	})
	return r
}

// CreateRole registers a new role with an empty permission set.
func (r *RoleRegistry) CreateRole(f RoleFields) (Role, error) {
	code := strings.TrimSpace(f.Code)
	name := strings.TrimSpace(f.Name)
	if code == SuperAdmin {
		return Role{}, fmt.Errorf("%w: %q", ErrReservedCode, code)
	}
	if !roleCodePattern.MatchString(code) {
		return Role{}, fmt.Errorf("%w: code %q must match %s", ErrInvalidRole, code, roleCodePattern)
	}
	if name == "" {
		return Role{}, fmt.Errorf("%w: name required", ErrInvalidRole)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	if _, taken := cur.byCode[code]; taken {
		return Role{}, fmt.Errorf("%w: %q", ErrDuplicateCode, code)
	}
	id := r.opts.newID()
	if _, exists := cur.roles[id]; exists || id == "" {
		return Role{}, fmt.Errorf("%w: id generator returned %q", ErrInvalidRole, id)
	}

	next := cur.clone()
	next.seq++
	now := r.opts.now()
	role := Role{
		ID:          id,
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		Permissions: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
		seq:         next.seq,
	}
	next.roles[id] = role
	next.byCode[code] = id

	r.state.Store(next)
	return cloneRole(role), nil
}

// UpdateRole changes the display fields of a role.
func (r *RoleRegistry) UpdateRole(id string, patch RolePatch) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	role, err := cur.mutable(id)
	if err != nil {
		return Role{}, err
	}

	updated := role
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Role{}, fmt.Errorf("%w: name required", ErrInvalidRole)
		}
		updated.Name = name
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if updated.Name == role.Name && updated.Description == role.Description {
		return cloneRole(role), nil
	}
	updated.UpdatedAt = r.opts.now()

	next := cur.clone()
	next.roles[id] = updated
	r.state.Store(next)
	return cloneRole(updated), nil
}

// DeleteRole removes a role. Principals still holding the role are not checked;
// that is the user-management side's concern.
func (r *RoleRegistry) DeleteRole(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	role, err := cur.mutable(id)
	if err != nil {
		return err
	}

	next := cur.clone()
	delete(next.roles, id)
	delete(next.byCode, role.Code)
	r.state.Store(next)
	return nil
}

// AssignPermissions replaces the role's permission set with codes. Every code
// must resolve in the catalog.
func (r *RoleRegistry) AssignPermissions(roleID string, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	role, err := cur.mutable(roleID)
	if err != nil {
		return err
	}

	set := normalizeCodes(codes)
	for _, code := range set {
		if r.resolver == nil || !r.resolver.HasCode(code) {
			return fmt.Errorf("%w: %q", ErrUnknownPermission, code)
		}
	}

	role.Permissions = set
	role.UpdatedAt = r.opts.now()

	next := cur.clone()
	next.roles[roleID] = role
	r.state.Store(next)
	return nil
}

// SetUserCount records the number of principals holding the role. The count is
// owned by the user-management side; the registry only stores it.
func (r *RoleRegistry) SetUserCount(roleID string, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative user count", ErrInvalidRole)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	role, ok := cur.roles[roleID]
	if !ok {
		return fmt.Errorf("%w: role %q", ErrNotFound, roleID)
	}
	if role.UserCount == n {
		return nil
	}
	role.UserCount = n

	next := cur.clone()
	next.roles[roleID] = role
	r.state.Store(next)
	return nil
}

// PruneCodes drops codes from every mutable role, typically after the nodes were
// removed from the catalog. It returns the codes of the roles that changed.
func (r *RoleRegistry) PruneCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		drop[c] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	var next *roleSnapshot
	var affected []string
	now := r.opts.now()
	for id, role := range cur.roles {
		if role.IsSuperAdmin() {
			continue
		}
		kept := make([]string, 0, len(role.Permissions))
		for _, code := range role.Permissions {
			if _, gone := drop[code]; !gone {
				kept = append(kept, code)
			}
		}
		if len(kept) == len(role.Permissions) {
			continue
		}
		if next == nil {
			next = cur.clone()
		}
		role.Permissions = kept
		role.UpdatedAt = now
		next.roles[id] = role
		affected = append(affected, role.Code)
	}
	if next != nil {
		r.state.Store(next)
	}
	sort.Strings(affected)
	return affected
}

// RenameCode replaces from with to in every mutable role, typically after the
// catalog node holding from was given a new code. It returns the codes of the
// roles that changed.
func (r *RoleRegistry) RenameCode(from, to string) []string {
	if from == "" || to == "" || from == to {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	var next *roleSnapshot
	var affected []string
	now := r.opts.now()
	for id, role := range cur.roles {
		if role.IsSuperAdmin() || !slices.Contains(role.Permissions, from) {
			continue
		}
		perms := slices.Clone(role.Permissions)
		for i, code := range perms {
			if code == from {
				perms[i] = to
			}
		}
		if next == nil {
			next = cur.clone()
		}
		role.Permissions = normalizeCodes(perms)
		role.UpdatedAt = now
		next.roles[id] = role
		affected = append(affected, role.Code)
	}
	if next != nil {
		r.state.Store(next)
	}
	sort.Strings(affected)
	return affected
}

// Get returns the role with the given id.
func (r *RoleRegistry) Get(id string) (Role, error) {
	role, ok := r.state.Load().roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %q", ErrNotFound, id)
	}
	return cloneRole(role), nil
}

// GetByCode returns the role with the given code.
func (r *RoleRegistry) GetByCode(code string) (Role, error) {
	cur := r.state.Load()
	id, ok := cur.byCode[code]
	if !ok {
		return Role{}, fmt.Errorf("%w: role code %q", ErrNotFound, code)
	}
	return cloneRole(cur.roles[id]), nil
}

// List returns all roles in creation order.
func (r *RoleRegistry) List() []Role {
	cur := r.state.Load()
	out := make([]Role, 0, len(cur.roles))
	for _, role := range cur.roles {
		out = append(out, cloneRole(role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Grants reports whether any of roleCodes grants code. Holding [SuperAdmin]
// grants everything. Unknown role codes grant nothing.
func (r *RoleRegistry) Grants(roleCodes []string, code string) bool {
	cur := r.state.Load()
	for _, rc := range roleCodes {
		if rc == SuperAdmin {
			return true
		}
		id, ok := cur.byCode[rc]
		if !ok {
			continue
		}
		if cur.roles[id].Grants(code) {
			return true
		}
	}
	return false
}

// PermissionsFor returns the sorted union of the explicit permission sets of
// roleCodes.
func (r *RoleRegistry) PermissionsFor(roleCodes []string) []string {
	cur := r.state.Load()
	var all []string
	for _, rc := range roleCodes {
		if id, ok := cur.byCode[rc]; ok {
			all = append(all, cur.roles[id].Permissions...)
		}
	}
	return normalizeCodes(all)
}

// Len returns the number of roles, the super-admin role included.
func (r *RoleRegistry) Len() int {
	return len(r.state.Load().roles)
}

func (s *roleSnapshot) mutable(id string) (Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %q", ErrNotFound, id)
	}
	if role.IsSuperAdmin() {
		return Role{}, fmt.Errorf("%w: %q", ErrImmutableRole, role.Code)
	}
	return role, nil
}

func (s *roleSnapshot) clone() *roleSnapshot {
	next := &roleSnapshot{
		roles:  make(map[string]Role, len(s.roles)+1),
		byCode: make(map[string]string, len(s.byCode)+1),
		seq:    s.seq,
	}
	for k, v := range s.roles {
		next.roles[k] = v
	}
	for k, v := range s.byCode {
		next.byCode[k] = v
	}
	return next
}

func cloneRole(r Role) Role {
	perms := make([]string, len(r.Permissions))
	copy(perms, r.Permissions)
	r.Permissions = perms
	return r
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
