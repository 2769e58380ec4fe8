package permission

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Catalog owns the permission forest. Nodes live in a flat arena keyed by id and
// the parent/child relation is kept in a derived child index.
//
// Every mutation builds a new snapshot and publishes it atomically, so readers
// never lock and never observe a partially applied change. Writers are
// serialized internally.
type Catalog struct {
	opts  options
	mu    sync.Mutex
	state atomic.Pointer[snapshot]
}

type snapshot struct {
	nodes    map[string]Permission
	byCode   map[string]string
	children map[string][]string
	seq      uint64
}

// NewCatalog creates an empty [Catalog].
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{opts: applyOptions(opts)}
	c.state.Store(&snapshot{
		nodes:    make(map[string]Permission),
		byCode:   make(map[string]string),
		children: make(map[string][]string),
	})
	return c
}

// Insert adds a node under parentID, or at the root level when parentID is empty.
// The code must be unique across the entire catalog.
func (c *Catalog) Insert(parentID string, f Fields) (Permission, error) {
	f, err := normalizeFields(f)
	if err != nil {
		return Permission{}, err
	}
	parentID = strings.TrimSpace(parentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.state.Load()
	if _, taken := cur.byCode[f.Code]; taken {
		return Permission{}, fmt.Errorf("%w: %q", ErrDuplicateCode, f.Code)
	}
	if parentID != "" {
		if _, ok := cur.nodes[parentID]; !ok {
			return Permission{}, fmt.Errorf("%w: %q", ErrParentNotFound, parentID)
		}
	}

	id := c.opts.newID()
	if _, exists := cur.nodes[id]; exists || id == "" {
		return Permission{}, fmt.Errorf("%w: id generator returned %q", ErrInvalidPermission, id)
	}

	next := cur.clone()
	next.seq++
	now := c.opts.now()
	p := Permission{
		ID:          id,
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		Kind:        f.Kind,
		Path:        f.Path,
		Icon:        f.Icon,
		ParentID:    parentID,
		SortOrder:   f.SortOrder,
		Enabled:     f.Enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
		seq:         next.seq,
	}
	next.nodes[id] = p
	next.byCode[p.Code] = id
	next.children[parentID] = next.insertChild(next.children[parentID], id)

	c.state.Store(next)
	return p, nil
}

// Update applies a partial change to the node with the given id. Moving a node
// under itself or any of its descendants fails with [ErrCycleDetected]. On any
// error the catalog is left unchanged.
func (c *Catalog) Update(id string, patch Patch) (Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.state.Load()
	node, ok := cur.nodes[id]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	updated := node
	changed := false

	if patch.Code != nil {
		code := strings.TrimSpace(*patch.Code)
		if code == "" {
			return Permission{}, ErrInvalidPermission
		}
		if code != node.Code {
			if owner, taken := cur.byCode[code]; taken && owner != id {
				return Permission{}, fmt.Errorf("%w: %q", ErrDuplicateCode, code)
			}
			updated.Code = code
			changed = true
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Permission{}, ErrInvalidPermission
		}
		changed = changed || name != node.Name
		updated.Name = name
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		changed = changed || desc != node.Description
		updated.Description = desc
	}
	if patch.Kind != nil {
		if !patch.Kind.Valid() {
			return Permission{}, ErrInvalidPermission
		}
		changed = changed || *patch.Kind != node.Kind
		updated.Kind = *patch.Kind
	}
	if patch.Path != nil {
		path := strings.TrimSpace(*patch.Path)
		changed = changed || path != node.Path
		updated.Path = path
	}
	if patch.Icon != nil {
		changed = changed || *patch.Icon != node.Icon
		updated.Icon = *patch.Icon
	}
	if patch.Enabled != nil {
		changed = changed || *patch.Enabled != node.Enabled
		updated.Enabled = *patch.Enabled
	}

	reorder := false
	if patch.SortOrder != nil && *patch.SortOrder != node.SortOrder {
		updated.SortOrder = *patch.SortOrder
		reorder = true
	}

	moved := false
	if patch.ParentID != nil {
		parentID := strings.TrimSpace(*patch.ParentID)
		if parentID != node.ParentID {
			if parentID == id {
				return Permission{}, fmt.Errorf("%w: %q cannot be its own parent", ErrCycleDetected, id)
			}
			if parentID != "" {
				if _, ok := cur.nodes[parentID]; !ok {
					return Permission{}, fmt.Errorf("%w: %q", ErrParentNotFound, parentID)
				}
				if cur.isAncestor(id, parentID) {
					return Permission{}, fmt.Errorf("%w: %q is a descendant of %q", ErrCycleDetected, parentID, id)
				}
			}
			updated.ParentID = parentID
			moved = true
		}
	}

	if !changed && !reorder && !moved {
		return node, nil
	}

	next := cur.clone()
	updated.UpdatedAt = c.opts.now()
	if updated.Code != node.Code {
		delete(next.byCode, node.Code)
		next.byCode[updated.Code] = id
	}

	if moved || reorder {
		next.children[node.ParentID] = removeID(next.children[node.ParentID], id)
		if len(next.children[node.ParentID]) == 0 {
			delete(next.children, node.ParentID)
		}
		if moved {
			next.seq++
			updated.seq = next.seq
		}
	}
	next.nodes[id] = updated
	if moved || reorder {
		next.children[updated.ParentID] = next.insertChild(next.children[updated.ParentID], id)
	}

	c.state.Store(next)
	return updated, nil
}

// Remove deletes the node and its entire subtree. The removed nodes are
// returned parent-first.
func (c *Catalog) Remove(id string) ([]Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.state.Load()
	node, ok := cur.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	removed := cur.subtree(id)

	next := cur.clone()
	for _, p := range removed {
		delete(next.nodes, p.ID)
		delete(next.byCode, p.Code)
		delete(next.children, p.ID)
	}
	next.children[node.ParentID] = removeID(next.children[node.ParentID], id)
	if len(next.children[node.ParentID]) == 0 {
		delete(next.children, node.ParentID)
	}

	c.state.Store(next)
	return removed, nil
}

// Resolve looks a node up by code.
func (c *Catalog) Resolve(code string) (Permission, error) {
	cur := c.state.Load()
	id, ok := cur.byCode[code]
	if !ok {
		return Permission{}, fmt.Errorf("%w: code %q", ErrNotFound, code)
	}
	return cur.nodes[id], nil
}

// Get looks a node up by id.
func (c *Catalog) Get(id string) (Permission, error) {
	p, ok := c.state.Load().nodes[id]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// HasCode reports whether code resolves in the catalog.
func (c *Catalog) HasCode(code string) bool {
	_, ok := c.state.Load().byCode[code]
	return ok
}

// Enabled reports whether code resolves and the node together with all of its
// ancestors is enabled. known is false when the code is not in the catalog.
func (c *Catalog) Enabled(code string) (enabled bool, known bool) {
	cur := c.state.Load()
	id, ok := cur.byCode[code]
	if !ok {
		return false, false
	}
	for steps := 0; id != "" && steps <= len(cur.nodes); steps++ {
		node := cur.nodes[id]
		if !node.Enabled {
			return false, true
		}
		id = node.ParentID
	}
	return true, true
}

// Children returns the direct children of id in presentation order. An empty id
// lists the roots.
func (c *Catalog) Children(id string) []Permission {
	cur := c.state.Load()
	ids := cur.children[id]
	out := make([]Permission, 0, len(ids))
	for _, childID := range ids {
		out = append(out, cur.nodes[childID])
	}
	return out
}

// Roots returns the root nodes in presentation order.
func (c *Catalog) Roots() []Permission {
	return c.Children("")
}

// Len returns the number of nodes.
func (c *Catalog) Len() int {
	return len(c.state.Load().nodes)
}

// List returns every node in depth-first presentation order.
func (c *Catalog) List() []Permission {
	cur := c.state.Load()
	out := make([]Permission, 0, len(cur.nodes))
	cur.walk("", 0, func(p Permission, _ int) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Walk visits every node depth-first in presentation order. Returning false from
// fn skips the node's subtree.
func (c *Catalog) Walk(fn func(p Permission, depth int) bool) {
	c.state.Load().walk("", 0, fn)
}

func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		nodes:    make(map[string]Permission, len(s.nodes)+1),
		byCode:   make(map[string]string, len(s.byCode)+1),
		children: make(map[string][]string, len(s.children)+1),
		seq:      s.seq,
	}
	for k, v := range s.nodes {
		next.nodes[k] = v
	}
	for k, v := range s.byCode {
		next.byCode[k] = v
	}
	for k, v := range s.children {
		ids := make([]string, len(v))
		copy(ids, v)
		next.children[k] = ids
	}
	return next
}

// less orders siblings by SortOrder, then by insertion sequence.
func (s *snapshot) less(a, b string) bool {
	na, nb := s.nodes[a], s.nodes[b]
	if na.SortOrder != nb.SortOrder {
		return na.SortOrder < nb.SortOrder
	}
	return na.seq < nb.seq
}

func (s *snapshot) insertChild(ids []string, id string) []string {
	i := sort.Search(len(ids), func(i int) bool { return s.less(id, ids[i]) })
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// isAncestor reports whether ancestorID appears on the parent chain of id.
func (s *snapshot) isAncestor(ancestorID, id string) bool {
	for steps := 0; id != "" && steps <= len(s.nodes); steps++ {
		node, ok := s.nodes[id]
		if !ok {
			return false
		}
		if node.ParentID == ancestorID {
			return true
		}
		id = node.ParentID
	}
	return false
}

func (s *snapshot) subtree(id string) []Permission {
	out := []Permission{s.nodes[id]}
	for i := 0; i < len(out); i++ {
		for _, childID := range s.children[out[i].ID] {
			out = append(out, s.nodes[childID])
		}
	}
	return out
}

func (s *snapshot) walk(parentID string, depth int, fn func(Permission, int) bool) {
	for _, id := range s.children[parentID] {
		if fn(s.nodes[id], depth) {
			s.walk(id, depth+1, fn)
		}
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
