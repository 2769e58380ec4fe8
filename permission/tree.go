package permission

// TreeNode is the read-only projection of a catalog node used by selection
// widgets (parent pickers, role assignment trees).
type TreeNode struct {
	Label    string     `json:"label"`
	Value    string     `json:"value"`
	Kind     Kind       `json:"kind"`
	Disabled bool       `json:"disabled,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// SelectableTree projects the current catalog into a tree whose values are node
// ids. It is rebuilt from the latest snapshot on every call.
func (c *Catalog) SelectableTree() []TreeNode {
	return roots(c.state.Load().project("", func(p Permission) string { return p.ID }))
}

// CodeTree is like [Catalog.SelectableTree] but uses permission codes as values,
// which is what role assignment works with.
func (c *Catalog) CodeTree() []TreeNode {
	return roots(c.state.Load().project("", func(p Permission) string { return p.Code }))
}

// roots keeps an empty catalog rendering as an empty list rather than null.
func roots(nodes []TreeNode) []TreeNode {
	if nodes == nil {
		return []TreeNode{}
	}
	return nodes
}

func (s *snapshot) project(parentID string, value func(Permission) string) []TreeNode {
	ids := s.children[parentID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]TreeNode, 0, len(ids))
	for _, id := range ids {
		p := s.nodes[id]
		out = append(out, TreeNode{
			Label:    p.Name,
			Value:    value(p),
			Kind:     p.Kind,
			Disabled: !p.Enabled,
			Children: s.project(id, value),
		})
	}
	return out
}
