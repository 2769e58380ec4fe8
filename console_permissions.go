package goAccess

import (
	"context"
	"strings"

	"github.com/MrEthical07/goAccess/permission"
	"go.uber.org/zap"
)

// CreatePermission inserts a node under parentID ("" for a root).
func (c *Console) CreatePermission(ctx context.Context, parentID string, f permission.Fields) (permission.Permission, error) {
	p, err := c.catalog.Insert(parentID, f)
	if err != nil {
		c.mutationFailed(ctx, "create_permission", err)
		c.emit(ctx, auditEventPermissionCreated, c.actor(), f.Code, err, nil)
		return permission.Permission{}, err
	}
	c.metricInc(MetricPermissionCreated)
	c.logger.Debug("permission created", zap.String("id", p.ID), zap.String("code", p.Code), zap.String("parent_id", p.ParentID))
	c.emit(ctx, auditEventPermissionCreated, c.actor(), p.Code, nil, map[string]string{"id": p.ID, "parent_id": p.ParentID})
	return p, nil
}

// UpdatePermission applies patch to the node id. A code change is carried into
// every role that granted the old code.
func (c *Console) UpdatePermission(ctx context.Context, id string, patch permission.Patch) (permission.Permission, error) {
	before, _ := c.catalog.Get(id)
	p, err := c.catalog.Update(id, patch)
	if err != nil {
		c.mutationFailed(ctx, "update_permission", err)
		c.emit(ctx, auditEventPermissionUpdated, c.actor(), id, err, nil)
		return permission.Permission{}, err
	}
	meta := map[string]string{"id": p.ID}
	var renamed []string
	if before.Code != "" && before.Code != p.Code {
		renamed = c.roles.RenameCode(before.Code, p.Code)
		meta["previous_code"] = before.Code
		if len(renamed) > 0 {
			meta["renamed_in_roles"] = strings.Join(renamed, ",")
		}
	}
	c.metricInc(MetricPermissionUpdated)
	c.logger.Debug("permission updated",
		zap.String("id", p.ID),
		zap.String("code", p.Code),
		zap.Strings("renamed_in_roles", renamed),
	)
	c.emit(ctx, auditEventPermissionUpdated, c.actor(), p.Code, nil, meta)
	return p, nil
}

// RemovePermission removes id and its whole subtree, then drops the removed
// codes from every role that held them.
func (c *Console) RemovePermission(ctx context.Context, id string) ([]permission.Permission, error) {
	removed, err := c.catalog.Remove(id)
	if err != nil {
		c.mutationFailed(ctx, "remove_permission", err)
		c.emit(ctx, auditEventPermissionRemoved, c.actor(), id, err, nil)
		return nil, err
	}
	codes := make([]string, len(removed))
	for i, p := range removed {
		codes[i] = p.Code
	}
	affected := c.roles.PruneCodes(codes)

	c.metricInc(MetricPermissionRemoved)
	c.logger.Debug("permission removed",
		zap.String("id", id),
		zap.Strings("codes", codes),
		zap.Strings("pruned_roles", affected),
	)
	meta := map[string]string{"id": id, "removed": strings.Join(codes, ",")}
	if len(affected) > 0 {
		meta["pruned_roles"] = strings.Join(affected, ",")
	}
	c.emit(ctx, auditEventPermissionRemoved, c.actor(), removed[0].Code, nil, meta)
	return removed, nil
}

// Permission returns the node id.
func (c *Console) Permission(id string) (permission.Permission, error) {
	return c.catalog.Get(id)
}

// ResolvePermission returns the node holding code.
func (c *Console) ResolvePermission(code string) (permission.Permission, error) {
	return c.catalog.Resolve(code)
}

// Permissions lists the catalog depth-first in presentation order.
func (c *Console) Permissions() []permission.Permission {
	return c.catalog.List()
}

// PermissionTree returns the selectable tree keyed by node id.
func (c *Console) PermissionTree() []permission.TreeNode {
	return c.catalog.SelectableTree()
}

// PermissionCodeTree returns the selectable tree keyed by permission code, as
// used by role assignment forms.
func (c *Console) PermissionCodeTree() []permission.TreeNode {
	return c.catalog.CodeTree()
}
