package goAccess

import (
	"context"
	"strconv"
	"strings"

	"github.com/MrEthical07/goAccess/permission"
	"go.uber.org/zap"
)

// CreateRole registers a new role with no permissions.
func (c *Console) CreateRole(ctx context.Context, f permission.RoleFields) (permission.Role, error) {
	r, err := c.roles.CreateRole(f)
	if err != nil {
		c.mutationFailed(ctx, "create_role", err)
		c.emit(ctx, auditEventRoleCreated, c.actor(), f.Code, err, nil)
		return permission.Role{}, err
	}
	c.metricInc(MetricRoleCreated)
	c.logger.Debug("role created", zap.String("id", r.ID), zap.String("code", r.Code))
	c.emit(ctx, auditEventRoleCreated, c.actor(), r.Code, nil, map[string]string{"id": r.ID})
	return r, nil
}

// UpdateRole changes the name or description of a role.
func (c *Console) UpdateRole(ctx context.Context, id string, patch permission.RolePatch) (permission.Role, error) {
	r, err := c.roles.UpdateRole(id, patch)
	if err != nil {
		c.mutationFailed(ctx, "update_role", err)
		c.emit(ctx, auditEventRoleUpdated, c.actor(), id, err, nil)
		return permission.Role{}, err
	}
	c.metricInc(MetricRoleUpdated)
	c.emit(ctx, auditEventRoleUpdated, c.actor(), r.Code, nil, map[string]string{"id": r.ID})
	return r, nil
}

// DeleteRole removes a role. Users still holding its code simply stop
// receiving its grants.
func (c *Console) DeleteRole(ctx context.Context, id string) error {
	before, _ := c.roles.Get(id)
	if err := c.roles.DeleteRole(id); err != nil {
		c.mutationFailed(ctx, "delete_role", err)
		c.emit(ctx, auditEventRoleDeleted, c.actor(), id, err, nil)
		return err
	}
	c.metricInc(MetricRoleDeleted)
	if before.UserCount > 0 {
		c.logger.Info("role deleted while still assigned",
			zap.String("code", before.Code),
			zap.Int("user_count", before.UserCount),
		)
	}
	c.emit(ctx, auditEventRoleDeleted, c.actor(), before.Code, nil, map[string]string{"id": id})
	return nil
}

// AssignPermissions replaces the permission set of a role.
func (c *Console) AssignPermissions(ctx context.Context, roleID string, codes []string) error {
	if err := c.roles.AssignPermissions(roleID, codes); err != nil {
		c.mutationFailed(ctx, "assign_permissions", err)
		c.emit(ctx, auditEventRolePermissions, c.actor(), roleID, err, nil)
		return err
	}
	r, _ := c.roles.Get(roleID)
	c.metricInc(MetricRolePermissionsAssigned)
	c.logger.Debug("role permissions assigned", zap.String("code", r.Code), zap.Int("count", len(r.Permissions)))
	c.emit(ctx, auditEventRolePermissions, c.actor(), r.Code, nil, map[string]string{
		"id":          roleID,
		"permissions": strings.Join(r.Permissions, ","),
	})
	return nil
}

// SetRoleUserCount records how many users hold a role. It is fed by the
// user-management side of the console.
func (c *Console) SetRoleUserCount(ctx context.Context, roleID string, n int) error {
	if err := c.roles.SetUserCount(roleID, n); err != nil {
		c.mutationFailed(ctx, "set_role_user_count", err)
		return err
	}
	c.emit(ctx, auditEventRoleUserCountChanged, c.actor(), roleID, nil, map[string]string{"user_count": strconv.Itoa(n)})
	return nil
}

// Role returns the role id.
func (c *Console) Role(id string) (permission.Role, error) {
	return c.roles.Get(id)
}

// Roles lists all roles in creation order.
func (c *Console) Roles() []permission.Role {
	return c.roles.List()
}
