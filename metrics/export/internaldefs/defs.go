package internaldefs

import (
	goAccess "github.com/MrEthical07/goAccess"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goAccess.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goAccess.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "goaccess_audit_dropped_total"

// Inventory gauges.
const (
	PermissionsGaugeName   = "goaccess_catalog_permissions"
	RolesGaugeName         = "goaccess_roles"
	AuthenticatedGaugeName = "goaccess_session_authenticated"
)

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: goAccess.MetricLogin, Name: "goaccess_login_total", Help: "Sessions established."},
	{ID: goAccess.MetricLogout, Name: "goaccess_logout_total", Help: "Explicit logouts."},
	{ID: goAccess.MetricTokenExpiredLogout, Name: "goaccess_token_expired_logout_total", Help: "Sessions ended because the token expired."},
	{ID: goAccess.MetricTokenRefreshed, Name: "goaccess_token_refreshed_total", Help: "Session token replacements."},
	{ID: goAccess.MetricProfileUpdated, Name: "goaccess_profile_updated_total", Help: "Profile updates of the logged-in user."},
	{ID: goAccess.MetricSessionRestored, Name: "goaccess_session_restored_total", Help: "Sessions restored from the persisted record."},
	{ID: goAccess.MetricPersistenceFailure, Name: "goaccess_persistence_failure_total", Help: "Session persistence reads or writes that failed."},
	{ID: goAccess.MetricGuardAllow, Name: "goaccess_guard_allow_total", Help: "Route checks that allowed access."},
	{ID: goAccess.MetricGuardRedirect, Name: "goaccess_guard_redirect_total", Help: "Route checks that redirected to login."},
	{ID: goAccess.MetricGuardDeny, Name: "goaccess_guard_deny_total", Help: "Route checks that denied access."},
	{ID: goAccess.MetricPermissionCreated, Name: "goaccess_permission_created_total", Help: "Permissions inserted into the catalog."},
	{ID: goAccess.MetricPermissionUpdated, Name: "goaccess_permission_updated_total", Help: "Permission updates."},
	{ID: goAccess.MetricPermissionRemoved, Name: "goaccess_permission_removed_total", Help: "Permission subtree removals."},
	{ID: goAccess.MetricRoleCreated, Name: "goaccess_role_created_total", Help: "Roles created."},
	{ID: goAccess.MetricRoleUpdated, Name: "goaccess_role_updated_total", Help: "Role updates."},
	{ID: goAccess.MetricRoleDeleted, Name: "goaccess_role_deleted_total", Help: "Roles deleted."},
	{ID: goAccess.MetricRolePermissionsAssigned, Name: "goaccess_role_permissions_assigned_total", Help: "Role permission set replacements."},
	{ID: goAccess.MetricMutationRejected, Name: "goaccess_mutation_rejected_total", Help: "Catalog or role mutations rejected by validation."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goAccess.MetricGuardCheckLatency, Name: "goaccess_guard_check_latency_seconds", Help: "Route check latency histogram."},
}

// HistogramBounds are the upper bounds of the guard latency buckets in
// seconds.
var HistogramBounds = []string{
	"0.00001",
	"0.00005",
	"0.0001",
	"0.0005",
	"0.001",
	"0.005",
	"0.01",
	"+Inf",
}

// HistogramBoundSuffix names the per-bucket OTel gauges.
var HistogramBoundSuffix = []string{
	"0_00001",
	"0_00005",
	"0_0001",
	"0_0005",
	"0_001",
	"0_005",
	"0_01",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
