package goAccess

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccess/guard"
	"github.com/MrEthical07/goAccess/internal/audit"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/session"
	"go.uber.org/zap"
)

// Console wires the permission catalog, role registry, session store, and
// route guard together. Every mutation goes through it so that audit events,
// metrics, and logs are emitted consistently. It is safe for concurrent use.
type Console struct {
	config  Config
	logger  *zap.Logger
	catalog *permission.Catalog
	roles   *permission.RoleRegistry
	store   *session.Store
	guard   *guard.Guard
	routes  *guard.Routes
	audit   *audit.Dispatcher
	metrics *Metrics
	now     func() time.Time
}

// Close stops the audit dispatcher after flushing queued events.
func (c *Console) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// Catalog returns the underlying permission catalog for read access.
func (c *Console) Catalog() *permission.Catalog { return c.catalog }

// RoleRegistry returns the underlying role registry for read access.
func (c *Console) RoleRegistry() *permission.RoleRegistry { return c.roles }

// Routes returns the route table consulted by CheckPath.
func (c *Console) Routes() *guard.Routes { return c.routes }

// Config returns a copy of the active configuration.
func (c *Console) Config() Config { return cloneConfig(c.config) }

// Logger returns the console logger.
func (c *Console) Logger() *zap.Logger { return c.logger }

// AuditDropped reports audit events dropped because the buffer was full.
func (c *Console) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns a copy of the console counters.
func (c *Console) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Console) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// emit records an audit event. actor is the acting user id; err, when set,
// marks the event failed and is classified into a stable code.
func (c *Console) emit(ctx context.Context, eventType, actor, target string, err error, meta map[string]string) {
	if c.audit == nil {
		return
	}
	if ip := ClientIPFromContext(ctx); ip != "" {
		meta = withMeta(meta, "ip", ip)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		meta = withMeta(meta, "request_id", id)
	}
	ev := audit.Event{
		Timestamp: c.now(),
		EventType: eventType,
		Actor:     actor,
		Target:    target,
		Success:   err == nil,
		Metadata:  meta,
	}
	if err != nil {
		ev.Error = errorCode(err)
	}
	c.audit.Emit(ctx, ev)
}

func withMeta(meta map[string]string, k, v string) map[string]string {
	if meta == nil {
		meta = make(map[string]string, 2)
	}
	meta[k] = v
	return meta
}

// actor returns the id of the current user, or "" when anonymous.
func (c *Console) actor() string {
	if u, ok := c.store.Snapshot().User(); ok {
		return u.ID
	}
	return ""
}

// mutationFailed logs and counts a rejected catalog or registry mutation.
func (c *Console) mutationFailed(ctx context.Context, op string, err error) {
	c.metricInc(MetricMutationRejected)
	c.logger.Debug("mutation rejected",
		zap.String("op", op),
		zap.String("request_id", RequestIDFromContext(ctx)),
		zap.Error(err),
	)
}

// persistenceFailed logs a session persistence error. The in-memory change
// has already been committed.
func (c *Console) persistenceFailed(op string, err error) {
	c.metricInc(MetricPersistenceFailure)
	c.logger.Warn("session persistence failed", zap.String("op", op), zap.Error(err))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, permission.ErrNotFound):
		return "not_found"
	case errors.Is(err, permission.ErrDuplicateCode):
		return "duplicate_code"
	case errors.Is(err, permission.ErrParentNotFound):
		return "parent_not_found"
	case errors.Is(err, permission.ErrCycleDetected):
		return "cycle_detected"
	case errors.Is(err, permission.ErrInvalidPermission):
		return "invalid_permission"
	case errors.Is(err, permission.ErrReservedCode):
		return "reserved_code"
	case errors.Is(err, permission.ErrImmutableRole):
		return "immutable_role"
	case errors.Is(err, permission.ErrUnknownPermission):
		return "unknown_permission"
	case errors.Is(err, permission.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, session.ErrPersistenceUnavailable):
		return "persistence_unavailable"
	default:
		return "internal"
	}
}

// Inventory is a point-in-time count of console state, exported as gauges.
type Inventory struct {
	Permissions   int
	Roles         int
	Authenticated bool
}

// Inventory returns the current sizes of the catalog and registry.
func (c *Console) Inventory() Inventory {
	return Inventory{
		Permissions:   c.catalog.Len(),
		Roles:         c.roles.Len(),
		Authenticated: c.store.IsAuthenticated(),
	}
}
