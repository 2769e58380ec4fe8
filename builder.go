package goAccess

import (
	"time"

	"github.com/MrEthical07/goAccess/guard"
	"github.com/MrEthical07/goAccess/internal/audit"
	"github.com/MrEthical07/goAccess/jwt"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/seed"
	"github.com/MrEthical07/goAccess/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a [Console]. It is single-use.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	persister session.Persister
	logger    *zap.Logger
	auditSink AuditSink
	seed      *seed.Seed
	routes    []guard.Route
	tokens    guard.TokenChecker
	opts      []permission.Option

	built bool
}

// New returns a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis persists the session in Redis under Config.Session.Namespace.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPersister sets a custom persister. It takes precedence over WithRedis.
func (b *Builder) WithPersister(p session.Persister) *Builder {
	b.persister = p
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink. Audit must also be enabled in Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithSeed applies s to the empty catalog and registry during Build.
func (b *Builder) WithSeed(s *seed.Seed) *Builder {
	b.seed = s
	return b
}

// WithRoutes adds protected routes to the console route table. Public paths
// from Config.Guard are added automatically.
func (b *Builder) WithRoutes(routes ...guard.Route) *Builder {
	b.routes = append(b.routes, routes...)
	return b
}

// WithTokenChecker replaces the default JWT expiry inspector.
func (b *Builder) WithTokenChecker(tc guard.TokenChecker) *Builder {
	b.tokens = tc
	return b
}

// WithPermissionOptions passes options (clock, id generator) to the catalog
// and registry.
func (b *Builder) WithPermissionOptions(opts ...permission.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the console. The session
// starts anonymous; call [Console.Restore] to load a persisted session.
func (b *Builder) Build() (*Console, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- CATALOG / ROLES --------
	catalog := permission.NewCatalog(b.opts...)
	roles := permission.NewRoleRegistry(catalog, b.opts...)
	if b.seed != nil {
		if err := b.seed.Apply(catalog, roles); err != nil {
			return nil, err
		}
	}

	// -------- SESSION STORE --------
	persister := b.persister
	if persister == nil && b.redis != nil {
		persister = session.NewRedisPersister(b.redis, cfg.Session.Namespace, cfg.Session.RecordTTL)
	}
	store := session.NewStore(persister, cfg.Session.PersistTimeout)

	// -------- GUARD --------
	tokens := b.tokens
	if tokens == nil {
		tokens = jwt.NewInspector(cfg.Guard.TokenLeeway)
	}
	routeList := make([]guard.Route, 0, len(cfg.Guard.PublicPaths)+len(b.routes)+1)
	routeList = append(routeList, guard.Route{Path: cfg.Guard.LoginPath, Public: true})
	for _, p := range cfg.Guard.PublicPaths {
		routeList = append(routeList, guard.Route{Path: p, Public: true})
	}
	routeList = append(routeList, b.routes...)

	c := &Console{
		config:  cfg,
		logger:  logger,
		catalog: catalog,
		roles:   roles,
		store:   store,
		guard:   guard.New(roles, catalog, tokens),
		routes:  guard.NewRoutes(routeList...),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     time.Now,
	}
	store.OnCommit(c.onSessionCommit)

	b.built = true
	logger.Debug("console built",
		zap.Int("permissions", catalog.Len()),
		zap.Int("roles", roles.Len()),
		zap.Bool("persistent", persister != nil),
	)
	return c, nil
}
