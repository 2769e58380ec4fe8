package httpapi

import (
	"net/http"
	"time"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/jwt"
	"github.com/MrEthical07/goAccess/metrics/export/prometheus"
	"github.com/MrEthical07/goAccess/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Permission codes guarding the management endpoints. They match the default
// seed catalog.
const (
	codePermissionManage = "permission"
	codeRoleList         = "role:list"
	codeRoleCreate       = "role:create"
)

// Deps are the collaborators of a [Server].
type Deps struct {
	Console     *goAccess.Console
	Tokens      *jwt.Manager
	Credentials CredentialVerifier
	Logger      *zap.Logger
	// Limiter throttles failed logins. Nil disables throttling.
	Limiter LoginLimiter
}

// Server holds the HTTP handlers of the console.
type Server struct {
	console  *goAccess.Console
	tokens   *jwt.Manager
	creds    CredentialVerifier
	limiter  LoginLimiter
	logger   *zap.Logger
	validate *validator.Validate
	metrics  *prometheus.PrometheusExporter
	now      func() time.Time
}

// NewServer returns a server over deps. A nil logger is replaced with a
// no-op logger.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		console:  deps.Console,
		tokens:   deps.Tokens,
		creds:    deps.Credentials,
		limiter:  deps.Limiter,
		logger:   logger.Named("http"),
		validate: newValidator(),
		metrics:  prometheus.NewPrometheusExporter(deps.Console),
		now:      time.Now,
	}
}

// Routes returns the router. API groups answer anonymous callers with 401
// rather than a login redirect.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestContext)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	api := middleware.WithUnauthorizedStatus(http.StatusUnauthorized)
	requireAny := func(codes ...string) func(http.Handler) http.Handler {
		return middleware.RequireAny(s.console, codes, api)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/session", s.session)
		r.Patch("/profile", s.updateProfile)
		r.Post("/refresh", s.refresh)
	})

	r.Get("/api/access", s.access)
	r.Get("/api/can", s.can)

	r.Route("/api/permissions", func(r chi.Router) {
		r.With(requireAny(codePermissionManage, codeRoleCreate)).Get("/code-tree", s.permissionCodeTree)
		r.Group(func(r chi.Router) {
			r.Use(requireAny(codePermissionManage))
			r.Get("/", s.listPermissions)
			r.Get("/tree", s.permissionTree)
			r.Post("/", s.createPermission)
			r.Get("/{id}", s.getPermission)
			r.Patch("/{id}", s.updatePermission)
			r.Delete("/{id}", s.removePermission)
		})
	})

	r.Route("/api/roles", func(r chi.Router) {
		r.With(requireAny(codeRoleList)).Get("/", s.listRoles)
		r.With(requireAny(codeRoleList)).Get("/{id}", s.getRole)
		r.Group(func(r chi.Router) {
			r.Use(requireAny(codeRoleCreate))
			r.Post("/", s.createRole)
			r.Patch("/{id}", s.updateRole)
			r.Delete("/{id}", s.deleteRole)
			r.Put("/{id}/permissions", s.assignPermissions)
			r.Put("/{id}/user-count", s.setUserCount)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", w.Header().Get(middleware.RequestIDHeader)),
		)
	})
}
