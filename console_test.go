package goAccess

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAccess/guard"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/seed"
	"github.com/MrEthical07/goAccess/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixedExpiry map[string]bool

func (f fixedExpiry) Expired(token string) bool { return f[token] }

func newTestConsole(t *testing.T, mutate func(*Builder)) *Console {
	t.Helper()
	s, err := seed.Default()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	b := New().WithConfig(cfg).WithSeed(s).WithAuditSink(NoOpSink{})
	if mutate != nil {
		mutate(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func doctorUser() session.User {
	return session.User{ID: "u-7", Username: "dr.li", RealName: "Li Wei", Status: session.StatusActive, Roles: []string{"doctor"}}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer c.Close()
	if _, err := b.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Guard.LoginPath = "login"
	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuilderWithoutSeedHasOnlySuperAdmin(t *testing.T) {
	c, err := New().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()
	roles := c.Roles()
	if len(roles) != 1 || roles[0].Code != permission.SuperAdmin {
		t.Fatalf("unexpected roles: %+v", roles)
	}
	if len(c.Permissions()) != 0 {
		t.Fatal("catalog must start empty")
	}
}

func TestRemovePermissionPrunesRoles(t *testing.T) {
	c := newTestConsole(t, nil)
	ctx := context.Background()

	report, err := c.ResolvePermission("report")
	if err != nil {
		t.Fatalf("resolve report: %v", err)
	}
	removed, err := c.RemovePermission(ctx, report.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(removed) != 3 || removed[0].Code != "report" {
		t.Fatalf("unexpected removed set: %+v", removed)
	}
	doctor, _ := c.RoleRegistry().GetByCode("doctor")
	for _, code := range doctor.Permissions {
		if code == "report" || code == "template:list" || code == "template:create" {
			t.Fatalf("doctor still holds removed code %q", code)
		}
	}
	if got := c.MetricsSnapshot().Counters[MetricPermissionRemoved]; got != 1 {
		t.Fatalf("removed counter = %d", got)
	}
}

func TestRenamePermissionCarriesIntoRoles(t *testing.T) {
	c := newTestConsole(t, nil)
	ctx := context.Background()

	report, _ := c.ResolvePermission("report")
	view, err := c.CreatePermission(ctx, report.ID, permission.Fields{Code: "report:view", Name: "View", Kind: permission.KindButton, Enabled: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doctor, _ := c.RoleRegistry().GetByCode("doctor")
	if err := c.AssignPermissions(ctx, doctor.ID, append(doctor.Permissions, "report:view")); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := c.UpdatePermission(ctx, view.ID, permission.Patch{Code: strPtr("report:read")}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	doctor, _ = c.RoleRegistry().GetByCode("doctor")
	var hasOld, hasNew bool
	for _, code := range doctor.Permissions {
		hasOld = hasOld || code == "report:view"
		hasNew = hasNew || code == "report:read"
	}
	if hasOld || !hasNew {
		t.Fatalf("doctor permissions after rename: %v", doctor.Permissions)
	}
	if err := c.AssignPermissions(ctx, doctor.ID, doctor.Permissions); err != nil {
		t.Fatalf("resubmitting the role's own set: %v", err)
	}

	if err := c.Login(ctx, doctorUser(), "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !c.Can("report:read") || c.Can("report:view") {
		t.Fatalf("Can(report:read)=%v Can(report:view)=%v", c.Can("report:read"), c.Can("report:view"))
	}
}

func TestRoleAssignmentScenario(t *testing.T) {
	c := newTestConsole(t, nil)
	ctx := context.Background()

	report, _ := c.ResolvePermission("report")
	for _, code := range []string{"report:view", "report:delete"} {
		if _, err := c.CreatePermission(ctx, report.ID, permission.Fields{Code: code, Name: code, Kind: permission.KindButton, Enabled: true}); err != nil {
			t.Fatalf("create %s: %v", code, err)
		}
	}
	doctor, _ := c.RoleRegistry().GetByCode("doctor")
	if err := c.AssignPermissions(ctx, doctor.ID, []string{"report:view"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := c.Login(ctx, doctorUser(), "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !c.Can("report:view") {
		t.Fatal("doctor must hold report:view through the role")
	}
	if c.Can("report:delete") {
		t.Fatal("doctor must not hold report:delete")
	}
	if c.HasPermission("report:view") {
		t.Fatal("HasPermission only reads the user's own list")
	}

	err := c.AssignPermissions(ctx, doctor.ID, []string{"report:view", "nope:nope"})
	if !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
	if err := c.DeleteRole(ctx, permission.SuperAdmin); !errors.Is(err, ErrImmutableRole) {
		t.Fatalf("expected ErrImmutableRole, got %v", err)
	}
	if got := c.MetricsSnapshot().Counters[MetricMutationRejected]; got != 2 {
		t.Fatalf("rejected counter = %d, want 2", got)
	}
}

func TestCheckPathDecisions(t *testing.T) {
	c := newTestConsole(t, func(b *Builder) {
		b.WithRoutes(
			guard.Route{Path: "/dashboard", AnyOf: []string{"dashboard:view"}},
			guard.Route{Path: "/users/*", AnyOf: []string{"user:list"}},
		)
	})
	ctx := context.Background()

	if _, res := c.CheckPath(ctx, "/login"); !res.Allowed() {
		t.Fatalf("login must be public: %+v", res)
	}
	if _, res := c.CheckPath(ctx, "/dashboard"); res.Decision != guard.RedirectToLogin {
		t.Fatalf("anonymous must be redirected: %+v", res)
	}

	_ = c.Login(ctx, doctorUser(), "tok")
	if _, res := c.CheckPath(ctx, "/dashboard"); !res.Allowed() {
		t.Fatalf("doctor must reach dashboard: %+v", res)
	}
	route, res := c.CheckPath(ctx, "/users/list")
	if res.Decision != guard.Deny || route.Path != "/users/*" {
		t.Fatalf("doctor must be denied users: %+v %+v", route, res)
	}

	snap := c.MetricsSnapshot()
	if snap.Counters[MetricGuardAllow] != 2 || snap.Counters[MetricGuardRedirect] != 1 || snap.Counters[MetricGuardDeny] != 1 {
		t.Fatalf("unexpected guard counters: %v", snap.Counters)
	}
}

func TestExpiredTokenLogsOut(t *testing.T) {
	c := newTestConsole(t, func(b *Builder) {
		b.WithTokenChecker(fixedExpiry{"stale": true})
	})
	ctx := context.Background()
	_ = c.Login(ctx, doctorUser(), "stale")

	res := c.Check(ctx, guard.Route{Path: "/dashboard"})
	if res.Decision != guard.RedirectToLogin || res.Reason != guard.ReasonTokenExpired {
		t.Fatalf("expected token-expired redirect: %+v", res)
	}
	if c.Session().IsAuthenticated() {
		t.Fatal("expired session must be logged out")
	}
	if got := c.MetricsSnapshot().Counters[MetricTokenExpiredLogout]; got != 1 {
		t.Fatalf("expired logout counter = %d", got)
	}
}

func TestExpiredTokenKeptWhenLogoutDisabled(t *testing.T) {
	c := newTestConsole(t, func(b *Builder) {
		b.config.Guard.LogoutOnExpiredToken = false
		b.WithTokenChecker(fixedExpiry{"stale": true})
	})
	ctx := context.Background()
	_ = c.Login(ctx, doctorUser(), "stale")
	_ = c.Check(ctx, guard.Route{Path: "/dashboard"})
	if !c.Session().IsAuthenticated() {
		t.Fatal("session must be kept when LogoutOnExpiredToken is off")
	}
}

func TestLoginRedirect(t *testing.T) {
	c := newTestConsole(t, nil)
	if got := c.LoginRedirect("/users/list?page=2"); got != "/login?redirect=%2Fusers%2Flist%3Fpage%3D2" {
		t.Fatalf("redirect = %q", got)
	}
	if got := c.LoginRedirect("/login"); got != "/login" {
		t.Fatalf("redirect = %q", got)
	}
}

func TestSessionPersistsThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	first := newTestConsole(t, func(b *Builder) { b.WithRedis(rdb) })
	if err := first.Login(ctx, doctorUser(), "tok-1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := first.UpdateProfile(ctx, session.Profile{Nickname: strPtr("Dr. Li")}); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !mr.Exists("goaccess:auth-storage") {
		t.Fatal("expected record under goaccess:auth-storage")
	}

	second := newTestConsole(t, func(b *Builder) { b.WithRedis(rdb) })
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if second.DisplayName() != "Dr. Li" || !second.HasRole("doctor") {
		t.Fatalf("restored session mismatch: %q", second.DisplayName())
	}

	if err := second.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if mr.Exists("goaccess:auth-storage") {
		t.Fatal("logout must erase the record")
	}
}

func TestPersistenceFailureIsReportedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	c := newTestConsole(t, func(b *Builder) {
		b.config.Session.PersistTimeout = 200 * time.Millisecond
		b.WithRedis(rdb).WithLogger(zap.New(core))
	})
	err = c.Login(context.Background(), doctorUser(), "tok")
	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
	if !c.Session().IsAuthenticated() {
		t.Fatal("memory session must stand")
	}
	if logs.FilterMessage("session persistence failed").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
	if got := c.MetricsSnapshot().Counters[MetricPersistenceFailure]; got != 1 {
		t.Fatalf("persistence failure counter = %d", got)
	}
}

func TestAuditEventsCarryActorAndContext(t *testing.T) {
	sink := NewChannelSink(16)
	c := newTestConsole(t, func(b *Builder) { b.WithAuditSink(sink) })
	ctx := WithRequestID(WithClientIP(context.Background(), "10.0.0.9"), "req-1")

	_ = c.Login(ctx, doctorUser(), "tok")
	_, _ = c.CreateRole(ctx, permission.RoleFields{Code: "pharmacist", Name: "Pharmacist"})
	_, _ = c.CreateRole(ctx, permission.RoleFields{Code: "pharmacist", Name: "Again"})
	c.Close()

	var events []AuditEvent
	for len(events) < 3 {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("only %d events delivered", len(events))
		}
	}
	if events[0].EventType != auditEventLogin || events[0].Actor != "u-7" {
		t.Fatalf("unexpected login event: %+v", events[0])
	}
	if events[1].EventType != auditEventRoleCreated || !events[1].Success || events[1].Actor != "u-7" {
		t.Fatalf("unexpected role event: %+v", events[1])
	}
	if events[2].Success || events[2].Error != "duplicate_code" {
		t.Fatalf("unexpected failure event: %+v", events[2])
	}
	if events[1].Metadata["ip"] != "10.0.0.9" || events[1].Metadata["request_id"] != "req-1" {
		t.Fatalf("context metadata missing: %+v", events[1].Metadata)
	}
}

func TestUpdateProfileWhileAnonymousIsSilent(t *testing.T) {
	c := newTestConsole(t, nil)
	if err := c.UpdateProfile(context.Background(), session.Profile{Nickname: strPtr("x")}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if c.Session().IsAuthenticated() {
		t.Fatal("profile update must not create a session")
	}
	if got := c.MetricsSnapshot().Counters[MetricProfileUpdated]; got != 0 {
		t.Fatalf("no-op must not count, got %d", got)
	}
}

func strPtr(s string) *string { return &s }
