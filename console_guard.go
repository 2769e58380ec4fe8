package goAccess

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goAccess/guard"
	"go.uber.org/zap"
)

// Check decides whether the current session may enter route. When the
// session token has expired and LogoutOnExpiredToken is set, the session is
// ended before returning.
func (c *Console) Check(ctx context.Context, route guard.Route) guard.Result {
	var start time.Time
	if c.metrics.LatencyEnabled() {
		start = time.Now()
	}
	st := c.store.Snapshot()
	res := c.guard.Check(st, route)
	if c.metrics.LatencyEnabled() {
		c.metrics.Observe(MetricGuardCheckLatency, time.Since(start))
	}

	switch res.Decision {
	case guard.Allow:
		c.metricInc(MetricGuardAllow)
	case guard.RedirectToLogin:
		c.metricInc(MetricGuardRedirect)
	case guard.Deny:
		c.metricInc(MetricGuardDeny)
		if u, ok := st.User(); ok {
			c.emit(ctx, auditEventAccessDenied, u.ID, route.Path, nil, map[string]string{
				"missing": strings.Join(res.Missing, ","),
			})
		}
	}

	if res.Reason == guard.ReasonTokenExpired && c.config.Guard.LogoutOnExpiredToken {
		c.expireSession(ctx, st.Token())
	}
	return res
}

// CheckPath resolves path in the console route table and checks it.
func (c *Console) CheckPath(ctx context.Context, path string) (guard.Route, guard.Result) {
	route, _ := c.routes.Match(path)
	return route, c.Check(ctx, route)
}

// Can reports whether the current user holds code, through their own
// permissions or any of their roles.
func (c *Console) Can(code string) bool {
	return c.guard.Can(c.store.Snapshot(), code)
}

// LoginRedirect returns the login path with a redirect back to target.
func (c *Console) LoginRedirect(target string) string {
	login := c.config.Guard.LoginPath
	if target == "" || target == login {
		return login
	}
	return login + "?redirect=" + url.QueryEscape(target)
}

func (c *Console) expireSession(ctx context.Context, token string) {
	actor := c.actor()
	done, err := c.store.LogoutIfToken(ctx, token)
	if !done {
		return
	}
	c.metricInc(MetricTokenExpiredLogout)
	c.logger.Info("session token expired, logged out", zap.String("user_id", actor))
	if err != nil {
		c.persistenceFailed("expire_session", err)
	}
	c.emit(ctx, auditEventTokenExpired, actor, actor, err, nil)
}
