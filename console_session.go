package goAccess

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccess/session"
	"go.uber.org/zap"
)

// Login replaces the session with user and token. The user record comes from
// the credential-verification service; the console does not verify it. A
// returned [ErrPersistenceUnavailable] means the session is active in memory
// but was not persisted.
func (c *Console) Login(ctx context.Context, user session.User, token string) error {
	err := c.store.Login(ctx, user, token)
	c.metricInc(MetricLogin)
	if err != nil {
		c.persistenceFailed("login", err)
	}
	c.emit(ctx, auditEventLogin, user.ID, user.Username, err, nil)
	return err
}

// Logout ends the session and erases the persisted record.
func (c *Console) Logout(ctx context.Context) error {
	actor := c.actor()
	err := c.store.Logout(ctx)
	c.metricInc(MetricLogout)
	if err != nil {
		c.persistenceFailed("logout", err)
	}
	c.emit(ctx, auditEventLogout, actor, actor, err, nil)
	return err
}

// UpdateProfile merges p into the current user. It is a no-op when anonymous.
func (c *Console) UpdateProfile(ctx context.Context, p session.Profile) error {
	if !c.store.IsAuthenticated() {
		return nil
	}
	err := c.store.UpdateProfile(ctx, p)
	c.metricInc(MetricProfileUpdated)
	if err != nil {
		c.persistenceFailed("update_profile", err)
	}
	actor := c.actor()
	c.emit(ctx, auditEventProfileUpdated, actor, actor, err, nil)
	return err
}

// RefreshToken replaces the session token. It is a no-op when anonymous.
func (c *Console) RefreshToken(ctx context.Context, token string) error {
	if !c.store.IsAuthenticated() {
		return nil
	}
	err := c.store.SetToken(ctx, token)
	c.metricInc(MetricTokenRefreshed)
	if err != nil {
		c.persistenceFailed("refresh_token", err)
	}
	actor := c.actor()
	c.emit(ctx, auditEventTokenRefreshed, actor, actor, err, nil)
	return err
}

// Restore loads the persisted session. A corrupt record is logged and the
// console starts anonymous.
func (c *Console) Restore(ctx context.Context) error {
	err := c.store.Restore(ctx)
	if err != nil {
		c.persistenceFailed("restore", err)
		if errors.Is(err, session.ErrRecordCorrupt) {
			_ = c.store.Logout(ctx)
		}
		return err
	}
	st := c.store.Snapshot()
	if st.IsAuthenticated() {
		c.metricInc(MetricSessionRestored)
		c.logger.Info("session restored", zap.String("user", st.DisplayName()))
	}
	return nil
}

// SetLoading sets the transient loading flag.
func (c *Console) SetLoading(v bool) { c.store.SetLoading(v) }

// Loading reports the transient loading flag.
func (c *Console) Loading() bool { return c.store.Loading() }

// Session returns the current session state.
func (c *Console) Session() session.State { return c.store.Snapshot() }

// DisplayName returns nickname, real name, or username of the current user.
func (c *Console) DisplayName() string { return c.store.DisplayName() }

// HasRole reports whether the current user holds the role code.
func (c *Console) HasRole(code string) bool { return c.store.HasRole(code) }

// HasPermission reports whether the current user's own permission list holds
// code. Use [Console.Can] to include role grants.
func (c *Console) HasPermission(code string) bool { return c.store.HasPermission(code) }

func (c *Console) onSessionCommit(_ context.Context, change session.Change, st session.State) {
	c.logger.Debug("session committed",
		zap.Stringer("change", change),
		zap.Bool("authenticated", st.IsAuthenticated()),
	)
}
