package goAccess

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete console configuration. Start from [DefaultConfig]
// and override what you need; [Builder.Build] validates it.
type Config struct {
	Session SessionConfig
	Guard   GuardConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls how the session record is persisted.
type SessionConfig struct {
	// Namespace prefixes the Redis key: "<Namespace>:auth-storage".
	Namespace string
	// RecordTTL expires the persisted record; zero keeps it until logout.
	RecordTTL time.Duration
	// PersistTimeout bounds every persistence call.
	PersistTimeout time.Duration
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig controls route protection.
type GuardConfig struct {
	LoginPath   string
	PublicPaths []string
	// TokenLeeway tolerates clock skew when reading token expiry.
	TokenLeeway time.Duration
	// LogoutOnExpiredToken drops the session when a check finds its token
	// expired.
	LogoutOnExpiredToken bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration suitable for a single console
// instance.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Namespace:      "goaccess",
			RecordTTL:      0,
			PersistTimeout: 2 * time.Second,
		},
		Guard: GuardConfig{
			LoginPath:            "/login",
			PublicPaths:          []string{"/login"},
			TokenLeeway:          30 * time.Second,
			LogoutOnExpiredToken: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Guard.PublicPaths = append([]string(nil), cfg.Guard.PublicPaths...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting, wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.ContainsAny(c.Session.Namespace, " \t\n") {
		return errors.New("Session Namespace must not contain whitespace")
	}
	if c.Session.RecordTTL < 0 {
		return errors.New("Session RecordTTL must be >= 0")
	}
	if c.Session.RecordTTL > 0 && c.Session.RecordTTL < time.Second {
		return errors.New("Session RecordTTL must be at least 1s when set")
	}
	if c.Session.PersistTimeout < 0 {
		return errors.New("Session PersistTimeout must be >= 0")
	}

	if !strings.HasPrefix(c.Guard.LoginPath, "/") {
		return errors.New("Guard LoginPath must be an absolute path")
	}
	for _, p := range c.Guard.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("Guard PublicPaths entry %q must be an absolute path", p)
		}
	}
	if c.Guard.TokenLeeway < 0 || c.Guard.TokenLeeway > 5*time.Minute {
		return errors.New("Guard TokenLeeway must be within [0, 5m]")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
