package goAccess

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "namespace empty allowed",
			mutate:    func(c *Config) { c.Session.Namespace = "" },
			wantValid: true,
		},
		{
			name:      "namespace with space",
			mutate:    func(c *Config) { c.Session.Namespace = "my console" },
			wantValid: false,
		},
		{
			name:      "record ttl negative",
			mutate:    func(c *Config) { c.Session.RecordTTL = -time.Second },
			wantValid: false,
		},
		{
			name:      "record ttl sub-second",
			mutate:    func(c *Config) { c.Session.RecordTTL = 10 * time.Millisecond },
			wantValid: false,
		},
		{
			name:      "record ttl one day",
			mutate:    func(c *Config) { c.Session.RecordTTL = 24 * time.Hour },
			wantValid: true,
		},
		{
			name:      "persist timeout negative",
			mutate:    func(c *Config) { c.Session.PersistTimeout = -1 },
			wantValid: false,
		},
		{
			name:      "relative login path",
			mutate:    func(c *Config) { c.Guard.LoginPath = "login" },
			wantValid: false,
		},
		{
			name:      "relative public path",
			mutate:    func(c *Config) { c.Guard.PublicPaths = []string{"/login", "health"} },
			wantValid: false,
		},
		{
			name:      "leeway too large",
			mutate:    func(c *Config) { c.Guard.TokenLeeway = time.Hour },
			wantValid: false,
		},
		{
			name:      "audit enabled zero buffer",
			mutate:    func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
			wantValid: false,
		},
		{
			name:      "latency without metrics",
			mutate:    func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestWithConfigCopiesSlices(t *testing.T) {
	cfg := DefaultConfig()
	b := New().WithConfig(cfg)
	cfg.Guard.PublicPaths[0] = "mutated"
	if b.config.Guard.PublicPaths[0] != "/login" {
		t.Fatal("builder must not alias caller config slices")
	}
}
