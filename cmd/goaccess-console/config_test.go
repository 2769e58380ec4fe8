package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "goaccess", cfg.RedisNamespace)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.isProduction())
}

func TestLoadConfigRejectsShortSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "short")
	_, err := loadConfig()
	require.Error(t, err)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger(&config{LogLevel: "loud"})
	require.Error(t, err)

	logger, err := newLogger(&config{LogLevel: "debug", AppEnv: "production"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

func TestDemoAccountsCoverSeedRoles(t *testing.T) {
	accounts := demoAccounts("pw")
	for _, name := range []string{"root", "admin", "doctor", "nurse"} {
		acct, ok := accounts[name]
		require.True(t, ok, name)
		assert.Equal(t, "pw", acct.Password)
		assert.NotEmpty(t, acct.User.Roles)
	}
}
