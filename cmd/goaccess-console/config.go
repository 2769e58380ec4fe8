package main

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// config holds the runtime settings of the demo console.
type config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	Addr            string        `envconfig:"APP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Empty RedisAddr runs an embedded in-process Redis.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisNamespace string        `envconfig:"REDIS_NAMESPACE" default:"goaccess"`
	RecordTTL      time.Duration `envconfig:"SESSION_RECORD_TTL" default:"0s"`

	SeedFile string `envconfig:"SEED_FILE"`

	TokenSecret string        `envconfig:"TOKEN_SECRET" required:"true"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"2h"`
	TokenLeeway time.Duration `envconfig:"TOKEN_LEEWAY" default:"30s"`

	LoginMaxAttempts int           `envconfig:"LOGIN_MAX_ATTEMPTS" default:"5"`
	LoginWindow      time.Duration `envconfig:"LOGIN_WINDOW" default:"15m"`

	DemoPassword string `envconfig:"DEMO_PASSWORD" default:"changeme"`
}

func loadConfig() (*config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.TokenSecret) < 32 {
		return nil, errors.New("TOKEN_SECRET must be at least 32 bytes")
	}
	return &cfg, nil
}

func (c *config) isProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func newLogger(cfg *config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	if cfg.isProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
