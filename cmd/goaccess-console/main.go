// Command goaccess-console serves the admin console access-control core over
// HTTP with a fixed set of demo accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/internal/httpapi"
	"github.com/MrEthical07/goAccess/internal/rate"
	"github.com/MrEthical07/goAccess/jwt"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/seed"
	"github.com/MrEthical07/goAccess/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, cleanup, err := openRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sd, err := loadSeed(cfg)
	if err != nil {
		return err
	}

	consoleCfg := goAccess.DefaultConfig()
	consoleCfg.Session.Namespace = cfg.RedisNamespace
	consoleCfg.Session.RecordTTL = cfg.RecordTTL
	consoleCfg.Guard.TokenLeeway = cfg.TokenLeeway
	consoleCfg.Metrics.Enabled = true
	consoleCfg.Metrics.EnableLatencyHistograms = true
	consoleCfg.Audit.Enabled = true

	console, err := goAccess.New().
		WithConfig(consoleCfg).
		WithLogger(logger).
		WithRedis(client).
		WithSeed(sd).
		WithRoutes(sd.Routes()...).
		WithAuditSink(goAccess.NewZapSink(logger)).
		Build()
	if err != nil {
		return fmt.Errorf("build console: %w", err)
	}
	defer console.Close()

	if err := console.Restore(ctx); err != nil {
		logger.Warn("session restore failed, starting anonymous", zap.Error(err))
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.TokenTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.TokenSecret),
		Issuer:        "goaccess-console",
		Leeway:        cfg.TokenLeeway,
	})
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.NewServer(httpapi.Deps{
			Console:     console,
			Tokens:      tokens,
			Credentials: demoAccounts(cfg.DemoPassword),
			Logger:      logger,
			Limiter:     rate.New(client, rate.Config{
				Namespace:   cfg.RedisNamespace,
				MaxAttempts: cfg.LoginMaxAttempts,
				Window:      cfg.LoginWindow,
				PerIP:       true,
			}),
		}).Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRedis(ctx context.Context, cfg *config, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.RedisAddr
	cleanup := func() {}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		logger.Info("using embedded redis", zap.String("addr", addr))
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		cleanup()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, func() {
		_ = client.Close()
		cleanup()
	}, nil
}

func loadSeed(cfg *config) (*seed.Seed, error) {
	if cfg.SeedFile == "" {
		return seed.Default()
	}
	s, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed %s: %w", cfg.SeedFile, err)
	}
	return s, nil
}

func demoAccounts(password string) httpapi.StaticCredentials {
	account := func(id, username, realName string, roles ...string) httpapi.Account {
		return httpapi.Account{Password: password, User: session.User{
			ID:       id,
			Username: username,
			RealName: realName,
			Status:   session.StatusActive,
			Roles:    roles,
		}}
	}
	return httpapi.StaticCredentials{
		"root":   account("1", "root", "Super Admin", permission.SuperAdmin),
		"admin":  account("2", "admin", "Administrator", "admin"),
		"doctor": account("3", "doctor", "Dr. Chen", "doctor"),
		"nurse":  account("4", "nurse", "Nurse Wang", "nurse"),
	}
}
