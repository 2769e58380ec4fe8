package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, cfg), mr
}

func TestLimiterBlocksAfterMaxAttempts(t *testing.T) {
	l, mr := newLimiter(t, Config{Namespace: "ga", MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, "dr.li", ""); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
		if err := l.Fail(ctx, "dr.li", ""); err != nil {
			t.Fatalf("fail %d: %v", i, err)
		}
	}
	if err := l.Check(ctx, "dr.li", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if n, _ := l.Attempts(ctx, "dr.li"); n != 3 {
		t.Fatalf("attempts = %d, want 3", n)
	}
	if ttl := mr.TTL("ga:login:user:dr.li"); ttl != time.Minute {
		t.Fatalf("ttl = %s, want 1m", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Check(ctx, "dr.li", ""); err != nil {
		t.Fatalf("window should have expired, got %v", err)
	}
}

func TestLimiterResetAndPerIP(t *testing.T) {
	l, mr := newLimiter(t, Config{Namespace: "ga", MaxAttempts: 1, PerIP: true})
	ctx := context.Background()

	if err := l.Fail(ctx, "a", "10.0.0.1"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := l.Check(ctx, "b", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("ip budget should block other users, got %v", err)
	}
	if err := l.Reset(ctx, "a", "10.0.0.1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mr.Exists("ga:login:ip:10.0.0.1") {
		t.Fatal("ip counter not cleared")
	}
	if err := l.Check(ctx, "a", "10.0.0.1"); err != nil {
		t.Fatalf("expected clear budget, got %v", err)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newLimiter(t, Config{Namespace: "ga"})
	mr.Close()
	if err := l.Check(context.Background(), "a", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
