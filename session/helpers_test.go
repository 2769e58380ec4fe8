package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisPersisterTest(t *testing.T) (*RedisPersister, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedisPersister(rdb, "console", time.Hour), mr
}

func testUser() User {
	login := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return User{
		ID:            "u-1",
		Username:      "alice",
		RealName:      "Alice Chen",
		Email:         "alice@example.com",
		Status:        StatusActive,
		Roles:         []string{"doctor"},
		Permissions:   []string{"dashboard:view", "report:view"},
		LatestLoginAt: &login,
	}
}

type failingPersister struct {
	err error
}

func (f failingPersister) Save(context.Context, []byte) error { return f.err }
func (f failingPersister) Load(context.Context) ([]byte, error) { return nil, f.err }
func (f failingPersister) Clear(context.Context) error { return f.err }

var errBackendDown = errors.New("backend down")

func ptr[T any](v T) *T { return &v }

// gatedPersister wraps a MemoryPersister and parks Load until release is closed.
type gatedPersister struct {
	*MemoryPersister
	loading chan struct{}
	release chan struct{}
}

func newGatedPersister() *gatedPersister {
	return &gatedPersister{
		MemoryPersister: NewMemoryPersister(),
		loading:         make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (g *gatedPersister) Load(ctx context.Context) ([]byte, error) {
	close(g.loading)
	<-g.release
	return g.MemoryPersister.Load(ctx)
}
