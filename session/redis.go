package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPersister stores the record as a single Redis string under
// "<namespace>:auth-storage".
type RedisPersister struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisPersister creates a persister on the given client. A zero ttl keeps
// the record until it is cleared.
func NewRedisPersister(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisPersister {
	key := RecordName
	if namespace != "" {
		key = namespace + ":" + RecordName
	}
	return &RedisPersister{redis: client, key: key, ttl: ttl}
}

// Key returns the Redis key holding the record.
func (r *RedisPersister) Key() string {
	return r.key
}

func (r *RedisPersister) Save(ctx context.Context, data []byte) error {
	return r.redis.Set(ctx, r.key, data, r.ttl).Err()
}

func (r *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisPersister) Clear(ctx context.Context) error {
	return r.redis.Del(ctx, r.key).Err()
}
