package schedule

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards a tick against running on two replicas at once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// NopLocker always grants the lock. Used for single-instance deployments.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (NopLocker) Release(context.Context, string) error                        { return nil }

// RedisLocker takes the lock with SETNX and an expiry, so a crashed holder
// cannot keep it forever.
type RedisLocker struct {
	rdb redis.Cmdable
}

func NewRedisLocker(rdb redis.Cmdable) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}
