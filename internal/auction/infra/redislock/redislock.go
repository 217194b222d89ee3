// Package redislock keeps several engine instances from running the same sweep
// at the same time. The lock is never released, it expires after its TTL,
// which is kept slightly shorter than the sweep interval.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sweep_lock:"

type Locker struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// New creates a Locker, owner identifies this instance in the lock value
func New(client *redis.Client, owner string, ttl time.Duration) *Locker {
	return &Locker{client: client, owner: owner, ttl: ttl}
}

// TryAcquire reports whether this instance won the lock for name
func (l *Locker) TryAcquire(ctx context.Context, name string) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+name, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redislock: acquire %s: %w", name, err)
	}
	return ok, nil
}
