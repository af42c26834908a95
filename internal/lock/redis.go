package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store with a SETNX-plus-TTL lock keyed by resource path,
// wrapped in a short poll loop so TryAcquire can honor a caller-supplied
// timeout instead of failing immediately on contention.
type Redis struct {
	client *redis.Client
	poll   time.Duration
}

// NewRedis connects to the Redis instance named by url (e.g.
// "redis://localhost:6379/0").
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("lock: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("lock: connect to redis: %w", err)
	}
	return &Redis{client: client, poll: 50 * time.Millisecond}, nil
}

func lockKey(path string) string { return "rosid:lock:" + path }

// TryAcquire polls SETNX until it succeeds, the context is cancelled, or
// timeout elapses, returning (false, nil) on the latter: a plain timeout,
// not an error.
func (r *Redis) TryAcquire(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	key := lockKey(path)
	ttl := timeout + 5*time.Second // lock outlives the acquisition wait so a slow caller doesn't lose it mid-use

	for {
		ok, err := r.client.SetNX(ctx, key, time.Now().Format(time.RFC3339Nano), ttl).Result()
		if err != nil {
			return false, fmt.Errorf("lock: acquire %s: %w", path, err)
		}
		if ok {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(r.poll):
		}
	}
}

// Release deletes the lock key. Safe to call whether or not the lock is
// currently held by this process.
func (r *Redis) Release(ctx context.Context, path string) error {
	return r.client.Del(ctx, lockKey(path)).Err()
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error { return r.client.Close() }
