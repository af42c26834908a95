package lock

import (
	"context"
	"sync"
	"time"
)

// Local is an in-process Store backed by a map of path to expiry,
// standing in for Redis in single-process deployments and tests.
type Local struct {
	mu      sync.Mutex
	expires map[string]time.Time
	poll    time.Duration
}

// NewLocal returns a ready-to-use in-process lock store.
func NewLocal() *Local {
	return &Local{expires: make(map[string]time.Time), poll: 10 * time.Millisecond}
}

func (l *Local) tryOnce(path string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, held := l.expires[path]; held && exp.After(now) {
		return false
	}
	l.expires[path] = now.Add(ttl)
	return true
}

// TryAcquire polls an in-process map until it can claim path or timeout
// elapses.
func (l *Local) TryAcquire(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	ttl := timeout + 5*time.Second
	for {
		if l.tryOnce(path, ttl) {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

// Release clears path's entry regardless of whether it is currently held.
func (l *Local) Release(ctx context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, path)
	return nil
}
