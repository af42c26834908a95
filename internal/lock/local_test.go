package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTryAcquireExcludesConcurrentHolder(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	ok, err := l.TryAcquire(ctx, "info:trellis/resource", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryAcquire(ctx, "info:trellis/resource", 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire of a held lock should time out")

	require.NoError(t, l.Release(ctx, "info:trellis/resource"))

	ok, err = l.TryAcquire(ctx, "info:trellis/resource", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "acquire should succeed after release")
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	func() {
		defer func() { recover() }()
		WithLock(ctx, l, "info:trellis/resource", time.Second, func() error {
			panic("boom")
		})
	}()

	ok, err := l.TryAcquire(ctx, "info:trellis/resource", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be released even when the protected function panics")
}

func TestWithLockReturnsErrTimeout(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()
	require.NoError(t, mustAcquire(l, ctx))

	err := WithLock(ctx, l, "info:trellis/resource", 20*time.Millisecond, func() error {
		t.Fatal("fn must not run when the lock cannot be acquired")
		return nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func mustAcquire(l *Local, ctx context.Context) error {
	_, err := l.TryAcquire(ctx, "info:trellis/resource", time.Second)
	return err
}
