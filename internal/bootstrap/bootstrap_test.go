package bootstrap

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoburn/trellis-rosid/internal/lock"
	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/resource"
	"github.com/acoburn/trellis-rosid/internal/rosid"
)

func newTestService(t *testing.T) *rosid.Service {
	t.Helper()
	root := t.TempDir()
	return rosid.New(rosid.Config{Root: root}, lock.NewLocal(), nil, nil, logrus.NewEntry(logrus.New()), nil)
}

func TestEnsureRootCreatesContainerOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := quad.IRI("info:trellis/admin")

	require.NoError(t, EnsureRoot(ctx, svc, "repository", admin, UUIDSkolemizer{}))

	r, err := svc.Get(ctx, quad.IRI("info:trellis/repository"))
	require.NoError(t, err)
	assert.Equal(t, quad.LDPContainer, r.InteractionModel)

	next, closeFn := r.Stream(resource.AccessControl)
	defer closeFn()
	count := 0
	for {
		_, ok := next()
		if !ok {
			break
		}
		count++
	}
	assert.Greater(t, count, 0)
}

func TestEnsureRootIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := quad.IRI("info:trellis/admin")

	require.NoError(t, EnsureRoot(ctx, svc, "repository", admin, UUIDSkolemizer{}))
	require.NoError(t, EnsureRoot(ctx, svc, "repository", admin, UUIDSkolemizer{}))

	r, err := svc.Get(ctx, quad.IRI("info:trellis/repository"))
	require.NoError(t, err)
	assert.Equal(t, quad.LDPContainer, r.InteractionModel)
}
