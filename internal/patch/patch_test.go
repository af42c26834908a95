package patch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

func mustQuad(s, p, o string) quad.Quad {
	return quad.Make(quad.IRI(s), quad.IRI(p), quad.String(o), quad.PreferUserManaged.Graph())
}

func TestAppendThenReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	w, err := Open(path)
	require.NoError(t, err)

	t0 := time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC)
	q1 := mustQuad("info:trellis/resource", "dc:title", "hello")
	q2 := mustQuad("info:trellis/resource", "dc:description", "world")
	require.NoError(t, w.Append(nil, []quad.Quad{q1, q2}, t0))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	set, err := ReplayAt(f, t0)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Contains(t, set, quad.Identity(q1))
	assert.Contains(t, set, quad.Identity(q2))
}

func TestReplayAtRespectsLastOperationBeforeTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	w, err := Open(path)
	require.NoError(t, err)

	title := mustQuad("info:trellis/resource", "dc:title", "v1")
	t1 := time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append(nil, []quad.Quad{title}, t1))

	t2 := time.Date(2017, 1, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append([]quad.Quad{title}, nil, t2))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	before, err := ReplayAt(f, t1)
	require.NoError(t, err)
	assert.Contains(t, before, quad.Identity(title))

	f.Seek(0, 0)
	after, err := ReplayAt(f, t2)
	require.NoError(t, err)
	assert.NotContains(t, after, quad.Identity(title))
}

func TestReplayIgnoresTrailingPartialBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	// Write one complete block, then append a dangling operation with no
	// terminating END line, simulating a crash mid-append.
	w, err := Open(path)
	require.NoError(t, err)
	q := mustQuad("info:trellis/resource", "dc:title", "v1")
	t1 := time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append(nil, []quad.Quad{q}, t1))
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("A <trellis:PreferUserManaged> <info:trellis/resource> ")
	require.NoError(t, err)
	f.Close()

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	far := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	set, err := ReplayAt(r, far)
	require.NoError(t, err)
	assert.Len(t, set, 1)
	assert.Contains(t, set, quad.Identity(q))
}

func TestMementosProducesHalfOpenRanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	w, err := Open(path)
	require.NoError(t, err)
	q := mustQuad("info:trellis/resource", "dc:title", "v1")
	t1 := time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2017, 1, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append(nil, []quad.Quad{q}, t1))
	require.NoError(t, w.Append(nil, nil, t2))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	ranges, err := Mementos(f)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, t1, ranges[0].From)
	assert.Equal(t, t2, ranges[0].Until)
	assert.False(t, ranges[0].Open())
	assert.Equal(t, t2, ranges[1].From)
	assert.True(t, ranges[1].Open())
}
