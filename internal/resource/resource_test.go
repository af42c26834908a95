package resource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoburn/trellis-rosid/internal/patch"
	"github.com/acoburn/trellis-rosid/internal/quad"
)

func writeJournal(t *testing.T, dir string, blocks ...func() ([]quad.Quad, []quad.Quad, time.Time)) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	w, err := patch.Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	for _, b := range blocks {
		remove, add, at := b()
		require.NoError(t, w.Append(remove, add, at))
	}
	require.NoError(t, w.Close())
}

func TestVersionedResourceFindDerivesInteractionModel(t *testing.T) {
	dir := t.TempDir()
	id := quad.IRI("info:trellis/resource")
	t0 := time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC)

	writeJournal(t, dir, func() ([]quad.Quad, []quad.Quad, time.Time) {
		return nil, []quad.Quad{
			quad.Make(id, quad.RDFType, quad.LDPContainer, quad.PreferServerManaged.Graph()),
			quad.Make(id, quad.IRI("dc:title"), quad.String("hello"), quad.PreferUserManaged.Graph()),
		}, t0
	})

	r, err := VersionedResource{}.Find(dir, id, t0)
	require.NoError(t, err)
	assert.Equal(t, quad.LDPContainer, r.InteractionModel)

	next, closeFn := r.Stream(UserManaged)
	defer closeFn()
	q, ok := next()
	require.True(t, ok)
	assert.Equal(t, quad.String("hello"), q.Object)
	_, ok = next()
	assert.False(t, ok)
}

func TestVersionedResourceMissingJournal(t *testing.T) {
	dir := t.TempDir()
	_, err := VersionedResource{}.Find(dir, quad.IRI("info:trellis/missing"), time.Now())
	assert.True(t, IsMissing(err))
}

func TestCachedResourceRoundTripsWrittenSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	id := quad.IRI("info:trellis/resource")
	created := time.Date(2017, 2, 10, 0, 0, 0, 0, time.UTC)
	modified := time.Date(2017, 2, 11, 2, 51, 35, 0, time.UTC)

	q := quad.Make(id, quad.RDFType, quad.LDPContainer, quad.PreferServerManaged.Graph())
	set := map[string]quad.Quad{quad.Identity(q): q}

	require.NoError(t, Write(dir, id, set, created, modified))

	r, err := CachedResource{}.Find(dir, id)
	require.NoError(t, err)
	assert.Equal(t, quad.LDPContainer, r.InteractionModel)
	assert.True(t, created.Equal(r.Created))
	assert.True(t, modified.Equal(r.Modified))
}

func TestCachedResourceMissingIsNotError(t *testing.T) {
	dir := t.TempDir()
	_, err := CachedResource{}.Find(dir, quad.IRI("info:trellis/missing"))
	assert.True(t, IsMissing(err))
}

func TestDatastreamPopulatedFromServerManagedTriples(t *testing.T) {
	dir := t.TempDir()
	id := quad.IRI("info:trellis/binary")
	t0 := time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)
	location := quad.IRI("info:trellis/binary/datastream")

	writeJournal(t, dir, func() ([]quad.Quad, []quad.Quad, time.Time) {
		return nil, []quad.Quad{
			quad.Make(id, quad.DCHasPart, location, quad.PreferServerManaged.Graph()),
			quad.Make(location, quad.DCFormat, quad.String("image/png"), quad.PreferServerManaged.Graph()),
			quad.Make(location, quad.DCExtent, quad.String("2048"), quad.PreferServerManaged.Graph()),
		}, t0
	})

	r, err := VersionedResource{}.Find(dir, id, t0)
	require.NoError(t, err)

	ds, ok := r.Datastream()
	require.True(t, ok)
	assert.Equal(t, string(location), ds.Location)
	assert.Equal(t, "image/png", ds.Format)
	assert.EqualValues(t, 2048, ds.Size)
}

func TestDatastreamAbsentForRDFOnlyResource(t *testing.T) {
	dir := t.TempDir()
	id := quad.IRI("info:trellis/resource")
	t0 := time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)

	writeJournal(t, dir, func() ([]quad.Quad, []quad.Quad, time.Time) {
		return nil, []quad.Quad{
			quad.Make(id, quad.RDFType, quad.LDPContainer, quad.PreferServerManaged.Graph()),
		}, t0
	})

	r, err := VersionedResource{}.Find(dir, id, t0)
	require.NoError(t, err)

	_, ok := r.Datastream()
	assert.False(t, ok)
}

func TestContainsDerivedFromServerManagedContainment(t *testing.T) {
	dir := t.TempDir()
	parent := quad.IRI("info:trellis/repository")
	child := quad.IRI("info:trellis/repository/child")
	other := quad.IRI("info:trellis/elsewhere")
	t0 := time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)

	writeJournal(t, dir, func() ([]quad.Quad, []quad.Quad, time.Time) {
		return nil, []quad.Quad{
			quad.Make(parent, quad.RDFType, quad.LDPContainer, quad.PreferServerManaged.Graph()),
			quad.Make(parent, quad.LDPContains, child, quad.PreferServerManaged.Graph()),
			// containment asserted about a different subject never lands in
			// this resource's contains attribute
			quad.Make(other, quad.LDPContains, child, quad.PreferServerManaged.Graph()),
		}, t0
	})

	r, err := VersionedResource{}.Find(dir, parent, t0)
	require.NoError(t, err)
	assert.Equal(t, []quad.IRI{child}, r.Contains)

	next, closeFn := r.Stream(Containment)
	defer closeFn()
	q, ok := next()
	require.True(t, ok)
	assert.Equal(t, quad.Value(parent), q.Subject)
	assert.Equal(t, quad.Value(child), q.Object)
	assert.Equal(t, quad.Value(quad.PreferContainment.Graph()), q.Label)
	_, ok = next()
	assert.False(t, ok)
}

func TestMembershipSynthesizedFromContainment(t *testing.T) {
	dir := t.TempDir()
	parent := quad.IRI("info:trellis/repository")
	child := quad.IRI("info:trellis/repository/child")
	members := quad.IRI("info:trellis/members")
	t0 := time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)

	writeJournal(t, dir, func() ([]quad.Quad, []quad.Quad, time.Time) {
		return nil, []quad.Quad{
			quad.Make(parent, quad.LDPContains, child, quad.PreferServerManaged.Graph()),
			quad.Make(parent, quad.LDPMembershipResource, members, quad.PreferServerManaged.Graph()),
			quad.Make(parent, quad.LDPHasMemberRelation, quad.IRI("dc:hasPart"), quad.PreferServerManaged.Graph()),
		}, t0
	})

	r, err := VersionedResource{}.Find(dir, parent, t0)
	require.NoError(t, err)

	next, closeFn := r.Stream(Membership)
	defer closeFn()
	q, ok := next()
	require.True(t, ok)
	assert.Equal(t, quad.Value(members), q.Subject)
	assert.Equal(t, quad.Value(quad.IRI("dc:hasPart")), q.Predicate)
	assert.Equal(t, quad.Value(child), q.Object)
	_, ok = next()
	assert.False(t, ok)
}

func TestQuadSetReturnsEveryContext(t *testing.T) {
	dir := t.TempDir()
	id := quad.IRI("info:trellis/resource")
	t0 := time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)

	writeJournal(t, dir, func() ([]quad.Quad, []quad.Quad, time.Time) {
		return nil, []quad.Quad{
			quad.Make(id, quad.RDFType, quad.LDPContainer, quad.PreferServerManaged.Graph()),
			quad.Make(id, quad.IRI("dc:title"), quad.String("hello"), quad.PreferUserManaged.Graph()),
		}, t0
	})

	r, err := VersionedResource{}.Find(dir, id, t0)
	require.NoError(t, err)
	assert.Len(t, r.QuadSet(), 2)
}
