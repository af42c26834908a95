package resource

import (
	"fmt"
	"os"
	"time"

	"github.com/acoburn/trellis-rosid/internal/layout"
	"github.com/acoburn/trellis-rosid/internal/quad"
)

// CachedResource reads a pre-materialized snapshot of the latest state. A
// missing or corrupt cache file is treated as absent, never as a
// propagated error: the caller falls back to VersionedResource.
type CachedResource struct{}

// Find opens the bbolt cache file in dir and reconstructs the Resource from
// its header and quads buckets.
func (CachedResource) Find(dir string, id quad.IRI) (*Resource, error) {
	path := dir + "/" + layout.CacheFile
	if _, err := os.Stat(path); err != nil {
		return nil, errMissing
	}

	store, err := openBoltStore(path)
	if err != nil {
		// A corrupt cache file is absent, not an error: the resource
		// service falls back to replaying the journal.
		return nil, errMissing
	}
	defer store.Close()

	header, found, err := store.getHeader()
	if err != nil || !found {
		return nil, errMissing
	}

	quads := make(map[string]quad.Quad)
	if err := store.forEachQuadLine(func(qid, line string) error {
		q, err := decodeCachedLine(line)
		if err != nil {
			// A corrupt individual line is skipped, matching the
			// journal codec's corrupt-line tolerance.
			return nil
		}
		quads[qid] = q
		return nil
	}); err != nil {
		return nil, fmt.Errorf("resource: read cache quads: %w", err)
	}

	r := &Resource{
		ID:               id,
		InteractionModel: quad.IRI(header.InteractionModel),
		Created:          header.Created,
		Modified:         header.Modified,
		quads:            quads,
	}
	if header.ID != "" {
		r.ID = quad.IRI(header.ID)
	}
	deriveAttributes(r)
	return r, nil
}

// Write regenerates the cache in dir from set, writing into a temporary
// file and renaming it over the target so concurrent readers never observe
// a partially written cache.
func Write(dir string, id quad.IRI, set map[string]quad.Quad, created, modified time.Time) error {
	path := dir + "/" + layout.CacheFile
	tmp := path + ".tmp"

	_ = os.Remove(tmp)
	store, err := openBoltStore(tmp)
	if err != nil {
		return err
	}

	var interactionModel quad.IRI
	for _, q := range set {
		if q.Predicate == quad.RDFType && q.Label == quad.PreferServerManaged.Graph() {
			if iri, ok := q.Object.(quad.IRI); ok {
				interactionModel = iri
			}
		}
	}

	if err := store.putHeader(cacheHeader{
		ID:               string(id),
		InteractionModel: string(interactionModel),
		Created:          created,
		Modified:         modified,
	}); err != nil {
		store.Close()
		return err
	}

	for qid, q := range set {
		if err := store.putQuadLine(qid, encodeCachedLine(q)); err != nil {
			store.Close()
			return err
		}
	}

	if err := store.Close(); err != nil {
		return fmt.Errorf("resource: close temp cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("resource: install cache: %w", err)
	}
	return nil
}

func encodeCachedLine(q quad.Quad) string {
	graph := q.Label
	if graph == nil {
		graph = quad.DefaultGraph
	}
	return quad.EncodeTerm(graph) + " " +
		quad.EncodeTerm(q.Subject) + " " +
		quad.EncodeTerm(q.Predicate) + " " +
		quad.EncodeTerm(q.Object)
}

func decodeCachedLine(line string) (quad.Quad, error) {
	terms, err := quad.SplitTerms(line)
	if err != nil {
		return quad.Quad{}, err
	}
	if len(terms) != 4 {
		return quad.Quad{}, fmt.Errorf("resource: malformed cache line %q", line)
	}
	g, err := quad.DecodeTerm(terms[0])
	if err != nil {
		return quad.Quad{}, err
	}
	s, err := quad.DecodeTerm(terms[1])
	if err != nil {
		return quad.Quad{}, err
	}
	p, err := quad.DecodeTerm(terms[2])
	if err != nil {
		return quad.Quad{}, err
	}
	o, err := quad.DecodeTerm(terms[3])
	if err != nil {
		return quad.Quad{}, err
	}
	return quad.Make(s, p, o, g), nil
}

