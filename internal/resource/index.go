package resource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cayleygraph/cayley"
	cquad "github.com/cayleygraph/quad"

	"github.com/acoburn/trellis-rosid/internal/layout"
	"github.com/acoburn/trellis-rosid/internal/quad"
)

// indexedType is the predicate an Index entry is recorded under; the
// triple's object is the resource's own interaction model IRI, which is
// also all List needs back.
const indexedType = cquad.IRI("rdf:type")

// IndexEntry is one row of an Index listing.
type IndexEntry struct {
	ID               quad.IRI
	InteractionModel quad.IRI
}

// Index is an optional, in-memory Cayley-backed accelerator for listing
// resources by partition prefix. It is rebuilt from
// the authoritative cache files at startup (see rosid.Service's index
// wiring) and is never itself the source of truth: a process that starts
// with an empty Index still answers every Get/GetAt correctly, just without
// the list-acceleration path.
type Index struct {
	mu    sync.Mutex
	store *cayley.Handle
}

// OpenIndex constructs an empty in-memory index.
func OpenIndex() (*Index, error) {
	store, err := cayley.NewMemoryGraph()
	if err != nil {
		return nil, fmt.Errorf("resource: open index: %w", err)
	}
	return &Index{store: store}, nil
}

// RebuildIndex opens an empty index and populates it by walking every cache
// file under root, the same way a fresh process recovers its in-memory
// listing accelerator after a restart. Resources whose cache cannot be read
// are skipped; they still exist and answer Get/GetAt correctly, just without
// appearing in a List done through the index until their next write.
func RebuildIndex(root string) (*Index, error) {
	ix, err := OpenIndex()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(root); statErr != nil {
		if os.IsNotExist(statErr) {
			return ix, nil
		}
		return nil, fmt.Errorf("resource: rebuild index: %w", statErr)
	}

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != layout.CacheFile {
			return nil
		}
		r, findErr := CachedResource{}.Find(filepath.Dir(path), "")
		if findErr != nil {
			return nil
		}
		return ix.Put(r.ID, r.InteractionModel)
	})
	if walkErr != nil {
		return nil, fmt.Errorf("resource: rebuild index: %w", walkErr)
	}
	return ix, nil
}

// Put records (or overwrites) id's interaction model in the index.
func (ix *Index) Put(id, interactionModel quad.IRI) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_ = ix.store.RemoveQuad(cquad.Quad{Subject: cquad.IRI(id), Predicate: indexedType, Object: cquad.IRI(ix.currentType(id))})
	return ix.store.AddQuad(cquad.Quad{Subject: cquad.IRI(id), Predicate: indexedType, Object: cquad.IRI(interactionModel)})
}

// currentType returns id's presently indexed interaction model, or "" if
// none, so Put can retract the stale triple before adding the new one.
func (ix *Index) currentType(id quad.IRI) quad.IRI {
	ctx := context.Background()
	var current quad.IRI
	_ = cayley.StartPath(ix.store, cquad.IRI(id)).Out(indexedType).Iterate(ctx).EachValue(nil, func(v cquad.Value) {
		if iri, ok := v.(cquad.IRI); ok {
			current = quad.IRI(iri)
		}
	})
	return current
}

// Remove deletes id from the index. Removing an absent id is a no-op.
func (ix *Index) Remove(id quad.IRI) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	current := ix.currentType(id)
	if current == "" {
		return nil
	}
	return ix.store.RemoveQuad(cquad.Quad{Subject: cquad.IRI(id), Predicate: indexedType, Object: cquad.IRI(current)})
}

// List returns every indexed resource whose IRI is partitionRoot or nests
// beneath it.
func (ix *Index) List(partitionRoot quad.IRI) ([]IndexEntry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ctx := context.Background()
	var entries []IndexEntry
	it := ix.store.QuadsAllIterator()
	defer it.Close()
	for it.Next(ctx) {
		q := ix.store.Quad(it.Result())
		subj, ok := q.Subject.(cquad.IRI)
		if !ok {
			continue
		}
		id := quad.IRI(subj)
		if id != partitionRoot && !hasIRIPrefix(string(id), string(partitionRoot)+"/") {
			continue
		}
		obj, ok := q.Object.(cquad.IRI)
		if !ok {
			continue
		}
		entries = append(entries, IndexEntry{ID: id, InteractionModel: quad.IRI(obj)})
	}
	return entries, it.Err()
}

func hasIRIPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
