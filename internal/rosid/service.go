// Package rosid implements the resource service façade: the public surface
// that locates a resource's on-disk directory, writes new patches
// atomically under a cross-process lock, maintains the materialized cache,
// and emits change events downstream. It owns no RDF logic of its own;
// that lives in internal/patch and internal/resource, and this package only
// orchestrates them.
package rosid

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/acoburn/trellis-rosid/internal/layout"
	"github.com/acoburn/trellis-rosid/internal/lock"
	"github.com/acoburn/trellis-rosid/internal/notify"
	"github.com/acoburn/trellis-rosid/internal/patch"
	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/resource"
)

// IdentifierSupplier mints fresh IRIs for skolemized blank nodes. It stays
// an external collaborator so the identifier-generation policy is never
// baked into the service.
type IdentifierSupplier interface {
	Skolemize() quad.IRI
}

// Config configures a Service, threaded explicitly through the
// constructor rather than read from process-wide globals.
type Config struct {
	Root        string
	Async       bool
	LockTimeout time.Duration
}

// Service is the resource-service façade.
type Service struct {
	cfg    Config
	locks  lock.Store
	sink   notify.Sink
	ids    IdentifierSupplier
	log    *logrus.Entry
	ops    *tracker
	recacheFn func(ctx context.Context, id quad.IRI) error
	index  *resource.Index
}

// WithIndex attaches an optional cross-partition listing accelerator:
// once set, List answers from the index instead of walking every cache
// file, and Write/Purge keep it in sync. A Service with no index attached
// behaves exactly as before: the index is never consulted for Get/GetAt
// and is not required for correctness.
func (s *Service) WithIndex(ix *resource.Index) *Service {
	s.index = ix
	return s
}

// New constructs a Service. recacheFn is called to materialize a resource's
// cache; in synchronous mode (Config.Async == false) it runs inline on
// every write. Passing nil installs Service.Recache itself as the default;
// a caller wiring an asynchronous pipeline instead passes its own no-op (or
// the real Recache, wrapped, as internal/topology's Recacher) here.
func New(cfg Config, locks lock.Store, sink notify.Sink, ids IdentifierSupplier, log *logrus.Entry, recacheFn func(ctx context.Context, id quad.IRI) error) *Service {
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = 10 * time.Second
	}
	s := &Service{
		cfg:   cfg,
		locks: locks,
		sink:  sink,
		ids:   ids,
		log:   log,
		ops:   newTracker(1000),
	}
	if recacheFn == nil {
		recacheFn = s.Recache
	}
	s.recacheFn = recacheFn
	return s
}

// Recache regenerates id's materialized cache from a full replay of its
// journal as of now, the same projection GetAt would compute for a
// near-present read. This is the default recacheFn New installs, and is
// also the function an asynchronous deployment's internal/topology.Recacher
// should call after its coalescing window flushes.
func (s *Service) Recache(ctx context.Context, id quad.IRI) error {
	dir := s.dir(id)
	r, err := resource.VersionedResource{}.Find(dir, id, time.Now())
	if resource.IsMissing(err) {
		return nil
	}
	if err != nil {
		return ioError("recache replay journal", err)
	}
	if err := resource.Write(dir, id, r.QuadSet(), r.Created, r.Modified); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Put(id, r.InteractionModel); err != nil {
			s.log.WithError(err).WithField("resource", id).Warn("rosid: list index update failed")
		}
	}
	return nil
}

func (s *Service) dir(id quad.IRI) string {
	return layout.DirFor(s.cfg.Root, string(id))
}

// Get returns the latest state of id: the cache if present, otherwise a
// journal replay at the current instant.
func (s *Service) Get(ctx context.Context, id quad.IRI) (*resource.Resource, error) {
	return s.GetAt(ctx, id, time.Now())
}

// GetAt returns id's state as of t. "latest" reads (t very close to now)
// still prefer the cache when it exists; any other time replays the
// journal directly, since the cache only ever holds the current snapshot.
func (s *Service) GetAt(ctx context.Context, id quad.IRI, t time.Time) (*resource.Resource, error) {
	dir := s.dir(id)

	if time.Since(t) < time.Second {
		if r, err := (resource.CachedResource{}).Find(dir, id); err == nil {
			return r, nil
		} else if !resource.IsMissing(err) {
			return nil, ioError("get cache", err)
		}
	}

	r, err := resource.VersionedResource{}.Find(dir, id, t)
	if resource.IsMissing(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ioError("replay journal", err)
	}
	return r, nil
}

// Write appends one journal block for id under the resource's lock, then
// either synchronously regenerates the cache or leaves that to the caller's
// asynchronous pipeline (internal/topology), and finally publishes a change
// event. Event-publish failure is logged here and never rolls back the
// journal write.
func (s *Service) Write(ctx context.Context, id quad.IRI, remove, add []quad.Quad, t time.Time) error {
	dir := s.dir(id)
	op := s.ops.start(string(id), "write")
	var opErr error
	defer func() { s.ops.complete(op, opErr) }()

	if s.ids != nil {
		add = skolemize(add, s.ids)
	}

	opErr = lock.WithLock(ctx, s.locks, string(id), s.cfg.LockTimeout, func() error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioError("mkdir resource dir", err)
		}
		w, err := patch.Open(dir + "/" + layout.JournalFile)
		if err != nil {
			return ioError("open journal", err)
		}
		defer w.Close()
		if err := w.Append(remove, add, t); err != nil {
			return ioError("append journal", err)
		}

		if !s.cfg.Async && s.recacheFn != nil {
			if err := s.recacheFn(ctx, id); err != nil {
				s.log.WithError(err).WithField("resource", id).Warn("rosid: synchronous cache regeneration failed")
			}
		}
		return nil
	})
	if opErr != nil {
		return opErr
	}

	if s.sink != nil {
		if err := s.sink.Publish(ctx, notify.ChangeEvent{Resource: id, Type: "update", At: t}); err != nil {
			s.log.WithError(err).WithField("resource", id).Warn("rosid: change event publish failed")
		}
	}
	return nil
}

// Purge removes every artifact in id's resource directory (journal, cache
// and index entry) and returns the IRIs of any binary datastreams the
// resource referenced (via dc:hasPart in PreferServerManaged), so the
// caller can reclaim them; purging a resource never reclaims its
// datastreams itself. A subsequent Get returns ErrNotFound.
func (s *Service) Purge(ctx context.Context, id quad.IRI) ([]quad.IRI, error) {
	dir := s.dir(id)

	var datastreams []quad.IRI
	if r, findErr := (resource.VersionedResource{}).Find(dir, id, time.Now()); findErr == nil {
		for _, q := range r.QuadSet() {
			if q.Predicate == quad.DCHasPart && q.Label == quad.PreferServerManaged.Graph() {
				if iri, ok := q.Object.(quad.IRI); ok {
					datastreams = append(datastreams, iri)
				}
			}
		}
	} else if !resource.IsMissing(findErr) {
		return nil, ioError("purge: replay journal for datastreams", findErr)
	}

	err := lock.WithLock(ctx, s.locks, string(id), s.cfg.LockTimeout, func() error {
		if err := os.RemoveAll(dir); err != nil {
			return ioError("purge", err)
		}
		return nil
	})
	if err == nil && s.index != nil {
		if rmErr := s.index.Remove(id); rmErr != nil {
			s.log.WithError(rmErr).WithField("resource", id).Warn("rosid: list index removal failed")
		}
	}
	if err != nil {
		return nil, err
	}
	return datastreams, nil
}

// Compact is reserved but not implemented.
func (s *Service) Compact(ctx context.Context, id quad.IRI) error {
	return ErrUnsupported
}

// skolemize replaces every blank node appearing as subject or object of an
// added quad with a fresh IRI from ids, consistently within one call so
// repeated references to the same blank node resolve to the same minted
// IRI. Blank nodes are scoped to a single write per the journal's BNode
// semantics, so no cross-call mapping is kept.
func skolemize(add []quad.Quad, ids IdentifierSupplier) []quad.Quad {
	var mapping map[quad.BNode]quad.IRI
	resolve := func(v quad.Value) quad.Value {
		bn, ok := v.(quad.BNode)
		if !ok {
			return v
		}
		if mapping == nil {
			mapping = make(map[quad.BNode]quad.IRI)
		}
		if iri, ok := mapping[bn]; ok {
			return iri
		}
		iri := ids.Skolemize()
		mapping[bn] = iri
		return iri
	}

	out := make([]quad.Quad, len(add))
	for i, q := range add {
		out[i] = quad.Make(resolve(q.Subject), q.Predicate, resolve(q.Object), q.Label)
	}
	return out
}
