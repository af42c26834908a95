// Package resource implements the two read realizations of a resource:
// VersionedResource, which replays a journal at an instant, and
// CachedResource, which reads a materialized latest snapshot. Both populate
// the same Resource record; callers never see a type hierarchy, only the
// InteractionModel field and the context-dispatched Stream method, per the
// "polymorphic resource views" design.
package resource

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/acoburn/trellis-rosid/internal/layout"
	"github.com/acoburn/trellis-rosid/internal/patch"
	"github.com/acoburn/trellis-rosid/internal/quad"
)

// TripleContext selects which named graph a Resource streams.
type TripleContext int

const (
	UserManaged TripleContext = iota
	ServerManaged
	AccessControl
	Audit
	Containment
	Membership
	Inbound
)

func (c TripleContext) graph() quad.Context {
	switch c {
	case UserManaged:
		return quad.PreferUserManaged
	case ServerManaged:
		return quad.PreferServerManaged
	case AccessControl:
		return quad.PreferAccessControl
	case Audit:
		return quad.PreferAudit
	case Containment:
		return quad.PreferContainment
	case Membership:
		return quad.PreferMembership
	case Inbound:
		return quad.InboundReferences
	default:
		return quad.PreferUserManaged
	}
}

// Resource is the single polymorphic record for a versioned or cached view.
// Behavior that would otherwise depend on an LDP subtype is a conditional on
// InteractionModel instead of a distinct Go type.
type Resource struct {
	ID               quad.IRI
	InteractionModel quad.IRI
	Types            []quad.IRI
	Created          time.Time
	Modified         time.Time
	Contains         []quad.IRI

	// Optional single-valued attributes, zero-valued ("") when the
	// resource carries no triple for the corresponding predicate.
	Inbox                   quad.IRI
	ACL                      quad.IRI
	MembershipResource       quad.IRI
	HasMemberRelation        quad.IRI
	IsMemberOfRelation       quad.IRI
	InsertedContentRelation  quad.IRI
	AnnotationService        quad.IRI
	Creator                  quad.IRI

	// IsMemento is true for a VersionedResource (a replayed-at-time view)
	// and false for a CachedResource (the live materialized snapshot).
	IsMemento bool

	// IsPage and Next describe this view's place in a paged container
	// member listing; both are set by the container-listing operation
	// that produces a page, never derived from the resource's own quads.
	IsPage bool
	Next   quad.IRI

	quads    map[string]quad.Quad
	mementos []patch.MementoRange
}

// Mementos bounded by [from, until) for the journal this view was built
// from; empty for a CachedResource (the cache has no history of its own).
func (r *Resource) Mementos() []patch.MementoRange { return r.mementos }

// QuadSet returns the full identity-keyed quad set backing this view,
// across every named graph. Callers that need only one context's triples
// should use Stream instead; this is for consumers (recache, reindex) that
// need the whole resource.
func (r *Resource) QuadSet() map[string]quad.Quad { return r.quads }

// Datastream describes a non-RDF binary source attached to a resource via
// a dc:hasPart triple in PreferServerManaged, matching the "datastream"
// attribute named but not elaborated: (location, format, size, created,
// modified).
type Datastream struct {
	Location string
	Format   string
	Size     int64
	Created  time.Time
	Modified time.Time
}

// Datastream reports the resource's binary datastream, if any. The second
// return is false for RDF-only resources.
func (r *Resource) Datastream() (Datastream, bool) {
	var location quad.IRI
	found := false
	for _, q := range r.quads {
		if q.Predicate == quad.DCHasPart && q.Label == quad.PreferServerManaged.Graph() {
			if iri, ok := q.Object.(quad.IRI); ok {
				location = iri
				found = true
				break
			}
		}
	}
	if !found {
		return Datastream{}, false
	}

	ds := Datastream{Location: string(location)}
	for _, q := range r.quads {
		if q.Label != quad.PreferServerManaged.Graph() || q.Subject != location {
			continue
		}
		switch q.Predicate {
		case quad.DCFormat:
			ds.Format = literalValue(q.Object)
		case quad.DCExtent:
			if n, err := strconv.ParseInt(literalValue(q.Object), 10, 64); err == nil {
				ds.Size = n
			}
		case quad.DCTermsCreated:
			if t, err := time.Parse(time.RFC3339, literalValue(q.Object)); err == nil {
				ds.Created = t
			}
		case quad.DCTermsModified:
			if t, err := time.Parse(time.RFC3339, literalValue(q.Object)); err == nil {
				ds.Modified = t
			}
		}
	}
	return ds, true
}

func literalValue(v quad.Value) string {
	switch t := v.(type) {
	case quad.String:
		return string(t)
	case quad.TypedString:
		return string(t.Value)
	case quad.LangString:
		return string(t.Value)
	default:
		return ""
	}
}

// Stream returns a lazy, single-pass sequence of quads in the given
// context: a `next` function returning (quad, ok), and a no-op close (kept
// for symmetry with I/O-backed sources). The Containment and Membership
// contexts are synthesized from server-managed quads rather than read from
// their own graphs; nothing is ever stored under those graph names.
// Streams are not restartable; callers needing to iterate twice must
// collect first.
func (r *Resource) Stream(ctx TripleContext) (next func() (quad.Quad, bool), closeFn func() error) {
	var pending []quad.Quad
	switch ctx {
	case Containment:
		for _, q := range r.quads {
			if q.Label == quad.PreferServerManaged.Graph() && q.Predicate == quad.LDPContains && q.Subject == r.ID {
				pending = append(pending, quad.Make(q.Subject, q.Predicate, q.Object, quad.PreferContainment.Graph()))
			}
		}
	case Membership:
		for _, child := range r.Contains {
			if r.MembershipResource != "" && r.HasMemberRelation != "" {
				pending = append(pending, quad.Make(r.MembershipResource, r.HasMemberRelation, child, quad.PreferMembership.Graph()))
			}
			if r.MembershipResource != "" && r.IsMemberOfRelation != "" {
				pending = append(pending, quad.Make(child, r.IsMemberOfRelation, r.MembershipResource, quad.PreferMembership.Graph()))
			}
		}
	default:
		graph := ctx.graph().Graph()
		for _, q := range r.quads {
			if q.Label == graph {
				pending = append(pending, q)
			}
		}
	}
	i := 0
	next = func() (quad.Quad, bool) {
		if i >= len(pending) {
			return quad.Quad{}, false
		}
		q := pending[i]
		i++
		return q, true
	}
	closeFn = func() error { return nil }
	return next, closeFn
}

// deriveAttributes scans the full quad set for the well-known predicates
// that populate the optional single-valued attributes, Types, Contains and
// InteractionModel, exactly as the replayed/cached quad-set requires.
// InteractionModel (unlike Types) only ever reflects the single
// rdf:type ldp:<Interaction> triple in the PreferServerManaged graph: a map
// has no fixed iteration order, so picking it up from any rdf:type triple
// regardless of graph would make it nondeterministic across runs whenever a
// user-managed rdf:type triple also happens to be present.
func deriveAttributes(r *Resource) {
	for _, q := range r.quads {
		iri, isIRI := q.Object.(quad.IRI)
		switch q.Predicate {
		case quad.RDFType:
			if isIRI {
				r.Types = append(r.Types, iri)
				if q.Label == quad.PreferServerManaged.Graph() {
					r.InteractionModel = iri
				}
			}
		case quad.LDPContains:
			if isIRI && q.Label == quad.PreferServerManaged.Graph() && q.Subject == r.ID {
				r.Contains = append(r.Contains, iri)
			}
		case quad.LDPInbox:
			if isIRI {
				r.Inbox = iri
			}
		case quad.ACLAccessControl:
			if isIRI {
				r.ACL = iri
			}
		case quad.LDPMembershipResource:
			if isIRI {
				r.MembershipResource = iri
			}
		case quad.LDPHasMemberRelation:
			if isIRI {
				r.HasMemberRelation = iri
			}
		case quad.LDPIsMemberOfRelation:
			if isIRI {
				r.IsMemberOfRelation = iri
			}
		case quad.LDPInsertedContentRelation:
			if isIRI {
				r.InsertedContentRelation = iri
			}
		case quad.LDPAnnotationService:
			if isIRI {
				r.AnnotationService = iri
			}
		case quad.DCCreator:
			if isIRI {
				r.Creator = iri
			}
		}
	}
}

var errMissing = fmt.Errorf("resource: not found")

// IsMissing reports whether err denotes a resource absent from storage,
// the "empty optional" condition callers treat as a non-error.
func IsMissing(err error) bool { return err == errMissing }

// openJournal opens a resource's journal file for reading, reporting
// errMissing if the resource directory or journal file does not exist.
func openJournal(dir string) (*os.File, error) {
	f, err := os.Open(dir + "/" + layout.JournalFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errMissing
		}
		return nil, fmt.Errorf("resource: open journal: %w", err)
	}
	return f, nil
}
