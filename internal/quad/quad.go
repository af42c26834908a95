// Package quad defines the RDF term and quad vocabulary used throughout the
// storage engine: the fixed set of named-graph contexts, the well-known
// predicate IRIs, and a thin re-export of the cayleygraph/quad term types so
// callers never need to import that package directly.
package quad

import (
	"fmt"
	"strings"

	cquad "github.com/cayleygraph/quad"
)

// Value is any RDF term usable as subject, predicate, object or graph label.
type Value = cquad.Value

// IRI identifies a resource, predicate or named graph.
type IRI = cquad.IRI

// String is a plain RDF literal with no language tag or datatype.
type String = cquad.String

// TypedString is a literal with an explicit datatype IRI.
type TypedString = cquad.TypedString

// LangString is a literal tagged with a BCP47 language code.
type LangString = cquad.LangString

// BNode is a blank node identifier, scoped to a single resource's journal.
type BNode = cquad.BNode

// Quad is a single (graph, subject, predicate, object) statement.
type Quad = cquad.Quad

// Make builds a Quad from subject, predicate, object and graph label values.
func Make(subject, predicate, object, label interface{}) Quad {
	return cquad.Make(subject, predicate, object, label)
}

// DefaultGraph is the reserved label written in the graph position of a
// journal or cache line for a quad that has no graph label, so every line
// carries an explicit graph term.
const DefaultGraph = IRI("trellis:default")

// Context names the fixed named graphs a resource's journal partitions
// statements into.
type Context string

const (
	PreferUserManaged   Context = "trellis:PreferUserManaged"
	PreferServerManaged Context = "trellis:PreferServerManaged"
	PreferAccessControl Context = "trellis:PreferAccessControl"
	PreferAudit         Context = "trellis:PreferAudit"
	PreferContainment   Context = "trellis:PreferContainment"
	PreferMembership    Context = "trellis:PreferMembership"
	InboundReferences   Context = "trellis:InboundReferences"
)

// Graph renders a Context as the IRI used in its graph position.
func (c Context) Graph() IRI { return IRI(c) }

// ParseContext recovers a Context from a graph IRI, or false if the IRI does
// not name one of the fixed contexts.
func ParseContext(g IRI) (Context, bool) {
	switch Context(g) {
	case PreferUserManaged, PreferServerManaged, PreferAccessControl,
		PreferAudit, PreferContainment, PreferMembership, InboundReferences:
		return Context(g), true
	}
	return "", false
}

// Well-known predicate and class IRIs used by the containment/membership and
// provenance machinery.
const (
	RDFType    = IRI("rdf:type")
	LDPContains = IRI("ldp:contains")
	LDPContainer = IRI("ldp:Container")
	LDPInbox   = IRI("ldp:inbox")
	DCHasPart  = IRI("dc:hasPart")
	ACLAccessControl = IRI("acl:accessControl")
	ACLRead    = IRI("acl:Read")
	ACLWrite   = IRI("acl:Write")
	ACLControl = IRI("acl:Control")
	ACLAgentClass = IRI("acl:agentClass")
	ACLMode    = IRI("acl:mode")
	PROVActivity = IRI("prov:Activity")
	ASCreate   = IRI("as:Create")
	PROVWasAssociatedWith = IRI("prov:wasAssociatedWith")
	PROVGeneratedAtTime   = IRI("prov:generatedAtTime")
	DCFormat      = IRI("dc:format")
	DCExtent      = IRI("dc:extent")
	DCTermsCreated  = IRI("dcterms:created")
	DCTermsModified = IRI("dcterms:modified")
	DCCreator  = IRI("dc:creator")
	LDPMembershipResource      = IRI("ldp:membershipResource")
	LDPHasMemberRelation       = IRI("ldp:hasMemberRelation")
	LDPIsMemberOfRelation      = IRI("ldp:isMemberOfRelation")
	LDPInsertedContentRelation = IRI("ldp:insertedContentRelation")
	LDPAnnotationService       = IRI("ldp:annotationService")
)

// Identity returns a stable string key for a quad's (graph, subject,
// predicate, object) tuple, used by the patch codec's replay map and by
// set/dedup bookkeeping. Two quads with the same identity denote the same
// logical statement regardless of term encoding details.
func Identity(q Quad) string {
	var b strings.Builder
	writeTerm(&b, q.Label)
	b.WriteByte('\x00')
	writeTerm(&b, q.Subject)
	b.WriteByte('\x00')
	writeTerm(&b, q.Predicate)
	b.WriteByte('\x00')
	writeTerm(&b, q.Object)
	return b.String()
}

func writeTerm(b *strings.Builder, v Value) {
	if v == nil {
		b.WriteString("-")
		return
	}
	fmt.Fprintf(b, "%T:%s", v, cquad.StringOf(v))
}
