// Package topology implements the event-driven pipeline that reacts to
// resource mutations: containment updates, inbound-reference maintenance,
// and coalesced cache regeneration. Records are routed by topic name and,
// within a topic, ordered per resource IRI onto a single goroutine so two
// mutations of the same resource are never processed out of order, while
// unrelated resources proceed in parallel.
package topology

import (
	"time"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

// Topic names the logical channels a Record moves through. These match the
// named topics an external event log (e.g. Kafka) would expose.
type Topic string

const (
	TopicUpdate            Topic = "TOPIC_UPDATE"
	TopicDelete            Topic = "TOPIC_DELETE"
	TopicContainerAdd      Topic = "TOPIC_LDP_CONTAINER_ADD"
	TopicContainerDelete   Topic = "TOPIC_LDP_CONTAINER_DELETE"
	TopicInboundAdd        Topic = "TOPIC_INBOUND_ADD"
	TopicInboundDelete     Topic = "TOPIC_INBOUND_DELETE"
	TopicRecache           Topic = "TOPIC_RECACHE"
	TopicEvent             Topic = "TOPIC_EVENT"
)

// Record is one message flowing through the topology: a mutation of one
// resource, tagged with the quads it added/removed so downstream branches
// can decide whether it touched containment or inbound-reference triples.
type Record struct {
	Resource quad.IRI
	Parent   quad.IRI // set for container add/delete branches
	Remove   []quad.Quad
	Add      []quad.Quad
	At       time.Time

	// Hop counts how many times this logical event has been republished on
	// TOPIC_DELETE, resolving the "visible loop" open question: a record is
	// allowed to be republished once as a residual audit copy and is
	// dropped thereafter (see MaxDeleteHops in topology.go).
	Hop int

	// topic is set by Submit so a record can be routed through dispatch
	// after it leaves its resource's ordered lane channel.
	topic Topic
}

// ContainsContainment reports whether Add holds a server-managed
// ldp:contains triple, the signal that routes a TOPIC_UPDATE record to the
// container-add branch.
func (r Record) ContainsContainment() (parent quad.IRI, ok bool) {
	for _, q := range r.Add {
		if q.Predicate == quad.LDPContains && q.Label == quad.PreferServerManaged.Graph() {
			if iri, isIRI := q.Subject.(quad.IRI); isIRI {
				return iri, true
			}
		}
	}
	return "", false
}

// RemovesContainment is the deletion-side counterpart of ContainsContainment.
func (r Record) RemovesContainment() (parent quad.IRI, ok bool) {
	for _, q := range r.Remove {
		if q.Predicate == quad.LDPContains && q.Label == quad.PreferServerManaged.Graph() {
			if iri, isIRI := q.Subject.(quad.IRI); isIRI {
				return iri, true
			}
		}
	}
	return "", false
}

// HasInboundChange reports whether Add or Remove touches the
// InboundReferences graph.
func (r Record) HasInboundChange() bool {
	for _, q := range r.Add {
		if q.Label == quad.InboundReferences.Graph() {
			return true
		}
	}
	for _, q := range r.Remove {
		if q.Label == quad.InboundReferences.Graph() {
			return true
		}
	}
	return false
}
