package main

import (
	"fmt"

	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/resource"
)

// parseQuadLine parses one N-Triples-style term list of the form
// "<subject> <predicate> <object>" or "<subject> <predicate> <object>
// <graph>" as accepted by --add/--remove flags. A missing graph term
// defaults to defaultGraph.
func parseQuadLine(line string, defaultGraph quad.IRI) (quad.Quad, error) {
	terms, err := quad.SplitTerms(line)
	if err != nil {
		return quad.Quad{}, fmt.Errorf("rosidctl: %w", err)
	}
	if len(terms) != 3 && len(terms) != 4 {
		return quad.Quad{}, fmt.Errorf("rosidctl: expected 3 or 4 terms, got %d in %q", len(terms), line)
	}

	s, err := quad.DecodeTerm(terms[0])
	if err != nil {
		return quad.Quad{}, err
	}
	p, err := quad.DecodeTerm(terms[1])
	if err != nil {
		return quad.Quad{}, err
	}
	o, err := quad.DecodeTerm(terms[2])
	if err != nil {
		return quad.Quad{}, err
	}

	g := quad.Value(defaultGraph)
	if len(terms) == 4 {
		g, err = quad.DecodeTerm(terms[3])
		if err != nil {
			return quad.Quad{}, err
		}
	}
	return quad.Make(s, p, o, g), nil
}

// parseQuadLines applies parseQuadLine to every entry in lines.
func parseQuadLines(lines []string, defaultGraph quad.IRI) ([]quad.Quad, error) {
	out := make([]quad.Quad, 0, len(lines))
	for _, line := range lines {
		q, err := parseQuadLine(line, defaultGraph)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// contextByName maps the --context flag's accepted values to a
// resource.TripleContext, grounded on the fixed set of named graphs the
// journal partitions quads into.
func contextByName(name string) (resource.TripleContext, error) {
	switch name {
	case "user", "":
		return resource.UserManaged, nil
	case "server":
		return resource.ServerManaged, nil
	case "acl":
		return resource.AccessControl, nil
	case "audit":
		return resource.Audit, nil
	case "containment":
		return resource.Containment, nil
	case "membership":
		return resource.Membership, nil
	case "inbound":
		return resource.Inbound, nil
	default:
		return 0, fmt.Errorf("rosidctl: unknown context %q (want user, server, acl, audit, containment, membership, inbound)", name)
	}
}
