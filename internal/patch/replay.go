package patch

import (
	"io"
	"sort"
	"time"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

// QuadSet is the set of quads present at a given instant, keyed by identity
// so callers can range over Values without caring about the key shape.
type QuadSet map[string]quad.Quad

// entry tracks the most recent operation seen for a given quad identity.
type entry struct {
	kind Kind
	at   time.Time
}

// ReplayAt performs a single forward pass over r, keeping for each distinct
// quad the operation from the latest block whose instant is at or before t,
// and returns the quads whose last such operation was an addition. Quads
// first touched strictly after t are ignored entirely.
func ReplayAt(r io.Reader, t time.Time) (QuadSet, error) {
	rd := NewReader(r)
	last := make(map[string]entry)
	quads := make(map[string]quad.Quad)

	var blockAt time.Time
	var blockOps []struct {
		id   string
		kind Kind
		q    quad.Quad
	}

	flush := func() {
		if blockAt.After(t) {
			blockOps = blockOps[:0]
			return
		}
		for _, op := range blockOps {
			last[op.id] = entry{kind: op.kind, at: blockAt}
			quads[op.id] = op.q
		}
		blockOps = blockOps[:0]
	}

	for {
		op, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if op.End {
			blockAt = op.At
			flush()
			continue
		}
		id := quad.Identity(op.Quad)
		blockOps = append(blockOps, struct {
			id   string
			kind Kind
			q    quad.Quad
		}{id, op.Kind, op.Quad})
	}

	out := make(QuadSet, len(last))
	for id, e := range last {
		if e.kind == Add {
			out[id] = quads[id]
		}
	}
	return out, nil
}

// MementoRange is a half-open time range over which a resource's state was
// constant, bounded by two successive distinct block instants.
type MementoRange struct {
	From time.Time
	// Until is the zero Value for the final, still-open range.
	Until time.Time
}

// Open reports whether this range has no upper bound.
func (m MementoRange) Open() bool { return m.Until.IsZero() }

// Mementos scans r and returns the ordered, distinct block instants as a
// sequence of half-open ranges: [t0, t1), [t1, t2), ..., [tn, +inf).
func Mementos(r io.Reader) ([]MementoRange, error) {
	rd := NewReader(r)
	seen := make(map[int64]time.Time)
	for {
		op, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if op.End {
			seen[op.At.UnixNano()] = op.At
		}
	}
	if len(seen) == 0 {
		return nil, nil
	}
	instants := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		instants = append(instants, t)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })

	ranges := make([]MementoRange, 0, len(instants))
	for i, t := range instants {
		r := MementoRange{From: t}
		if i+1 < len(instants) {
			r.Until = instants[i+1]
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
