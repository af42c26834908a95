package resource

import (
	"time"

	"github.com/acoburn/trellis-rosid/internal/patch"
	"github.com/acoburn/trellis-rosid/internal/quad"
)

// VersionedResource replays a resource's journal at a point in time.
type VersionedResource struct{}

// Find replays the journal in dir at instant t and returns the resulting
// Resource, or errMissing (see IsMissing) if the journal does not exist.
func (VersionedResource) Find(dir string, id quad.IRI, t time.Time) (*Resource, error) {
	f, err := openJournal(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := patch.ReplayAt(f, t)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	mementos, err := patch.Mementos(f)
	if err != nil {
		return nil, err
	}
	var bounded []patch.MementoRange
	for _, m := range mementos {
		if !m.From.After(t) {
			bounded = append(bounded, m)
		}
	}

	r := &Resource{ID: id, IsMemento: true, quads: set}
	// The memento list holds only ranges that have ended at or before t; the
	// range t falls in (including the final open range) is not listed.
	for _, m := range bounded {
		if !m.Open() && !m.Until.After(t) {
			r.mementos = append(r.mementos, m)
		}
	}
	if len(bounded) > 0 {
		// mementos is ordered ascending by block instant and bounded is a
		// prefix of it (every From <= t sorts before every From > t), so
		// the first entry is the resource's very first block and the last
		// is the last block at or before t: created and modified,
		// respectively.
		r.Created = bounded[0].From
		r.Modified = bounded[len(bounded)-1].From
	}
	deriveAttributes(r)
	return r, nil
}
