package bootstrap

import (
	"github.com/google/uuid"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

// UUIDSkolemizer mints skolemized blank-node IRIs under a configurable
// genid prefix.
type UUIDSkolemizer struct {
	Prefix string // e.g. "info:trellis/.well-known/genid/"
}

// Skolemize returns a fresh, globally unique IRI.
func (s UUIDSkolemizer) Skolemize() quad.IRI {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "info:trellis/.well-known/genid/"
	}
	return quad.IRI(prefix + uuid.NewString())
}
