// Package bootstrap implements idempotent partition root initialization:
// creating the root LDP container with a default ACL and a provenance
// record the first time a partition is used, and doing nothing on every
// subsequent call.
package bootstrap

import (
	"context"
	"time"

	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/rosid"
)

// IdentifierSupplier mints the skolemized blank-node IRI for the
// provenance activity recorded on root creation.
type IdentifierSupplier = rosid.IdentifierSupplier

// EnsureRoot creates partition's root resource if it does not already
// exist: an ldp:Container typed resource, a default ACL granting
// Read/Write/Control to adminAgentClass, and a prov:Activity describing the
// creation, linked via a skolemized blank node. Calling EnsureRoot again
// for an already-initialized partition is a no-op: the check is a plain
// Get, so this carries the same cache/journal consistency guarantees as any
// other read.
func EnsureRoot(ctx context.Context, svc *rosid.Service, partition string, adminAgentClass quad.IRI, ids IdentifierSupplier) error {
	root := quad.IRI("info:trellis/" + partition)

	if _, err := svc.Get(ctx, root); err == nil {
		return nil
	} else if err != rosid.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	activity := ids.Skolemize()

	add := []quad.Quad{
		quad.Make(root, quad.RDFType, quad.LDPContainer, quad.PreferServerManaged.Graph()),

		quad.Make(root, quad.ACLAccessControl, activity, quad.PreferAccessControl.Graph()),
		quad.Make(activity, quad.ACLAgentClass, adminAgentClass, quad.PreferAccessControl.Graph()),
		quad.Make(activity, quad.ACLMode, quad.ACLRead, quad.PreferAccessControl.Graph()),
		quad.Make(activity, quad.ACLMode, quad.ACLWrite, quad.PreferAccessControl.Graph()),
		quad.Make(activity, quad.ACLMode, quad.ACLControl, quad.PreferAccessControl.Graph()),

		quad.Make(activity, quad.RDFType, quad.PROVActivity, quad.PreferAudit.Graph()),
		quad.Make(activity, quad.RDFType, quad.ASCreate, quad.PreferAudit.Graph()),
		quad.Make(activity, quad.PROVWasAssociatedWith, adminAgentClass, quad.PreferAudit.Graph()),
		quad.Make(activity, quad.PROVGeneratedAtTime, quad.TypedString{Value: quad.String(now.Format(time.RFC3339)), Type: quad.IRI("xsd:dateTime")}, quad.PreferAudit.Graph()),
	}

	return svc.Write(ctx, root, nil, add, now)
}
