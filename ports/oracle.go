// Package ports defines the boundaries between the dosing engine and its
// external collaborators.
package ports

import (
	"context"

	"coagdose/domain/dose"
)

// EquilibriumPort is the thermodynamic speciation oracle: one call is one
// scenario -> equilibrated-state round trip. Implementations must be
// deterministic for identical scenarios and must return a
// *dose.OracleFailure (never a zero-filled result) on nonconvergence.
//
// Calls may be slow and externally blocking; implementations honor ctx
// cancellation. Implementations must be safe for use by concurrent
// searches.
type EquilibriumPort interface {
	Equilibrate(ctx context.Context, s dose.Scenario) (*dose.EquilibriumResult, error)
}
