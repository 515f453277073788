package dose

import (
	"fmt"

	"coagdose/domain/core"
)

// EquilibriumResult is the solver's response for one scenario: the
// equilibrated multi-phase state. All amounts are per kilogram of water,
// which this system treats as interchangeable with per liter at the dilute
// concentrations involved.
type EquilibriumResult struct {
	// Totals holds element-total dissolved concentrations [mol/kgw]
	Totals map[string]float64

	// Species holds individual species molalities [mol/kgw]
	Species map[string]float64

	// PhaseMoles holds precipitated amount per candidate phase [mol]
	PhaseMoles map[string]float64

	// SurfaceTotals holds element totals adsorbed on each surface,
	// keyed by surface site name then element, e.g. ["Hfo"]["P"] [mol]
	SurfaceTotals map[string]map[string]float64

	PH            float64
	Pe            float64
	IonicStrength float64
	TemperatureC  float64
}

// Total returns an element total, zero when the solver did not report it
func (r *EquilibriumResult) Total(element string) float64 {
	return r.Totals[element]
}

// AdsorbedOn returns the adsorbed amount of an element on a surface [mol]
func (r *EquilibriumResult) AdsorbedOn(surface, element string) float64 {
	if m, ok := r.SurfaceTotals[surface]; ok {
		return m[element]
	}
	return 0
}

// PositivePhases returns the names of phases with precipitated amount
// above a numeric floor, used for phase-switch detection.
func (r *EquilibriumResult) PositivePhases() []string {
	const floor = 1e-12
	var out []string
	for name, mol := range r.PhaseMoles {
		if mol > floor {
			out = append(out, name)
		}
	}
	return out
}

// OracleFailure is the solver's nonconvergence or parse failure for one
// scenario. It is a distinct outcome, never a zero-filled result: the
// search engine must treat it as "no information".
type OracleFailure struct {
	Reason string
	Detail string
}

func (e *OracleFailure) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s (%s)", core.ErrOracleFailure, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%v: %s", core.ErrOracleFailure, e.Reason)
}

// Unwrap ties the failure into the sentinel taxonomy
func (e *OracleFailure) Unwrap() error { return core.ErrOracleFailure }
