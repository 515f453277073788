// Package dose holds the data model of one dosing calculation: the
// scenario handed to the equilibrium solver, the search bracket and path,
// the tuning knobs, and the request/result surface of the engine.
package dose

import (
	"encoding/json"
	"fmt"

	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/phases"
)

// SurfaceSpec describes the surface-complexation sites carried on the
// hydroxide substrate. Defaults follow the Dzombak & Morel HFO model.
type SurfaceSpec struct {
	SiteDensityStrong float64 `json:"site_density_strong" yaml:"site_density_strong"` // mol strong sites / mol metal
	SiteDensityWeak   float64 `json:"site_density_weak" yaml:"site_density_weak"`     // mol weak sites / mol metal
	SpecificAreaM2G   float64 `json:"specific_area_m2_g" yaml:"specific_area_m2_g"`
}

// DefaultSurfaceSpec returns the Dzombak & Morel hydrous ferric oxide values
func DefaultSurfaceSpec() SurfaceSpec {
	return SurfaceSpec{
		SiteDensityStrong: 0.005,
		SiteDensityWeak:   0.2,
		SpecificAreaM2G:   600,
	}
}

// Scenario fully determines one equilibrium solver invocation. It is
// constructed fresh for every search iteration and never mutated after
// construction, so a solver call is a pure function of its scenario.
type Scenario struct {
	Water     chem.Water
	Reagent   chem.Reagent
	AmountMol float64 // mol reagent formula per liter

	// Optional pH-adjustment co-reagent dosed in the same equilibration
	CoReagent   *chem.Reagent
	CoAmountMol float64

	Phases      []phases.Phase
	Surface     *SurfaceSpec
	SurfaceSite string // adsorption surface site name, e.g. Hfo

	Pe      float64
	PeFixed bool
}

// NewScenario builds a scenario from a cloned water; the clone keeps the
// caller's input immutable.
func NewScenario(w chem.Water, reagent chem.Reagent, amountMol float64, sel phases.Selection, surface *SurfaceSpec, pe float64) Scenario {
	return Scenario{
		Water:       w.Clone(),
		Reagent:     reagent,
		AmountMol:   amountMol,
		Phases:      sel.Phases,
		Surface:     surface,
		SurfaceSite: sel.Surface,
		Pe:          pe,
		PeFixed:     true,
	}
}

// WithCoReagent returns a copy carrying a pH-adjustment co-dose
func (s Scenario) WithCoReagent(r chem.Reagent, amountMol float64) Scenario {
	out := s
	out.CoReagent = &r
	out.CoAmountMol = amountMol
	return out
}

// Fingerprint hashes the scenario for log correlation and oracle-call
// deduplication diagnostics.
func (s Scenario) Fingerprint() core.Hash {
	b, err := json.Marshal(struct {
		Analysis  map[string]chem.Concentration
		PH        float64
		Temp      float64
		Reagent   string
		Amount    float64
		CoReagent string
		CoAmount  float64
		Phases    []phases.Phase
		Pe        float64
	}{
		Analysis:  s.Water.Analysis,
		PH:        s.Water.PH,
		Temp:      s.Water.TemperatureC,
		Reagent:   s.Reagent.Formula,
		Amount:    s.AmountMol,
		CoReagent: coFormula(s.CoReagent),
		CoAmount:  s.CoAmountMol,
		Phases:    s.Phases,
		Pe:        s.Pe,
	})
	if err != nil {
		return core.NewHash([]byte(fmt.Sprintf("%+v", s)))
	}
	return core.NewHash(b)
}

func coFormula(r *chem.Reagent) string {
	if r == nil {
		return ""
	}
	return r.Formula
}
