// Package partition post-processes a converged equilibrium state into
// dissolved / adsorbed / precipitated breakdowns for phosphorus and metal,
// attributes removal to a mechanism, and computes marginal dose efficiency.
package partition

import (
	"coagdose/domain/chem"
	"coagdose/domain/dose"
	"coagdose/domain/phases"
)

// Mechanism classifies how removed phosphorus left solution
type Mechanism string

const (
	MechanismAdsorption    Mechanism = "adsorption"
	MechanismPrecipitation Mechanism = "precipitation"
	MechanismMixed         Mechanism = "mixed"
	MechanismNone          Mechanism = "none"
)

// A pathway dominates when it carries at least this share of removed P.
const dominanceThreshold = 0.60

// Removal below this fraction of initial P counts as no removal, avoiding
// mechanism shares computed against a near-zero denominator.
const negligibleRemovalFraction = 0.02

// PhaseContribution is the P and metal a single phase locked up
type PhaseContribution struct {
	Phase    string  `json:"phase"`
	Moles    float64 `json:"moles"`
	PMol     float64 `json:"p_mol"`
	MetalMol float64 `json:"metal_mol"`
}

// Breakdown is a derived, read-only view over one equilibrium result plus
// the original dose. It is recomputed fresh each time, never cached.
type Breakdown struct {
	DissolvedPMol    float64 `json:"dissolved_p_mol"`
	AdsorbedPMol     float64 `json:"adsorbed_p_mol"`
	PrecipitatedPMol float64 `json:"precipitated_p_mol"`
	RemovedPMol      float64 `json:"removed_p_mol"`

	DissolvedMetalMol    float64 `json:"dissolved_metal_mol"`
	PrecipitatedMetalMol float64 `json:"precipitated_metal_mol"`
	AddedMetalMol        float64 `json:"added_metal_mol"`

	PhaseContributions []PhaseContribution `json:"phase_contributions,omitempty"`

	Mechanism          Mechanism `json:"mechanism"`
	AdsorptionShare    float64   `json:"adsorption_share"`
	PrecipitationShare float64   `json:"precipitation_share"`

	// MassBalanceErrorMol is initial - (dissolved+adsorbed+precipitated);
	// diagnostics only.
	MassBalanceErrorMol float64 `json:"mass_balance_error_mol"`
}

// Interpret builds the breakdown for one converged result.
// initialPMol and nonReactivePMol are mol/L of the pre-dose water;
// addedMetalMol is the metal delivered by the converged dose. The solver
// only sees the reactive pool, so the non-reactive fraction is added back
// to the dissolved side here.
func Interpret(res *dose.EquilibriumResult, initialPMol, nonReactivePMol, addedMetalMol float64, metal chem.Metal, surface string) Breakdown {
	b := Breakdown{
		AddedMetalMol: addedMetalMol,
	}

	b.DissolvedPMol = res.Total("P") + nonReactivePMol
	b.DissolvedMetalMol = res.Total(string(metal))
	b.AdsorbedPMol = res.AdsorbedOn(surface, "P")

	for name, mol := range res.PhaseMoles {
		if mol <= 0 {
			continue
		}
		st, ok := phases.Stoichiometry(phases.Phase(name))
		if !ok {
			continue
		}
		c := PhaseContribution{
			Phase:    name,
			Moles:    mol,
			PMol:     mol * float64(st.P),
			MetalMol: mol * float64(st.Metal),
		}
		b.PrecipitatedPMol += c.PMol
		b.PrecipitatedMetalMol += c.MetalMol
		b.PhaseContributions = append(b.PhaseContributions, c)
	}

	b.RemovedPMol = b.AdsorbedPMol + b.PrecipitatedPMol
	b.MassBalanceErrorMol = initialPMol - (b.DissolvedPMol + b.AdsorbedPMol + b.PrecipitatedPMol)

	b.Mechanism, b.AdsorptionShare, b.PrecipitationShare = attribute(b.RemovedPMol, b.AdsorbedPMol, b.PrecipitatedPMol, initialPMol)
	return b
}

func attribute(removed, adsorbed, precipitated, initial float64) (Mechanism, float64, float64) {
	if initial <= 0 || removed <= initial*negligibleRemovalFraction {
		return MechanismNone, 0, 0
	}
	adsShare := adsorbed / removed
	pptShare := precipitated / removed
	switch {
	case adsShare >= dominanceThreshold:
		return MechanismAdsorption, adsShare, pptShare
	case pptShare >= dominanceThreshold:
		return MechanismPrecipitation, adsShare, pptShare
	default:
		return MechanismMixed, adsShare, pptShare
	}
}
