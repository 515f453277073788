package partition

import (
	"math"

	"coagdose/domain/chem"
	"coagdose/domain/dose"
)

// MarginalBand qualitatively interprets a mol-metal-per-mol-P marginal ratio
type MarginalBand string

const (
	BandNearStoichiometric MarginalBand = "near-stoichiometric"
	BandModerateExcess     MarginalBand = "moderate excess"
	BandDiminishingReturns MarginalBand = "diminishing returns"
	BandVeryHighCost       MarginalBand = "very high marginal cost"
)

// Band ratio thresholds (mol metal per mol P removed at the margin)
const (
	nearStoichMax = 1.5
	moderateMax   = 5.0
	diminishMax   = 20.0
)

// Residual deltas below this [mol/L] give no usable slope.
const negligibleResidualDelta = 1e-9

// MarginalRatio is the incremental dose cost per unit of further removal
// near the converged dose.
type MarginalRatio struct {
	Defined     bool         `json:"defined"`
	MolPerMolP  float64      `json:"mol_per_mol_p,omitempty"`
	Band        MarginalBand `json:"band,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Marginal computes the marginal ratio from the last two valid samples of
// the optimization path. Returns Defined=false rather than a spurious
// number when the residual delta is numerically negligible.
func Marginal(path *dose.Path) MarginalRatio {
	lo, hi, ok := path.LastValidPair()
	if !ok {
		return MarginalRatio{Defined: false, Description: "not enough search samples"}
	}
	deltaDose := hi.Dose - lo.Dose
	deltaResidualMol := chem.PhosphorusMolPerMg(lo.Residual) - chem.PhosphorusMolPerMg(hi.Residual)
	if math.Abs(deltaResidualMol) < negligibleResidualDelta || deltaDose <= 0 {
		return MarginalRatio{Defined: false, Description: "residual change between last samples is negligible"}
	}
	ratio := deltaDose / deltaResidualMol
	if ratio < 0 {
		// Locally non-monotonic (phase switch): slope has the wrong sign.
		return MarginalRatio{Defined: false, Description: "local non-monotonicity near converged dose"}
	}
	return MarginalRatio{
		Defined:     true,
		MolPerMolP:  ratio,
		Band:        bandFor(ratio),
		Description: string(bandFor(ratio)),
	}
}

func bandFor(ratio float64) MarginalBand {
	switch {
	case ratio < nearStoichMax:
		return BandNearStoichiometric
	case ratio < moderateMax:
		return BandModerateExcess
	case ratio < diminishMax:
		return BandDiminishingReturns
	default:
		return BandVeryHighCost
	}
}
