package app

import (
	"context"
	"math"

	"coagdose/domain/dose"
)

// phSearch finds the acid/base co-dose driving pH to its target at a fixed
// coagulant dose. Same bracket/expand/converge pattern as the outer dose
// search, one dimension down. Runs once per outer iteration, so its oracle
// calls multiply the total: a deliberate cost, because co-dosing interacts
// nonlinearly with coagulant hydrolysis.
func (s *searcher) phSearch(ctx context.Context, coagDose float64) (*evaluation, error) {
	adj := s.phAdjust
	base := dose.NewScenario(s.water, s.reagent, coagDose, s.selection, s.surface, s.pe)

	// Zero-dose baseline first.
	baseline, err := s.equilibrate(ctx, base)
	if err != nil {
		return nil, err
	}

	// Short-circuit when the baseline pH is already on the correct side
	// for this reagent: dosing would move pH the wrong way.
	if s.phReagent.IsBase() && baseline.ph >= adj.TargetPH-adj.Tolerance {
		return baseline, nil
	}
	if s.phReagent.IsAcid() && baseline.ph <= adj.TargetPH+adj.Tolerance {
		return baseline, nil
	}

	// correctSide reports whether a pH has crossed the target from the
	// direction this reagent pushes.
	correctSide := func(ph float64) bool {
		if s.phReagent.IsBase() {
			return ph >= adj.TargetPH
		}
		return ph <= adj.TargetPH
	}

	// The bracket starts well below the cap and expands toward it, never
	// past it: MaxDoseMol is a hard limit on co-reagent addition.
	low := 0.0
	high := adj.MaxDoseMol / math.Pow(s.tuning.ExpansionFactor, float64(s.tuning.MaxExpansions))
	lowEv := baseline

	highEv, err := s.equilibrate(ctx, base.WithCoReagent(s.phReagent, high))
	if err != nil {
		return nil, err
	}
	for i := 0; i < s.tuning.MaxExpansions && !correctSide(highEv.ph); i++ {
		high = math.Min(high*s.tuning.ExpansionFactor, adj.MaxDoseMol)
		if highEv, err = s.equilibrate(ctx, base.WithCoReagent(s.phReagent, high)); err != nil {
			return nil, err
		}
	}
	if !correctSide(highEv.ph) {
		s.note("pH adjustment could not reach target %.2f with %s up to %.4g mol/L",
			adj.TargetPH, s.phReagent.Formula, high)
		return highEv, nil
	}

	bestEv := highEv
	bestDist := math.Abs(highEv.ph - adj.TargetPH)
	if d := math.Abs(lowEv.ph - adj.TargetPH); d < bestDist {
		bestEv, bestDist = lowEv, d
	}

	for it := 0; it < adj.MaxIterations; it++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		mid := (low + high) / 2
		ev, err := s.equilibrate(ctx, base.WithCoReagent(s.phReagent, mid))
		if err != nil {
			// Too much co-reagent; narrow from above.
			high = mid
			continue
		}
		if d := math.Abs(ev.ph - adj.TargetPH); d < bestDist {
			bestEv, bestDist = ev, d
		}
		if math.Abs(ev.ph-adj.TargetPH) <= adj.Tolerance {
			return ev, nil
		}
		if correctSide(ev.ph) {
			high = mid
		} else {
			low = mid
		}
	}
	if bestDist > adj.Tolerance {
		s.note("pH sub-search at dose %.4g mol/L stopped %.2f pH units from target", coagDose, bestDist)
	}
	return bestEv, nil
}
