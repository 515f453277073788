package app

import (
	"context"
	"sort"

	"coagdose/domain/chem"
	"coagdose/domain/dose"
	"coagdose/domain/partition"
	apperrors "coagdose/internal/errors"
)

// Sweep evaluates fixed coagulant doses on one chemistry with no search:
// a dose-response curve for jar-test comparison and phase-switch
// diagnostics. Doses are mol reagent per liter.
func (svc *DoseService) Sweep(ctx context.Context, req Request, doses []float64) ([]SweepPoint, error) {
	in, err := svc.resolve(req)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInputError, err)
	}

	sorted := append([]float64(nil), doses...)
	sort.Float64s(sorted)

	// The solver only sees the reactive phosphorus pool; the non-reactive
	// floor is added back to the reported residuals.
	water := req.Water
	if in.nonReactive > 0 {
		water = req.Water.Clone()
		water.Set("P", chem.MolL(in.initialMol-in.nonReactive))
	}

	points := make([]SweepPoint, 0, len(sorted))
	var prevPhases []string
	for _, d := range sorted {
		if ctx.Err() != nil {
			return points, ctx.Err()
		}
		sc := dose.NewScenario(water, in.reagent, d, in.selection, &in.surface, in.pe)
		res, err := svc.oracle.Equilibrate(ctx, sc)
		if err != nil {
			points = append(points, SweepPoint{DoseMol: d, Failed: true})
			continue
		}
		metalMol := d * in.reagent.MetalPerMol
		pt := SweepPoint{
			DoseMol:     d,
			ResidualMgL: chem.PhosphorusMgPerMol(res.Total("P") + in.nonReactive),
			PH:          res.PH,
			Partitioning: partition.Interpret(res, in.initialMol, in.nonReactive, metalMol,
				in.reagent.Metal, in.selection.Surface),
			PositivePhases: res.PositivePhases(),
		}
		sort.Strings(pt.PositivePhases)
		if prevPhases != nil && !equalStrings(prevPhases, pt.PositivePhases) {
			pt.PhaseSwitch = true
		}
		prevPhases = pt.PositivePhases
		points = append(points, pt)
	}
	return points, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
