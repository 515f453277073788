package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"coagdose/domain/chem"
)

// Default sulfide levels [mg/L as S] bounding iron demand when the caller
// has no measurement.
var defaultSulfideLevels = []float64{0.1, 2, 5, 10, 20}

// Per-level searches are independent; cap how many solver subprocesses run
// at once.
const sensitivityConcurrency = 4

// Dose ratios above this flag a level as requiring caution.
const cautionRatioThreshold = 10.0

// runSensitivity re-runs the complete dosing calculation once per assumed
// sulfide level. Each level is an independent request built from a cloned
// water; the sensitivity flag is never propagated, so composition replaces
// flag-guarded recursion.
func (svc *DoseService) runSensitivity(ctx context.Context, req Request) (*SensitivityResult, error) {
	levels := req.SulfideLevelsMgL
	if len(levels) == 0 {
		levels = defaultSulfideLevels
	}

	initialMol, err := req.Water.MolarP()
	if err != nil {
		return nil, err
	}

	out := make([]SensitivityLevel, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sensitivityConcurrency)
	for i, level := range levels {
		i, level := i, level
		g.Go(func() error {
			sub := req
			sub.RunID = ""
			sub.SulfideSensitivity = false
			sub.SulfideLevelsMgL = nil
			w := req.Water.Clone()
			w.Set("S(-2)", chem.Concentration{Value: level, Unit: chem.UnitMgLAsS})
			sub.Water = w

			lv := SensitivityLevel{SulfideMgL: level}
			res, err := svc.calculateOnce(gctx, sub)
			if err != nil {
				lv.Err = err.Error()
				if res != nil {
					lv.Status = res.Status
				}
			} else {
				lv.Status = res.Status
				lv.DoseMol = res.DoseMol
				lv.DoseMgL = res.DoseMgL
				if initialMol > 0 {
					lv.MolFePerMolP = res.MetalMolL / initialMol
				}
				lv.Caution = lv.MolFePerMolP > cautionRatioThreshold
			}
			out[i] = lv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SulfideMgL < out[j].SulfideMgL })

	var ratios []float64
	for _, lv := range out {
		if lv.Err == "" && lv.MolFePerMolP > 0 {
			ratios = append(ratios, lv.MolFePerMolP)
		}
	}
	result := &SensitivityResult{Levels: out}
	if len(ratios) > 0 {
		result.MeanRatio = stat.Mean(ratios, nil)
		result.MaxRatio, _ = stats.Max(ratios)
	}
	result.Recommendation = sensitivityRecommendation(out, result.MeanRatio, result.MaxRatio)
	return result, nil
}

func sensitivityRecommendation(levels []SensitivityLevel, mean, max float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Iron demand across %d assumed sulfide levels: mean %.1f, worst-case %.1f mol Fe per mol P.",
		len(levels), mean, max)
	var cautioned []float64
	for _, lv := range levels {
		if lv.Caution {
			cautioned = append(cautioned, lv.SulfideMgL)
		}
	}
	if len(cautioned) > 0 {
		fmt.Fprintf(&b, " Demand above %.1f mol Fe/mol P at sulfide >= %.1f mg/L as S: measure sulfide before sizing the dosing system.",
			cautionRatioThreshold, cautioned[0])
	} else {
		b.WriteString(" Sulfide competition stays within normal design margins over the range tested.")
	}
	return b.String()
}
