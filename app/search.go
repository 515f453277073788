package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/dose"
	"coagdose/domain/phases"
	"coagdose/internal"
	"coagdose/ports"
)

// searcher owns the state of one dose search: the fixed scenario context,
// the growing optimization path, and the oracle call counter. One searcher
// per top-level request; searches never share state.
type searcher struct {
	oracle ports.EquilibriumPort
	log    *internal.Logger

	water     chem.Water
	reagent   chem.Reagent
	selection phases.Selection
	surface   *dose.SurfaceSpec
	pe        float64

	targetMgL float64
	tuning    dose.SearchTuning

	phAdjust  *dose.PHAdjustment
	phReagent chem.Reagent

	path  dose.Path
	calls int
	notes []string
}

// searchOutcome is the raw engine result before interpretation
type searchOutcome struct {
	status      Status
	dose        float64
	residualMgL float64
	coDose      float64
	finalPH     float64
	finalState  *dose.EquilibriumResult
	iterations  int
}

// evaluation is one oracle observation at a dose
type evaluation struct {
	residualMgL float64
	coDose      float64
	ph          float64
	state       *dose.EquilibriumResult
}

func (s *searcher) note(format string, args ...interface{}) {
	s.notes = append(s.notes, fmt.Sprintf(format, args...))
}

// equilibrate runs one oracle call and converts the phosphorus total to
// mg/L as P.
func (s *searcher) equilibrate(ctx context.Context, sc dose.Scenario) (*evaluation, error) {
	s.calls++
	res, err := s.oracle.Equilibrate(ctx, sc)
	if err != nil {
		return nil, err
	}
	return &evaluation{
		residualMgL: chem.PhosphorusMgPerMol(res.Total("P")),
		coDose:      sc.CoAmountMol,
		ph:          res.PH,
		state:       res,
	}, nil
}

// evaluate observes the residual at one coagulant dose, delegating to the
// nested pH sub-search when co-dosing is enabled, and records the sample
// in the path.
func (s *searcher) evaluate(ctx context.Context, d float64, kind dose.SampleKind) (*evaluation, error) {
	var ev *evaluation
	var err error
	if s.phAdjust != nil {
		ev, err = s.phSearch(ctx, d)
	} else {
		sc := dose.NewScenario(s.water, s.reagent, d, s.selection, s.surface, s.pe)
		ev, err = s.equilibrate(ctx, sc)
	}
	if err != nil {
		s.path.Append(dose.Sample{Dose: d, Kind: kind, OK: false})
		s.log.Debug("dose %.6g mol/L: solver failed: %v", d, err)
		return nil, err
	}
	s.path.Append(dose.Sample{Dose: d, Residual: ev.residualMgL, Kind: kind, CoDose: ev.coDose, OK: true})
	s.log.Debug("dose %.6g mol/L -> residual %.4g mg/L as P", d, ev.residualMgL)
	return ev, nil
}

// bestSample tracks the sample closest to target seen so far. Ties keep
// the earlier sample: binary search under phase switching does not
// guarantee the final midpoint is the best one.
type bestSample struct {
	set  bool
	dist float64
	dose float64
	ev   *evaluation
}

func (b *bestSample) offer(target, d float64, ev *evaluation) {
	dist := math.Abs(ev.residualMgL - target)
	if !b.set || dist < b.dist {
		b.set = true
		b.dist = dist
		b.dose = d
		b.ev = ev
	}
}

// findDose runs the bracketing + binary-search algorithm between the given
// dose bounds [mol reagent / L].
func (s *searcher) findDose(ctx context.Context, lower, upper float64) (*searchOutcome, error) {
	if lower < 0 || upper <= lower {
		return nil, fmt.Errorf("%w: lower %.4g, upper %.4g", core.ErrNegativeDose, lower, upper)
	}

	best := &bestSample{}

	lowEv, lowErr := s.evaluate(ctx, lower, dose.SampleBoundLow)
	highEv, highErr := s.evaluate(ctx, upper, dose.SampleBoundHigh)
	if ctxErr := firstContextErr(lowErr, highErr); ctxErr != nil {
		return nil, ctxErr
	}
	if lowErr != nil && highErr != nil {
		// No evaluable bounds: nothing to search over.
		return nil, fmt.Errorf("%w (lower: %v; upper: %v)", core.ErrNoEvaluableBounds, lowErr, highErr)
	}

	bracket := dose.Bracket{Low: lower, High: upper}

	if lowErr != nil {
		// A failed zero/low bound carries no information; stand in the
		// undosed phosphorus concentration so bracketing can proceed.
		initialMgL, _ := s.initialPMgL()
		bracket.LowResidual = initialMgL
		s.note("solver failed at the lower dose bound; assuming undosed residual %.4g mg/L", initialMgL)
	} else {
		bracket.LowResidual = lowEv.residualMgL
		best.offer(s.targetMgL, lower, lowEv)
	}

	if highErr != nil {
		// Too much reagent destabilized the system: walk the upper bound
		// down until it evaluates.
		ok := false
		for i := 0; i < s.tuning.MaxExpansions; i++ {
			bracket.High = bracket.Low + (bracket.High-bracket.Low)/2
			if highEv, highErr = s.evaluate(ctx, bracket.High, dose.SampleBoundHigh); highErr == nil {
				ok = true
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w (upper bound never evaluable)", core.ErrNoEvaluableBounds)
		}
		s.note("upper dose bound reduced to %.4g mol/L after solver failures", bracket.High)
	}
	bracket.HighResidual = highEv.residualMgL
	best.offer(s.targetMgL, bracket.High, highEv)

	// Lower bound may already satisfy the target (caller supplied a
	// nonzero floor dose).
	if bracket.LowResidual <= s.targetMgL+s.tuning.ToleranceMgL && lowErr == nil {
		return s.outcome(StatusSuccess, bracket.Low, lowEv, 0), nil
	}

	// Bracket repair: expand the upper bound until its residual drops to
	// the target side, within the expansion budget.
	expansions := 0
	for bracket.HighResidual > s.targetMgL && expansions < s.tuning.MaxExpansions {
		expansions++
		next := bracket.High * s.tuning.ExpansionFactor
		ev, err := s.evaluate(ctx, next, dose.SampleExpansion)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.note("bracket expansion stopped at %.4g mol/L: solver failed above", bracket.High)
			break
		}
		bracket.Low, bracket.LowResidual = bracket.High, bracket.HighResidual
		bracket.High, bracket.HighResidual = next, ev.residualMgL
		best.offer(s.targetMgL, next, ev)
	}
	if bracket.HighResidual > s.targetMgL {
		s.note("dose bracket may not contain the target: residual %.4g mg/L at the maximum dose %.4g mol/L",
			bracket.HighResidual, bracket.High)
	}

	// Binary search.
	for it := 1; it <= s.tuning.MaxIterations; it++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		mid := bracket.Mid()
		ev, err := s.evaluate(ctx, mid, dose.SampleBisect)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Midpoint failure reads as "too much reagent": narrow from
			// above and keep going.
			bracket.High = mid
			continue
		}
		best.offer(s.targetMgL, mid, ev)

		if math.Abs(ev.residualMgL-s.targetMgL) <= s.tuning.ToleranceMgL {
			s.detectNonMonotonicity()
			return s.outcome(StatusSuccess, mid, ev, it), nil
		}
		if ev.residualMgL > s.targetMgL {
			bracket.Low, bracket.LowResidual = mid, ev.residualMgL
		} else {
			bracket.High, bracket.HighResidual = mid, ev.residualMgL
		}
		if bracket.Width() < s.tuning.MinBracketWidth {
			// Further refinement cannot change the dose observably.
			s.note("search stopped: dose bracket narrower than %.4g mol/L", s.tuning.MinBracketWidth)
			s.detectNonMonotonicity()
			return s.outcome(s.statusFor(best), best.dose, best.ev, it), nil
		}
	}

	s.note("maximum iterations reached; returning best dose found")
	s.detectNonMonotonicity()
	return s.outcome(s.statusFor(best), best.dose, best.ev, s.tuning.MaxIterations), nil
}

// statusFor distinguishes a best-so-far sample that happens to satisfy the
// tolerance from a genuinely approximate one.
func (s *searcher) statusFor(best *bestSample) Status {
	if best.set && best.dist <= s.tuning.ToleranceMgL {
		return StatusSuccess
	}
	return StatusBestEffort
}

func (s *searcher) outcome(status Status, d float64, ev *evaluation, iterations int) *searchOutcome {
	return &searchOutcome{
		status:      status,
		dose:        d,
		residualMgL: ev.residualMgL,
		coDose:      ev.coDose,
		finalPH:     ev.ph,
		finalState:  ev.state,
		iterations:  iterations,
	}
}

func (s *searcher) initialPMgL() (float64, error) {
	mol, err := s.water.MolarP()
	if err != nil {
		return 0, err
	}
	return chem.PhosphorusMgPerMol(mol), nil
}

// detectNonMonotonicity flags dose pairs where more reagent left more
// phosphorus in solution, the signature of a phase switch.
func (s *searcher) detectNonMonotonicity() {
	const residualTolMgL = 0.02
	var ok []dose.Sample
	for _, sm := range s.path.Samples {
		if sm.OK {
			ok = append(ok, sm)
		}
	}
	sort.Slice(ok, func(i, j int) bool { return ok[i].Dose < ok[j].Dose })
	for i := 1; i < len(ok); i++ {
		if ok[i].Residual > ok[i-1].Residual+residualTolMgL {
			s.note("non-monotonic dose response between %.4g and %.4g mol/L (possible phase switch)",
				ok[i-1].Dose, ok[i].Dose)
			return
		}
	}
}

func firstContextErr(errs ...error) error {
	for _, err := range errs {
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return err
		}
	}
	return nil
}
