package app

import (
	"context"
	"fmt"
	"math"

	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/dose"
	"coagdose/domain/partition"
	"coagdose/domain/phases"
	"coagdose/domain/redox"
	"coagdose/internal"
	apperrors "coagdose/internal/errors"
	"coagdose/ports"
)

// Typical metal demand per mol of reactive phosphorus used to auto-scale
// the initial upper dose bound, before the search refines it.
const stoichDemandPerMolP = 1.6

// Iron demand per mol of sulfide under reducing conditions: FeS forms
// first and vivianite needs 1.5 Fe per P, so sulfide is paid for on top.
const feDemandPerMolS = 1.5

// Floor for the auto-scaled upper bound [mol/L] so very low-P waters still
// get a searchable bracket.
const minUpperBoundMol = 1e-4

// Achieved pe drifting more than this from the request gets a warning.
const peDriftThreshold = 1.0

// DoseService is the single entry point for dosing calculations: it
// resolves options, runs the dose search against the equilibrium oracle
// and interprets the converged state.
type DoseService struct {
	oracle ports.EquilibriumPort
	caps   phases.DatabaseCapabilities
	log    *internal.Logger
}

// NewDoseService creates a dose service
func NewDoseService(oracle ports.EquilibriumPort, caps phases.DatabaseCapabilities, logger *internal.Logger) *DoseService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DoseService{
		oracle: oracle,
		caps:   caps,
		log:    logger.Named("dose"),
	}
}

// Calculate runs one dosing calculation, plus the sulfide sensitivity
// sweep when requested. The plain path and the sensitivity path share
// calculateOnce by composition.
func (svc *DoseService) Calculate(ctx context.Context, req Request) (*Result, error) {
	res, err := svc.calculateOnce(ctx, req)
	if err != nil {
		return res, err
	}
	if req.SulfideSensitivity {
		sens, sensErr := svc.runSensitivity(ctx, req)
		if sensErr != nil {
			res.Notes = append(res.Notes, fmt.Sprintf("sensitivity analysis failed: %v", sensErr))
		} else {
			res.Sensitivity = sens
		}
	}
	return res, nil
}

// calculateOnce is one complete dose search with no sensitivity recursion
func (svc *DoseService) calculateOnce(ctx context.Context, req Request) (*Result, error) {
	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}

	in, err := svc.resolve(req)
	if err != nil {
		svc.log.Warn("run %s rejected: %v", runID, err)
		return &Result{RunID: runID, Status: StatusInputError, Notes: []string{err.Error()}},
			apperrors.WithCode(apperrors.CodeInputError, err)
	}

	svc.log.Info("run %s: %s to %.3g mg/L as P (initial %.3g), mode %s, pe %.2f",
		runID, in.reagent.Formula, in.targetMgL, in.initialMgL, in.redoxMode, in.pe)

	// The non-reactive fraction never reaches the solver: the search runs
	// on the reactive pool and the floor is added back when reporting.
	water := req.Water.Clone()
	searchTarget := in.targetMgL
	if in.nonReactive > 0 {
		water.Set("P", chem.MolL(in.initialMol-in.nonReactive))
		searchTarget -= chem.PhosphorusMgPerMol(in.nonReactive)
	}

	s := &searcher{
		oracle:    svc.oracle,
		log:       svc.log,
		water:     water,
		reagent:   in.reagent,
		selection: in.selection,
		surface:   &in.surface,
		pe:        in.pe,
		targetMgL: searchTarget,
		tuning:    in.tuning,
		phAdjust:  in.phAdjust,
		phReagent: in.phReagent,
	}
	if in.selection.Note != "" {
		s.note("%s", in.selection.Note)
	}
	if in.reagent.OxidizedMetal && redox.IsReducing(in.pe) {
		s.note("oxidized-metal coagulant requested at reducing pe %.2f; the solver's equilibrium decides the stable phases", in.pe)
	}

	out, err := s.findDose(ctx, 0, in.upperBound)
	if err != nil {
		svc.log.Error("run %s search failed: %v", runID, err)
		if core.IsInputError(err) {
			return &Result{RunID: runID, Status: StatusInputError, Notes: []string{err.Error()}},
				apperrors.WithCode(apperrors.CodeInputError, err)
		}
		return nil, apperrors.OracleFailure("dose search failed", err)
	}

	res := svc.buildResult(runID, req, in, s, out)
	svc.log.Info("run %s: %s dose %.4g mol/L (%.1f mg/L) -> %.3g mg/L as P in %d iterations (%d solver calls)",
		runID, res.Status, res.DoseMol, res.DoseMgL, res.AchievedResidualMgL, res.Iterations, res.OracleCalls)
	return res, nil
}

// resolved carries per-request options after one-time defaulting
type resolved struct {
	reagent     chem.Reagent
	targetMgL   float64
	initialMgL  float64
	initialMol  float64
	nonReactive float64
	redoxMode   redox.Mode
	pe          float64
	selection   phases.Selection
	surface     dose.SurfaceSpec
	tuning      dose.SearchTuning
	phAdjust    *dose.PHAdjustment
	phReagent   chem.Reagent
	upperBound  float64
}

// resolve validates the request and fixes every option exactly once, so
// nothing downstream threads loose optional parameters.
func (svc *DoseService) resolve(req Request) (*resolved, error) {
	in := &resolved{}

	if err := req.Water.Validate(); err != nil {
		return nil, fmt.Errorf("water analysis: %w", err)
	}

	reagent, err := chem.LookupReagent(req.Coagulant)
	if err != nil || reagent.Kind != chem.ReagentCoagulant {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedCoagulant, req.Coagulant)
	}
	in.reagent = reagent

	initialMol, err := req.Water.MolarP()
	if err != nil {
		return nil, err
	}
	in.initialMol = initialMol
	in.initialMgL = chem.PhosphorusMgPerMol(initialMol)

	targetMol, err := req.TargetResidual.MolPerL("P")
	if err != nil {
		return nil, fmt.Errorf("target residual: %w", err)
	}
	in.targetMgL = chem.PhosphorusMgPerMol(targetMol)
	if in.targetMgL >= in.initialMgL {
		return nil, core.NewInfeasibleTargetError(in.targetMgL, in.initialMgL)
	}

	if req.NonReactiveP != nil {
		nr, err := req.NonReactiveP.MolPerL("P")
		if err != nil {
			return nil, fmt.Errorf("non-reactive P: %w", err)
		}
		if nr >= initialMol {
			return nil, fmt.Errorf("%w: non-reactive P %.4g mol/L covers the whole analysis",
				core.ErrInfeasibleTarget, nr)
		}
		if targetMol < nr {
			return nil, fmt.Errorf("%w: target %.4g mg/L as P is below the non-reactive floor %.4g mg/L",
				core.ErrInfeasibleTarget, in.targetMgL, chem.PhosphorusMgPerMol(nr))
		}
		in.nonReactive = nr
	}

	var spec redox.Spec
	if req.Redox != nil {
		spec = *req.Redox
	}
	if spec.Mode == "" {
		spec.Mode = redox.ModeAerobic
	}
	in.redoxMode = spec.Mode

	if spec.Mode == redox.ModeAnaerobic && !req.Water.HasSulfide() && !req.SulfideSensitivity {
		return nil, fmt.Errorf("%w: add an S(-2) entry to the analysis or set sulfide_sensitivity",
			core.ErrSulfideDataRequired)
	}

	pe, err := redox.Resolve(spec, reagent.Metal, req.Water.TemperatureC)
	if err != nil {
		return nil, err
	}
	in.pe = pe

	sulfideMgL, err := req.Water.SulfideMgL()
	if err != nil {
		return nil, err
	}
	sel, err := phases.Select(reagent.Metal, spec.Mode, sulfideMgL, svc.caps)
	if err != nil {
		return nil, err
	}
	in.selection = sel

	in.surface = dose.DefaultSurfaceSpec()
	if req.Surface != nil {
		in.surface = *req.Surface
	}
	in.tuning = dose.DefaultSearchTuning()
	if req.Tuning != nil {
		in.tuning = req.Tuning.Normalize()
	}

	if req.PHAdjustment != nil {
		adj := req.PHAdjustment.Normalize()
		phr, err := chem.LookupReagent(adj.Reagent)
		if err != nil || (!phr.IsAcid() && !phr.IsBase()) {
			return nil, fmt.Errorf("%w: pH adjustment reagent %q", core.ErrUnsupportedCoagulant, adj.Reagent)
		}
		in.phAdjust = &adj
		in.phReagent = phr
	}

	in.upperBound = svc.autoUpperBound(in, sulfideMgL, spec.Mode)
	return in, nil
}

// autoUpperBound scales the initial upper dose bound from stoichiometric
// demand; bracket repair extends it when chemistry disagrees.
func (svc *DoseService) autoUpperBound(in *resolved, sulfideMgL float64, mode redox.Mode) float64 {
	reactiveP := in.initialMol - in.nonReactive
	metalDemand := reactiveP * stoichDemandPerMolP
	if mode == redox.ModeAnaerobic || redox.IsReducing(in.pe) {
		metalDemand += chem.SulfurMolPerMg(sulfideMgL) * feDemandPerMolS
	}
	upper := metalDemand * in.tuning.InitialDoseMult / in.reagent.MetalPerMol
	return math.Max(upper, minUpperBoundMol)
}

func (svc *DoseService) buildResult(runID core.RunID, req Request, in *resolved, s *searcher, out *searchOutcome) *Result {
	mw, _ := chem.MolarMass(in.reagent.Formula)
	metalMol := out.dose * in.reagent.MetalPerMol

	breakdown := partition.Interpret(out.finalState, in.initialMol, in.nonReactive, metalMol,
		in.reagent.Metal, in.selection.Surface)
	if math.Abs(breakdown.MassBalanceErrorMol) > in.initialMol*0.05 {
		s.note("phosphorus mass balance error %.3g mol/L exceeds 5%% of the analysis", breakdown.MassBalanceErrorMol)
	}

	diag := RedoxDiagnostics{
		TargetPe:   in.pe,
		AchievedPe: out.finalState.Pe,
		TargetMV:   redox.PotentialMV(in.pe, req.Water.TemperatureC),
		AchievedMV: redox.PotentialMV(out.finalState.Pe, req.Water.TemperatureC),
	}
	if math.Abs(diag.AchievedPe-diag.TargetPe) > peDriftThreshold {
		diag.DriftWarning = true
		s.note("achieved pe %.2f drifted more than %.1f from target %.2f", diag.AchievedPe, peDriftThreshold, diag.TargetPe)
	}

	res := &Result{
		RunID:               runID,
		Status:              out.status,
		ComputedAt:          core.Now(),
		DoseMol:             out.dose,
		DoseMgL:             out.dose * mw * 1000.0,
		DoseMmolL:           out.dose * 1000.0,
		Coagulant:           in.reagent.Formula,
		MetalMolL:           metalMol,
		AchievedResidualMgL: out.residualMgL + chem.PhosphorusMgPerMol(in.nonReactive),
		TargetResidualMgL:   in.targetMgL,
		Iterations:          out.iterations,
		OracleCalls:         s.calls,
		Partitioning:        breakdown,
		MarginalRatio:       partition.Marginal(&s.path),
		Redox:               diag,
		Notes:               s.notes,
		Path:                &s.path,
	}
	if in.phAdjust != nil {
		res.CoReagent = in.phReagent.Formula
		res.CoReagentDoseMol = out.coDose
		res.FinalPH = out.finalPH
	}
	return res
}
