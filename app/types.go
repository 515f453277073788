package app

import (
	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/dose"
	"coagdose/domain/partition"
	"coagdose/domain/redox"
)

// Status is the machine-branchable outcome of a dosing calculation
type Status string

const (
	StatusSuccess    Status = "success"
	StatusBestEffort Status = "best_effort"
	StatusInputError Status = "input_error"
)

// Request defines one top-level dosing calculation: find the minimum
// coagulant dose driving dissolved phosphorus down to the target residual.
type Request struct {
	RunID core.RunID `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	Water          chem.Water         `json:"water" yaml:"water"`
	TargetResidual chem.Concentration `json:"target_residual" yaml:"target_residual"`
	Coagulant      string             `json:"coagulant" yaml:"coagulant"` // reagent formula, e.g. FeCl3

	Redox   *redox.Spec        `json:"redox,omitempty" yaml:"redox,omitempty"`
	Surface *dose.SurfaceSpec  `json:"surface,omitempty" yaml:"surface,omitempty"`
	Tuning  *dose.SearchTuning `json:"tuning,omitempty" yaml:"tuning,omitempty"`

	PHAdjustment *dose.PHAdjustment `json:"ph_adjustment,omitempty" yaml:"ph_adjustment,omitempty"`

	// SulfideSensitivity re-runs the whole calculation at several assumed
	// sulfide levels to bound iron demand under reducing conditions.
	SulfideSensitivity bool      `json:"sulfide_sensitivity,omitempty" yaml:"sulfide_sensitivity,omitempty"`
	SulfideLevelsMgL   []float64 `json:"sulfide_levels_mg_l,omitempty" yaml:"sulfide_levels_mg_l,omitempty"`

	// NonReactiveP is the phosphorus fraction unavailable to coagulation
	// (e.g. refractory organic P), excluded from the removal balance.
	NonReactiveP *chem.Concentration `json:"non_reactive_p,omitempty" yaml:"non_reactive_p,omitempty"`
}

// RedoxDiagnostics compares the requested electron activity against what
// the solver realized at the converged dose.
type RedoxDiagnostics struct {
	TargetPe     float64 `json:"target_pe"`
	AchievedPe   float64 `json:"achieved_pe"`
	TargetMV     float64 `json:"target_mv"`
	AchievedMV   float64 `json:"achieved_mv"`
	DriftWarning bool    `json:"drift_warning"`
}

// Result is the structured outcome of one dosing calculation
type Result struct {
	RunID      core.RunID     `json:"run_id"`
	Status     Status         `json:"status"`
	ComputedAt core.Timestamp `json:"computed_at"`

	DoseMol   float64 `json:"dose_mol"`    // mol reagent / L
	DoseMgL   float64 `json:"dose_mg_l"`   // mg reagent / L
	DoseMmolL float64 `json:"dose_mmol_l"` // convenience
	Coagulant string  `json:"coagulant"`
	MetalMolL float64 `json:"metal_mol_l"` // mol metal / L delivered

	AchievedResidualMgL float64 `json:"achieved_residual_mg_l"`
	TargetResidualMgL   float64 `json:"target_residual_mg_l"`

	Iterations  int `json:"iterations"`
	OracleCalls int `json:"oracle_calls"`

	CoReagent        string  `json:"co_reagent,omitempty"`
	CoReagentDoseMol float64 `json:"co_reagent_dose_mol,omitempty"`
	FinalPH          float64 `json:"final_ph,omitempty"`

	Partitioning  partition.Breakdown     `json:"partitioning"`
	MarginalRatio partition.MarginalRatio `json:"marginal_ratio"`
	Redox         RedoxDiagnostics        `json:"redox"`

	Notes []string   `json:"notes,omitempty"`
	Path  *dose.Path `json:"path,omitempty"`

	Sensitivity *SensitivityResult `json:"sensitivity,omitempty"`
}

// SensitivityLevel is one independent dose calculation at an assumed
// sulfide concentration.
type SensitivityLevel struct {
	SulfideMgL   float64 `json:"sulfide_mg_l"`
	DoseMol      float64 `json:"dose_mol"`
	DoseMgL      float64 `json:"dose_mg_l"`
	MolFePerMolP float64 `json:"mol_fe_per_mol_p"`
	Status       Status  `json:"status"`
	Caution      bool    `json:"caution"`
	Err          string  `json:"error,omitempty"`
}

// SensitivityResult aggregates the per-level runs into a recommendation
type SensitivityResult struct {
	Levels         []SensitivityLevel `json:"levels"`
	MeanRatio      float64            `json:"mean_ratio"`
	MaxRatio       float64            `json:"max_ratio"`
	Recommendation string             `json:"recommendation"`
}

// SweepPoint is one fixed-dose evaluation in a dose-response sweep
type SweepPoint struct {
	DoseMol        float64             `json:"dose_mol"`
	ResidualMgL    float64             `json:"residual_mg_l"`
	PH             float64             `json:"ph"`
	Partitioning   partition.Breakdown `json:"partitioning"`
	PositivePhases []string            `json:"positive_phases,omitempty"`
	PhaseSwitch    bool                `json:"phase_switch"`
	Failed         bool                `json:"failed"`
}
