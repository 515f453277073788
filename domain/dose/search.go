package dose

// SearchTuning holds the binary-search knobs, resolved once per request
type SearchTuning struct {
	MaxIterations   int     `json:"max_iterations" yaml:"max_iterations"`
	ToleranceMgL    float64 `json:"tolerance_mg_l" yaml:"tolerance_mg_l"`
	ExpansionFactor float64 `json:"expansion_factor" yaml:"expansion_factor"`
	MaxExpansions   int     `json:"max_expansions" yaml:"max_expansions"`
	InitialDoseMult float64 `json:"initial_dose_multiplier" yaml:"initial_dose_multiplier"`
	MinBracketWidth float64 `json:"min_bracket_width_mol" yaml:"min_bracket_width_mol"` // mol/L
}

// DefaultSearchTuning returns the production defaults
func DefaultSearchTuning() SearchTuning {
	return SearchTuning{
		MaxIterations:   25,
		ToleranceMgL:    0.01,
		ExpansionFactor: 3.0,
		MaxExpansions:   5,
		InitialDoseMult: 1.5,
		MinBracketWidth: 1e-6, // 0.001 mmol/L
	}
}

// Normalize fills zero fields with defaults so partial tuning is usable
func (t SearchTuning) Normalize() SearchTuning {
	d := DefaultSearchTuning()
	if t.MaxIterations <= 0 {
		t.MaxIterations = d.MaxIterations
	}
	if t.ToleranceMgL <= 0 {
		t.ToleranceMgL = d.ToleranceMgL
	}
	if t.ExpansionFactor <= 1 {
		t.ExpansionFactor = d.ExpansionFactor
	}
	if t.MaxExpansions <= 0 {
		t.MaxExpansions = d.MaxExpansions
	}
	if t.InitialDoseMult <= 0 {
		t.InitialDoseMult = d.InitialDoseMult
	}
	if t.MinBracketWidth <= 0 {
		t.MinBracketWidth = d.MinBracketWidth
	}
	return t
}

// PHAdjustment configures the nested acid/base sub-search
type PHAdjustment struct {
	Reagent       string  `json:"reagent" yaml:"reagent"` // formula, e.g. NaOH
	TargetPH      float64 `json:"target_ph" yaml:"target_ph"`
	Tolerance     float64 `json:"tolerance" yaml:"tolerance"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	// MaxDoseMol is a hard cap on co-reagent addition [mol/L]; the
	// sub-search never doses past it.
	MaxDoseMol float64 `json:"max_dose_mol" yaml:"max_dose_mol"`
}

// Normalize fills zero fields with defaults
func (p PHAdjustment) Normalize() PHAdjustment {
	if p.Tolerance <= 0 {
		p.Tolerance = 0.1
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = 15
	}
	if p.MaxDoseMol <= 0 {
		p.MaxDoseMol = 0.05
	}
	return p
}

// Bracket is the current dose search interval with the residuals observed
// at its bounds. The desired invariant after initialization is
// LowResidual >= target >= HighResidual; phase switching can break it
// locally, which the engine tolerates by tracking best-so-far.
type Bracket struct {
	Low          float64
	High         float64
	LowResidual  float64
	HighResidual float64
}

// Width returns the dose interval width
func (b Bracket) Width() float64 { return b.High - b.Low }

// Mid returns the midpoint dose
func (b Bracket) Mid() float64 { return (b.Low + b.High) / 2.0 }

// SampleKind tags why a sample was taken
type SampleKind string

const (
	SampleBoundLow  SampleKind = "bound_low"
	SampleBoundHigh SampleKind = "bound_high"
	SampleExpansion SampleKind = "expansion"
	SampleBisect    SampleKind = "bisect"
)

// Sample is one (dose, residual) observation in the optimization path
type Sample struct {
	Dose     float64    `json:"dose_mol"`
	Residual float64    `json:"residual_mg_l"`
	Kind     SampleKind `json:"kind"`
	CoDose   float64    `json:"co_dose_mol,omitempty"`
	OK       bool       `json:"ok"` // false when the solver failed at this dose
}

// Path is the ordered, append-only log of every sample taken during one
// search. It exists for diagnostics and the marginal-ratio calculation and
// is discarded with the result.
type Path struct {
	Samples []Sample `json:"samples"`
}

// Append records a sample; the path only ever grows
func (p *Path) Append(s Sample) {
	p.Samples = append(p.Samples, s)
}

// OracleCalls counts all samples including failed ones
func (p *Path) OracleCalls() int { return len(p.Samples) }

// LastValidPair returns the last two successful bisection samples ordered
// by ascending dose, for the marginal-ratio calculation. Bound checks and
// expansions are excluded: they probe the bracket, not the local slope.
func (p *Path) LastValidPair() (Sample, Sample, bool) {
	var picked []Sample
	for i := len(p.Samples) - 1; i >= 0 && len(picked) < 2; i-- {
		s := p.Samples[i]
		if s.Kind == SampleBisect && s.OK {
			picked = append(picked, s)
		}
	}
	if len(picked) < 2 {
		return Sample{}, Sample{}, false
	}
	a, b := picked[1], picked[0] // reverse iteration order
	if a.Dose > b.Dose {
		a, b = b, a
	}
	return a, b, true
}
