// Package phases decides which candidate precipitate phases and which
// adsorption substrate apply to a given coagulant metal, redox mode and
// sulfide level. The final authority on what actually forms is the
// equilibrium solver; this package only assembles the candidate set.
package phases

import (
	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/redox"
)

// Phase names follow the wateq4f/minteq database vocabulary
type Phase string

const (
	PhaseFerrihydrite Phase = "Fe(OH)3(a)"
	PhaseStrengite    Phase = "Strengite"
	PhaseVivianite    Phase = "Vivianite"
	PhaseFeSPpt       Phase = "FeS(ppt)"
	PhaseSiderite     Phase = "Siderite"
	PhaseFeOH2        Phase = "Fe(OH)2"
	PhaseAlOH3        Phase = "Al(OH)3(a)"
	PhaseCalcite      Phase = "Calcite"
)

// Stoich gives phosphorus and metal atoms per formula unit of a phase
type Stoich struct {
	P     int
	Metal int
}

// stoichTable is read-only after init. Vivianite is Fe3(PO4)2:8H2O,
// strengite FePO4:2H2O.
var stoichTable = map[Phase]Stoich{
	PhaseFerrihydrite: {P: 0, Metal: 1},
	PhaseStrengite:    {P: 1, Metal: 1},
	PhaseVivianite:    {P: 2, Metal: 3},
	PhaseFeSPpt:       {P: 0, Metal: 1},
	PhaseSiderite:     {P: 0, Metal: 1},
	PhaseFeOH2:        {P: 0, Metal: 1},
	PhaseAlOH3:        {P: 0, Metal: 1},
	PhaseCalcite:      {P: 0, Metal: 0},
}

// Stoichiometry returns P/metal atoms per formula unit for a known phase
func Stoichiometry(p Phase) (Stoich, bool) {
	s, ok := stoichTable[p]
	return s, ok
}

// Surface site names for the hydroxide adsorption substrates
const (
	SurfaceHfo = "Hfo" // hydrous ferric oxide
	SurfaceAho = "Aho" // amorphous aluminum hydroxide
)

// Sulfide below this level [mg/L as S] does not justify carrying the
// metal-sulfide phase.
const SulfideThresholdMgL = 0.1

// DatabaseCapabilities is the set of phases the loaded thermodynamic
// database actually defines.
type DatabaseCapabilities map[Phase]bool

// DefaultCapabilities matches the wateq4f database shipped with the solver
func DefaultCapabilities() DatabaseCapabilities {
	return DatabaseCapabilities{
		PhaseFerrihydrite: true,
		PhaseStrengite:    true,
		PhaseVivianite:    true,
		PhaseFeSPpt:       true,
		PhaseSiderite:     true,
		PhaseFeOH2:        true,
		PhaseAlOH3:        true,
		PhaseCalcite:      true,
	}
}

// Selection is the phase set and adsorption substrate for one dosing run
type Selection struct {
	Phases    []Phase
	Substrate Phase  // hydroxide phase carrying the surface
	Surface   string // surface site name coupled to the substrate

	// AdsorptionOnly is set when the metal has no direct phosphate phase
	// in the supported set (aluminum): removal happens by surface
	// complexation only, and the caller must surface that limitation.
	AdsorptionOnly bool
	Note           string
}

// Select assembles the candidate phase list for a metal, redox mode and
// sulfide level.
//
// For derived/fixed/fixed-ratio modes the nominal label says nothing about
// which side of the couple is stable, so both the oxidized and reduced
// phase sets go in and the solver's equilibrium decides.
func Select(metal chem.Metal, mode redox.Mode, sulfideMgL float64, caps DatabaseCapabilities) (Selection, error) {
	if caps == nil {
		caps = DefaultCapabilities()
	}

	switch metal {
	case chem.MetalFe:
		sel := Selection{Substrate: PhaseFerrihydrite, Surface: SurfaceHfo}
		add := func(p Phase) {
			if caps[p] {
				sel.Phases = append(sel.Phases, p)
			}
		}
		add(PhaseFerrihydrite)
		oxidized := func() { add(PhaseStrengite) }
		reduced := func() {
			add(PhaseVivianite)
			add(PhaseSiderite)
			add(PhaseFeOH2)
			if sulfideMgL >= SulfideThresholdMgL {
				add(PhaseFeSPpt)
			}
		}
		switch mode {
		case redox.ModeAerobic, "":
			oxidized()
		case redox.ModeAnaerobic:
			reduced()
		default:
			// pe not cleanly aerobic or anaerobic: include the union and
			// let equilibrium pick the stable side.
			oxidized()
			reduced()
		}
		if !caps[PhaseFerrihydrite] {
			return Selection{}, core.NewUnsupportedPhaseError(string(metal), string(PhaseFerrihydrite))
		}
		return sel, nil

	case chem.MetalAl:
		if !caps[PhaseAlOH3] {
			return Selection{}, core.NewUnsupportedPhaseError(string(metal), string(PhaseAlOH3))
		}
		return Selection{
			Phases:         []Phase{PhaseAlOH3},
			Substrate:      PhaseAlOH3,
			Surface:        SurfaceAho,
			AdsorptionOnly: true,
			Note: "no direct aluminum-phosphate phase in the supported database: " +
				"phosphorus removal is by adsorption onto Al(OH)3 only",
		}, nil

	default:
		return Selection{}, core.NewUnsupportedPhaseError(string(metal), "any")
	}
}

// RequireDirectPhosphate errors when the caller explicitly demands a direct
// metal-phosphate precipitate the database cannot provide.
func RequireDirectPhosphate(metal chem.Metal) error {
	if metal == chem.MetalAl {
		return core.NewUnsupportedPhaseError(string(metal), "AlPO4")
	}
	return nil
}

// Names converts a phase list to plain strings for solver input
func Names(ps []Phase) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
