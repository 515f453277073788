// Package phreeqc adapts the PHREEQC geochemical solver, run as a
// subprocess, to the EquilibriumPort: it renders a dosing scenario into
// PHREEQC's input syntax, executes the binary, and parses the selected
// output back into an equilibrium result.
package phreeqc

import (
	"fmt"
	"sort"
	"strings"

	"coagdose/domain/dose"
)

// selectedFile is the per-run selected-output file name, relative to the
// run's working directory.
const selectedFile = "selected.tsv"

// punchElements is the fixed element-total column set of the USER_PUNCH
// block. The parser depends on this order.
var punchElements = []string{"P", "Fe", "Al", "S(-2)", "S(6)", "Ca", "Na", "Cl", "C"}

// Render translates one scenario into a PHREEQC input script. The scenario
// fully determines the script; identical scenarios render identically.
func Render(s dose.Scenario) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TITLE coagdose scenario %s\n\n", s.Fingerprint().Short())

	renderSolution(&b, s)
	renderReaction(&b, s)
	renderPhases(&b, s)
	renderSurface(&b, s)
	renderOutput(&b, s)

	b.WriteString("END\n")
	return b.String()
}

func renderSolution(b *strings.Builder, s dose.Scenario) {
	b.WriteString("SOLUTION 1\n")
	fmt.Fprintf(b, "    temp      %.2f\n", s.Water.TemperatureC)
	fmt.Fprintf(b, "    pH        %.3f\n", s.Water.PH)
	if s.PeFixed {
		fmt.Fprintf(b, "    pe        %.3f\n", s.Pe)
	}
	b.WriteString("    units     mol/kgw\n")

	// Deterministic ordering keeps renders byte-identical per scenario.
	names := make([]string, 0, len(s.Water.Analysis))
	for name := range s.Water.Analysis {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mol, err := s.Water.MolarOf(name)
		if err != nil || mol <= 0 {
			continue
		}
		if name == "Alkalinity" {
			// Alkalinity stays on its equivalence basis.
			fmt.Fprintf(b, "    Alkalinity %.6e\n", mol)
			continue
		}
		fmt.Fprintf(b, "    %-10s %.6e\n", name, mol)
	}
	b.WriteString("\n")
}

func renderReaction(b *strings.Builder, s dose.Scenario) {
	if s.AmountMol <= 0 && (s.CoReagent == nil || s.CoAmountMol <= 0) {
		return
	}
	b.WriteString("REACTION 1\n")
	if s.AmountMol > 0 {
		fmt.Fprintf(b, "    %s %.6e\n", s.Reagent.Formula, s.AmountMol)
	}
	if s.CoReagent != nil && s.CoAmountMol > 0 {
		fmt.Fprintf(b, "    %s %.6e\n", s.CoReagent.Formula, s.CoAmountMol)
	}
	b.WriteString("    1.0 moles\n\n")
}

func renderPhases(b *strings.Builder, s dose.Scenario) {
	if len(s.Phases) == 0 {
		return
	}
	b.WriteString("EQUILIBRIUM_PHASES 1\n")
	for _, p := range s.Phases {
		fmt.Fprintf(b, "    %-14s 0.0 0.0\n", string(p))
	}
	b.WriteString("\n")
}

func renderSurface(b *strings.Builder, s dose.Scenario) {
	if s.Surface == nil || s.SurfaceSite == "" {
		return
	}
	substrate := substratePhase(s)
	b.WriteString("SURFACE 1\n")
	fmt.Fprintf(b, "    %s_sOH %s equilibrium_phase %.4g %.4g\n",
		s.SurfaceSite, substrate, s.Surface.SiteDensityStrong, s.Surface.SpecificAreaM2G)
	fmt.Fprintf(b, "    %s_wOH %s equilibrium_phase %.4g\n",
		s.SurfaceSite, substrate, s.Surface.SiteDensityWeak)
	b.WriteString("    -equilibrate with solution 1\n\n")
}

func renderOutput(b *strings.Builder, s dose.Scenario) {
	b.WriteString("SELECTED_OUTPUT 1\n")
	fmt.Fprintf(b, "    -file %s\n", selectedFile)
	b.WriteString("    -reset false\n\n")

	b.WriteString("USER_PUNCH 1\n")
	headings := []string{"pH", "pe", "mu"}
	for _, el := range punchElements {
		headings = append(headings, "tot_"+el)
	}
	for _, p := range s.Phases {
		headings = append(headings, "equi_"+string(p))
	}
	if s.SurfaceSite != "" {
		headings = append(headings, "surf_P", "surf_"+metalElement(s))
	}
	fmt.Fprintf(b, "    -headings %s\n", strings.Join(headings, "\t"))
	b.WriteString("    -start\n")
	line := 10
	punch := func(expr string) {
		fmt.Fprintf(b, "    %d PUNCH %s\n", line, expr)
		line += 10
	}
	punch("-LA(\"H+\")")
	punch("-LA(\"e-\")")
	punch("MU")
	for _, el := range punchElements {
		punch(fmt.Sprintf("TOT(%q)", el))
	}
	for _, p := range s.Phases {
		punch(fmt.Sprintf("EQUI(%q)", string(p)))
	}
	if s.SurfaceSite != "" {
		punch(fmt.Sprintf("SURF(\"P\",%q)", s.SurfaceSite))
		punch(fmt.Sprintf("SURF(%q,%q)", metalElement(s), s.SurfaceSite))
	}
	b.WriteString("    -end\n\n")
}

func substratePhase(s dose.Scenario) string {
	if strings.HasPrefix(s.SurfaceSite, "Aho") {
		return "Al(OH)3(a)"
	}
	return "Fe(OH)3(a)"
}

func metalElement(s dose.Scenario) string {
	return string(s.Reagent.Metal)
}
