package chem

import (
	"fmt"
)

// Water represents one water sample analysis: element/species concentrations
// plus solution conditions. Inputs are treated as immutable; derived
// scenarios clone first and mutate the clone.
type Water struct {
	// Analysis maps element or species names (solver vocabulary: "P",
	// "Fe(2)", "S(-2)", "Ca", "Alkalinity", ...) to concentrations.
	Analysis map[string]Concentration `json:"analysis" yaml:"analysis"`

	PH           float64 `json:"ph" yaml:"ph"`
	TemperatureC float64 `json:"temperature_c" yaml:"temperature_c"`
	PressureAtm  float64 `json:"pressure_atm,omitempty" yaml:"pressure_atm,omitempty"`
}

// Clone deep-copies the water so derived scenarios cannot alias the input
func (w Water) Clone() Water {
	out := w
	out.Analysis = make(map[string]Concentration, len(w.Analysis))
	for k, v := range w.Analysis {
		out.Analysis[k] = v
	}
	return out
}

// Set replaces one analysis entry on a clone-derived water
func (w *Water) Set(name string, c Concentration) {
	if w.Analysis == nil {
		w.Analysis = make(map[string]Concentration)
	}
	w.Analysis[name] = c
}

// Concentration returns the analysis entry for name, zero if absent
func (w Water) Concentration(name string) (Concentration, bool) {
	c, ok := w.Analysis[name]
	return c, ok
}

// MolarOf returns the molar concentration [mol/L] of one analysis entry,
// converting through the entry's own unit. Absent entries are zero.
func (w Water) MolarOf(name string) (float64, error) {
	c, ok := w.Analysis[name]
	if !ok {
		return 0, nil
	}
	mol, err := c.MolPerL(name)
	if err != nil {
		return 0, fmt.Errorf("analysis entry %s: %w", name, err)
	}
	return mol, nil
}

// MolarP returns total phosphorus [mol/L]
func (w Water) MolarP() (float64, error) {
	return w.MolarOf("P")
}

// SulfideMgL returns dissolved sulfide [mg/L as S], zero when absent
func (w Water) SulfideMgL() (float64, error) {
	c, ok := w.Analysis["S(-2)"]
	if !ok {
		return 0, nil
	}
	mol, err := c.MolPerL("S(-2)")
	if err != nil {
		return 0, err
	}
	return mol * mwS * 1000.0, nil
}

// HasSulfide reports whether the analysis carries a sulfide entry at all,
// which is distinct from sulfide measured as zero.
func (w Water) HasSulfide() bool {
	_, ok := w.Analysis["S(-2)"]
	return ok
}

// Validate checks solution conditions are physically sensible
func (w Water) Validate() error {
	if w.PH <= 0 || w.PH >= 14 {
		return fmt.Errorf("pH %.2f outside (0, 14)", w.PH)
	}
	if w.TemperatureC < 0 || w.TemperatureC > 100 {
		return fmt.Errorf("temperature %.1f C outside liquid range", w.TemperatureC)
	}
	for name, c := range w.Analysis {
		if c.Value < 0 {
			return fmt.Errorf("negative concentration for %s", name)
		}
	}
	return nil
}
