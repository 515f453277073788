package chem

import (
	"fmt"
)

// Base atomic weights used across conversions [g/mol]
const (
	mwP  = 30.974
	mwFe = 55.845
	mwAl = 26.982
	mwS  = 32.065
	mwN  = 14.007
	mwCa = 40.078
	mwMg = 24.305
	mwNa = 22.990
	mwK  = 39.098
	mwCl = 35.453
	mwC  = 12.011
	mwO  = 15.999
	mwH  = 1.008

	mwCaCO3 = 100.087
)

// molarMasses is the read-only formula weight table, populated once at
// package init. Keys include both element totals (as the solver reports
// them) and reagent formulas.
var molarMasses map[string]float64

// equivalents maps formulas to equivalents per mole for meq/L and
// as-CaCO3 conversions.
var equivalents = map[string]float64{
	"Ca":         2,
	"Mg":         2,
	"Na":         1,
	"K":          1,
	"Cl":         1,
	"SO4":        2,
	"HCO3":       1,
	"CO3":        2,
	"Alkalinity": 1,
	"NH4":        1,
	"NO3":        1,
	"PO4":        3,
	"Fe":         3,
	"Al":         3,
}

func init() {
	molarMasses = map[string]float64{
		// Elements / solver totals
		"P":  mwP,
		"Fe": mwFe,
		"Al": mwAl,
		"S":  mwS,
		"N":  mwN,
		"Ca": mwCa,
		"Mg": mwMg,
		"Na": mwNa,
		"K":  mwK,
		"Cl": mwCl,
		"C":  mwC,

		// Redox-state totals use the element weight
		"S(6)":  mwS,
		"S(-2)": mwS,
		"N(5)":  mwN,
		"N(-3)": mwN,
		"Fe(2)": mwFe,
		"Fe(3)": mwFe,

		// Common species
		"PO4":        mwP + 4*mwO,
		"P2O5":       2*mwP + 5*mwO,
		"SO4":        mwS + 4*mwO,
		"NH3":        mwN + 3*mwH,
		"NH4":        mwN + 4*mwH,
		"NO3":        mwN + 3*mwO,
		"HCO3":       mwH + mwC + 3*mwO,
		"CO3":        mwC + 3*mwO,
		"HS":         mwH + mwS,
		"H2S":        2*mwH + mwS,
		"CaCO3":      mwCaCO3,
		"Alkalinity": mwCaCO3, // alkalinity carried on the CaCO3 basis

		// Coagulants
		"FeCl3":           mwFe + 3*mwCl,
		"FeCl2":           mwFe + 2*mwCl,
		"FeSO4":           mwFe + mwS + 4*mwO,
		"Fe2(SO4)3":       2*mwFe + 3*(mwS+4*mwO),
		"AlCl3":           mwAl + 3*mwCl,
		"Al2(SO4)3":       2*mwAl + 3*(mwS+4*mwO),
		"Al2(SO4)3:14H2O": 2*mwAl + 3*(mwS+4*mwO) + 14*(2*mwH+mwO),

		// pH adjustment reagents
		"NaOH":    mwNa + mwO + mwH,
		"Ca(OH)2": mwCa + 2*(mwO+mwH),
		"Na2CO3":  2*mwNa + mwC + 3*mwO,
		"H2SO4":   2*mwH + mwS + 4*mwO,
		"HCl":     mwH + mwCl,
	}
}

// MolarMass returns the formula weight [g/mol] for a known formula
func MolarMass(formula string) (float64, error) {
	if mw, ok := molarMasses[formula]; ok {
		return mw, nil
	}
	return 0, fmt.Errorf("no molecular weight for formula %q", formula)
}

// Equivalents returns equivalents per mole for a known formula
func Equivalents(formula string) (float64, error) {
	if eq, ok := equivalents[formula]; ok {
		return eq, nil
	}
	return 0, fmt.Errorf("no equivalent weight for formula %q", formula)
}

// PhosphorusMgPerMol converts mol/L of P to mg/L as P
func PhosphorusMgPerMol(mol float64) float64 {
	return mol * mwP * 1000.0
}

// PhosphorusMolPerMg converts mg/L as P to mol/L
func PhosphorusMolPerMg(mg float64) float64 {
	return mg / 1000.0 / mwP
}

// SulfurMolPerMg converts mg/L as S to mol/L
func SulfurMolPerMg(mg float64) float64 {
	return mg / 1000.0 / mwS
}
