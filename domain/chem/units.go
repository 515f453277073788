package chem

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit represents a concentration unit system
type Unit string

const (
	UnitMgL        Unit = "mg/L"
	UnitUgL        Unit = "ug/L"
	UnitGL         Unit = "g/L"
	UnitMmolL      Unit = "mmol/L"
	UnitMolL       Unit = "mol/L"
	UnitMeqL       Unit = "meq/L"
	UnitMgLAsCaCO3 Unit = "mg/L as CaCO3"
	UnitMgLAsP     Unit = "mg/L as P"
	UnitMgLAsN     Unit = "mg/L as N"
	UnitMgLAsS     Unit = "mg/L as S"
)

// unitAliases is the fixed alias table replacing ad hoc string matching.
// Keys are lowercased, whitespace-collapsed input spellings.
var unitAliases = map[string]Unit{
	"mg/l":          UnitMgL,
	"mg/liter":      UnitMgL,
	"ppm":           UnitMgL,
	"ug/l":          UnitUgL,
	"µg/l":          UnitUgL,
	"ppb":           UnitUgL,
	"g/l":           UnitGL,
	"mmol/l":        UnitMmolL,
	"mm":            UnitMmolL,
	"mol/l":         UnitMolL,
	"m":             UnitMolL,
	"molar":         UnitMolL,
	"meq/l":         UnitMeqL,
	"mg/l as caco3": UnitMgLAsCaCO3,
	"mg/l caco3":    UnitMgLAsCaCO3,
	"as caco3":      UnitMgLAsCaCO3,
	"mg/l as p":     UnitMgLAsP,
	"mg/l as n":     UnitMgLAsN,
	"mg/l as s":     UnitMgLAsS,
}

// ParseError represents a typed concentration/unit parse failure
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// ParseUnit resolves a unit spelling through the alias table
func ParseUnit(s string) (Unit, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if u, ok := unitAliases[key]; ok {
		return u, nil
	}
	return "", &ParseError{Input: s, Reason: "unknown unit"}
}

// Concentration is a value tagged with its unit and optional expression basis
// (e.g. alkalinity expressed as CaCO3).
type Concentration struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  Unit    `json:"unit" yaml:"unit"`
}

// ParseConcentration parses composite concentration fields such as
// "120 mg/L", "as CaCO3 120", "5 mg/L as P" or a bare number (defaults to
// mg/L). It returns a typed ParseError instead of guessing.
func ParseConcentration(s string) (Concentration, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return Concentration{}, &ParseError{Input: s, Reason: "empty"}
	}

	// Split fields into one numeric token and the unit spelling around it.
	var value float64
	var unitFields []string
	found := false
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err == nil && !found {
			value = v
			found = true
			continue
		}
		unitFields = append(unitFields, f)
	}
	if !found {
		return Concentration{}, &ParseError{Input: s, Reason: "no numeric value"}
	}
	if len(unitFields) == 0 {
		return Concentration{Value: value, Unit: UnitMgL}, nil
	}
	u, err := ParseUnit(strings.Join(unitFields, " "))
	if err != nil {
		return Concentration{}, &ParseError{Input: s, Reason: "unknown unit " + strings.Join(unitFields, " ")}
	}
	return Concentration{Value: value, Unit: u}, nil
}

// MolPerL converts the concentration to mol/L for the given species formula.
// Unit bases expressed as another species (CaCO3, P, N, S) convert through
// that basis' formula weight; equivalents assume the species' charge.
func (c Concentration) MolPerL(formula string) (float64, error) {
	switch c.Unit {
	case UnitMolL:
		return c.Value, nil
	case UnitMmolL:
		return c.Value / 1000.0, nil
	case UnitMgL:
		mw, err := MolarMass(formula)
		if err != nil {
			return 0, err
		}
		return c.Value / 1000.0 / mw, nil
	case UnitUgL:
		mw, err := MolarMass(formula)
		if err != nil {
			return 0, err
		}
		return c.Value / 1e6 / mw, nil
	case UnitGL:
		mw, err := MolarMass(formula)
		if err != nil {
			return 0, err
		}
		return c.Value / mw, nil
	case UnitMgLAsCaCO3:
		// Equivalent basis: mg/L as CaCO3 / 50.04 = meq/L
		eq, err := Equivalents(formula)
		if err != nil {
			return 0, err
		}
		return c.Value / (mwCaCO3 / 2.0) / 1000.0 / eq, nil
	case UnitMgLAsP:
		return c.Value / 1000.0 / mwP, nil
	case UnitMgLAsN:
		return c.Value / 1000.0 / mwN, nil
	case UnitMgLAsS:
		return c.Value / 1000.0 / mwS, nil
	case UnitMeqL:
		eq, err := Equivalents(formula)
		if err != nil {
			return 0, err
		}
		return c.Value / 1000.0 / eq, nil
	default:
		return 0, &ParseError{Input: string(c.Unit), Reason: "unknown unit"}
	}
}

// MgPerL converts the concentration to mg/L of the given species formula
func (c Concentration) MgPerL(formula string) (float64, error) {
	mol, err := c.MolPerL(formula)
	if err != nil {
		return 0, err
	}
	mw, err := MolarMass(formula)
	if err != nil {
		return 0, err
	}
	return mol * mw * 1000.0, nil
}

// MgL is a convenience constructor
func MgL(v float64) Concentration { return Concentration{Value: v, Unit: UnitMgL} }

// MolL is a convenience constructor
func MolL(v float64) Concentration { return Concentration{Value: v, Unit: UnitMolL} }

// MgLAsP is a convenience constructor for phosphorus targets
func MgLAsP(v float64) Concentration { return Concentration{Value: v, Unit: UnitMgLAsP} }
