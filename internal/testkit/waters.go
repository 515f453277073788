package testkit

import (
	"coagdose/domain/chem"
)

// SecondaryEffluent returns a typical aerated secondary effluent with
// 5 mg/L total phosphorus.
func SecondaryEffluent() chem.Water {
	return chem.Water{
		Analysis: map[string]chem.Concentration{
			"P":          chem.MgLAsP(5.0),
			"Ca":         chem.MgL(60),
			"Mg":         chem.MgL(15),
			"Na":         chem.MgL(90),
			"Cl":         chem.MgL(120),
			"SO4":        chem.MgL(80),
			"Alkalinity": {Value: 180, Unit: chem.UnitMgLAsCaCO3},
		},
		PH:           7.2,
		TemperatureC: 20,
	}
}

// DigesterSupernatant returns an anaerobic digester supernatant with high
// phosphorus and measurable sulfide.
func DigesterSupernatant() chem.Water {
	return chem.Water{
		Analysis: map[string]chem.Concentration{
			"P":          chem.MgLAsP(60.0),
			"S(-2)":      {Value: 8, Unit: chem.UnitMgLAsS},
			"N(-3)":      {Value: 900, Unit: chem.UnitMgLAsN},
			"Ca":         chem.MgL(80),
			"Alkalinity": {Value: 2500, Unit: chem.UnitMgLAsCaCO3},
		},
		PH:           7.4,
		TemperatureC: 35,
	}
}

// AnaerobicNoSulfide returns a reducing water whose analysis carries no
// sulfide entry at all.
func AnaerobicNoSulfide() chem.Water {
	w := DigesterSupernatant()
	delete(w.Analysis, "S(-2)")
	return w
}
