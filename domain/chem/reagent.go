package chem

import (
	"fmt"
)

// Metal identifies the coagulant metal
type Metal string

const (
	MetalFe Metal = "Fe"
	MetalAl Metal = "Al"
)

// ReagentKind classifies how a reagent moves the system
type ReagentKind string

const (
	ReagentCoagulant ReagentKind = "coagulant"
	ReagentAcid      ReagentKind = "acid"
	ReagentBase      ReagentKind = "base"
)

// Reagent represents a dosable chemical: a coagulant or a pH-adjustment
// acid/base.
type Reagent struct {
	Formula string      `json:"formula" yaml:"formula"`
	Kind    ReagentKind `json:"kind" yaml:"kind"`
	Metal   Metal       `json:"metal,omitempty" yaml:"metal,omitempty"`
	// MetalPerMol is mol of metal delivered per mol of formula unit
	MetalPerMol float64 `json:"metal_per_mol,omitempty" yaml:"metal_per_mol,omitempty"`
	// OxidizedMetal is true when the metal is dosed in its oxidized state
	// (Fe(III), Al(III)) rather than reduced (Fe(II))
	OxidizedMetal bool `json:"oxidized_metal,omitempty" yaml:"oxidized_metal,omitempty"`
}

// IsAcid reports whether the reagent lowers pH
func (r Reagent) IsAcid() bool { return r.Kind == ReagentAcid }

// IsBase reports whether the reagent raises pH
func (r Reagent) IsBase() bool { return r.Kind == ReagentBase }

// knownReagents is the supported reagent catalog
var knownReagents = map[string]Reagent{
	"FeCl3":           {Formula: "FeCl3", Kind: ReagentCoagulant, Metal: MetalFe, MetalPerMol: 1, OxidizedMetal: true},
	"Fe2(SO4)3":       {Formula: "Fe2(SO4)3", Kind: ReagentCoagulant, Metal: MetalFe, MetalPerMol: 2, OxidizedMetal: true},
	"FeCl2":           {Formula: "FeCl2", Kind: ReagentCoagulant, Metal: MetalFe, MetalPerMol: 1},
	"FeSO4":           {Formula: "FeSO4", Kind: ReagentCoagulant, Metal: MetalFe, MetalPerMol: 1},
	"AlCl3":           {Formula: "AlCl3", Kind: ReagentCoagulant, Metal: MetalAl, MetalPerMol: 1, OxidizedMetal: true},
	"Al2(SO4)3":       {Formula: "Al2(SO4)3", Kind: ReagentCoagulant, Metal: MetalAl, MetalPerMol: 2, OxidizedMetal: true},
	"Al2(SO4)3:14H2O": {Formula: "Al2(SO4)3:14H2O", Kind: ReagentCoagulant, Metal: MetalAl, MetalPerMol: 2, OxidizedMetal: true},
	"NaOH":            {Formula: "NaOH", Kind: ReagentBase},
	"Ca(OH)2":         {Formula: "Ca(OH)2", Kind: ReagentBase},
	"Na2CO3":          {Formula: "Na2CO3", Kind: ReagentBase},
	"H2SO4":           {Formula: "H2SO4", Kind: ReagentAcid},
	"HCl":             {Formula: "HCl", Kind: ReagentAcid},
}

// LookupReagent resolves a reagent formula against the supported catalog
func LookupReagent(formula string) (Reagent, error) {
	if r, ok := knownReagents[formula]; ok {
		return r, nil
	}
	return Reagent{}, fmt.Errorf("unknown reagent %q", formula)
}
