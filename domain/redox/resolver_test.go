package redox

import (
	"errors"
	"math"
	"testing"

	"coagdose/domain/chem"
	"coagdose/domain/core"
)

func TestResolve_PresetModes(t *testing.T) {
	cases := []struct {
		mode Mode
		want float64
	}{
		{ModeAerobic, 8.0},
		{ModeAnaerobic, -4.0},
		{"", 8.0}, // default is aerobic
	}
	for _, tc := range cases {
		pe, err := Resolve(Spec{Mode: tc.mode}, chem.MetalFe, 25)
		if err != nil {
			t.Errorf("Resolve(%q) unexpected error: %v", tc.mode, err)
			continue
		}
		if pe != tc.want {
			t.Errorf("Resolve(%q) = %g, want %g", tc.mode, pe, tc.want)
		}
	}
}

func TestResolve_DerivedNernst(t *testing.T) {
	// +200 mV vs SHE at 25 C: pe = 200 / 59.16 ~ 3.38
	spec := Spec{Mode: ModeDerived, MeasuredMV: 200, MeasuredMVSet: true, Reference: RefSHE}
	pe, err := Resolve(spec, chem.MetalFe, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(pe-3.38) > 0.01 {
		t.Errorf("pe = %g, want ~3.38", pe)
	}

	// Round trip back to millivolts within 1 mV.
	if mv := PotentialMV(pe, 25); math.Abs(mv-200) > 1 {
		t.Errorf("round trip %g mV != 200 mV", mv)
	}
}

func TestResolve_ReferenceOffsets(t *testing.T) {
	// A probe reading of 0 mV against each reference maps to the offset.
	cases := map[ReferenceElectrode]float64{
		RefSHE:       0,
		RefAgAgCl3M:  210,
		RefAgAgClSat: 199,
		RefSCE:       244,
	}
	for ref, offset := range cases {
		spec := Spec{Mode: ModeDerived, MeasuredMVSet: true, Reference: ref}
		pe, err := Resolve(spec, chem.MetalFe, 25)
		if err != nil {
			t.Fatalf("Resolve(%s) unexpected error: %v", ref, err)
		}
		if mv := PotentialMV(pe, 25); math.Abs(mv-offset) > 1e-9 {
			t.Errorf("reference %s: SHE potential %g mV, want %g", ref, mv, offset)
		}
	}
}

func TestResolve_MissingParameters(t *testing.T) {
	cases := []Spec{
		{Mode: ModeDerived},    // no measured mV
		{Mode: ModeFixed},      // no pe
		{Mode: ModeFixedRatio}, // no fraction
		{Mode: "sideways"},     // unknown mode
		{Mode: ModeDerived, MeasuredMVSet: true, Reference: "calomel-ish"}, // unknown electrode
	}
	for _, spec := range cases {
		_, err := Resolve(spec, chem.MetalFe, 25)
		if err == nil {
			t.Errorf("Resolve(%+v) should fail", spec)
			continue
		}
		if !errors.Is(err, core.ErrMissingRedoxParameter) {
			t.Errorf("Resolve(%+v) error %v is not ErrMissingRedoxParameter", spec, err)
		}
	}
}

func TestResolve_FixedRatio(t *testing.T) {
	// 50/50 Fe(II)/Fe(III) sits at the couple's standard potential.
	spec := Spec{Mode: ModeFixedRatio, ReducedFraction: 0.5, ReducedFractionSet: true}
	pe, err := Resolve(spec, chem.MetalFe, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(pe-13.0) > 1e-9 {
		t.Errorf("pe = %g, want 13", pe)
	}

	// Fractions at the extremes clamp instead of producing +-Inf.
	for _, f := range []float64{0, 1} {
		spec.ReducedFraction = f
		pe, err := Resolve(spec, chem.MetalFe, 25)
		if err != nil {
			t.Fatalf("unexpected error at fraction %g: %v", f, err)
		}
		if math.IsInf(pe, 0) || math.IsNaN(pe) {
			t.Errorf("fraction %g resolved to non-finite pe %g", f, pe)
		}
	}

	// Aluminum has no accessible couple.
	if _, err := Resolve(spec, chem.MetalAl, 25); err == nil {
		t.Error("fixed_ratio with Al should fail")
	}
}

func TestResolve_FixedPassthrough(t *testing.T) {
	pe, err := Resolve(Spec{Mode: ModeFixed, Pe: -2.5, PeSet: true}, chem.MetalFe, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pe != -2.5 {
		t.Errorf("pe = %g, want -2.5", pe)
	}
}

func TestIsReducing(t *testing.T) {
	if IsReducing(8) || IsReducing(0) {
		t.Error("non-negative pe misclassified as reducing")
	}
	if !IsReducing(-4) {
		t.Error("pe -4 should be reducing")
	}
}
