package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/redox"
	"coagdose/internal/testkit"
)

func TestSweep_DoseResponse(t *testing.T) {
	svc := testService(testkit.NewSyntheticOracle())

	doses := []float64{2e-4, 5e-5, 1e-4, 3e-4} // deliberately unsorted
	points, err := svc.Sweep(context.Background(), secondaryRequest(), doses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != len(doses) {
		t.Fatalf("got %d points, want %d", len(points), len(doses))
	}

	for i, pt := range points {
		if pt.Failed {
			t.Fatalf("point %d failed", i)
		}
		if i == 0 {
			continue
		}
		if pt.DoseMol <= points[i-1].DoseMol {
			t.Errorf("points not sorted by dose: %.4g after %.4g", pt.DoseMol, points[i-1].DoseMol)
		}
		// With a single stable phase assemblage, more coagulant never
		// leaves more phosphorus in solution.
		if pt.ResidualMgL > points[i-1].ResidualMgL {
			t.Errorf("residual rose from %.4g to %.4g without a phase switch",
				points[i-1].ResidualMgL, pt.ResidualMgL)
		}
		if pt.PhaseSwitch {
			t.Errorf("spurious phase switch at %.4g mol/L", pt.DoseMol)
		}
	}
}

func TestSweep_NonReactiveFloor(t *testing.T) {
	svc := testService(testkit.NewSyntheticOracle())

	req := secondaryRequest()
	nr := chem.MgLAsP(1.0)
	req.NonReactiveP = &nr

	points, err := svc.Sweep(context.Background(), req, []float64{1e-4, 2e-4, 3e-4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, pt := range points {
		// No dose drives the residual under the non-reactive floor.
		if pt.ResidualMgL < 1.0 {
			t.Errorf("residual %.4g mg/L at dose %.4g below the 1.0 mg/L floor",
				pt.ResidualMgL, pt.DoseMol)
		}
		if math.Abs(pt.Partitioning.MassBalanceErrorMol) > 1e-12 {
			t.Errorf("mass balance error %g at dose %.4g",
				pt.Partitioning.MassBalanceErrorMol, pt.DoseMol)
		}
	}
}

func TestSweep_PhaseSwitchBreaksMonotonicity(t *testing.T) {
	o := testkit.NewSyntheticOracle()
	o.SwitchDose = 1.5e-4
	svc := testService(o)

	req := secondaryRequest()
	req.Redox = &redox.Spec{Mode: redox.ModeFixed, Pe: 8, PeSet: true}

	points, err := svc.Sweep(context.Background(), req, []float64{1.4e-4, 1.6e-4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !points[1].PhaseSwitch {
		t.Error("phase change between doses not flagged")
	}
	// The switch degrades removal: the monotonicity exception in action.
	if points[1].ResidualMgL <= points[0].ResidualMgL {
		t.Errorf("residual %.4g at the higher dose should exceed %.4g",
			points[1].ResidualMgL, points[0].ResidualMgL)
	}
}

func TestSweep_FailedPointsAreMarked(t *testing.T) {
	o := testkit.NewSyntheticOracle()
	o.FailAbove = 2.5e-4
	svc := testService(o)

	points, err := svc.Sweep(context.Background(), secondaryRequest(), []float64{1e-4, 3e-4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points[0].Failed {
		t.Error("point below the failure threshold marked failed")
	}
	if !points[1].Failed {
		t.Error("point above the failure threshold not marked failed")
	}
}

func TestSweep_InputValidation(t *testing.T) {
	o := testkit.NewSyntheticOracle()
	svc := testService(o)

	req := secondaryRequest()
	req.Coagulant = "NaCl"
	_, err := svc.Sweep(context.Background(), req, []float64{1e-4})
	if !errors.Is(err, core.ErrUnsupportedCoagulant) {
		t.Errorf("error = %v, want ErrUnsupportedCoagulant", err)
	}
	if o.Calls() != 0 {
		t.Errorf("solver ran %d times", o.Calls())
	}
}
