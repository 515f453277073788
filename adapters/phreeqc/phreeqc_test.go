package phreeqc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coagdose/domain/chem"
	"coagdose/domain/core"
	"coagdose/domain/dose"
	"coagdose/domain/phases"
	"coagdose/domain/redox"
)

func testScenario(t *testing.T, coagulant string, amountMol float64) dose.Scenario {
	t.Helper()
	reagent, err := chem.LookupReagent(coagulant)
	require.NoError(t, err)
	sel, err := phases.Select(reagent.Metal, redox.ModeAerobic, 0, nil)
	require.NoError(t, err)
	surf := dose.DefaultSurfaceSpec()
	w := chem.Water{
		Analysis: map[string]chem.Concentration{
			"P":          chem.MgLAsP(5),
			"Cl":         chem.MgL(120),
			"Alkalinity": {Value: 180, Unit: chem.UnitMgLAsCaCO3},
		},
		PH:           7.2,
		TemperatureC: 20,
	}
	return dose.NewScenario(w, reagent, amountMol, sel, &surf, 8)
}

func TestRender_Blocks(t *testing.T) {
	script := Render(testScenario(t, "FeCl3", 2e-4))

	assert.Contains(t, script, "SOLUTION 1")
	assert.Contains(t, script, "pe        8.000")
	assert.Contains(t, script, "units     mol/kgw")
	assert.Contains(t, script, "REACTION 1")
	assert.Contains(t, script, "FeCl3 2.000000e-04")
	assert.Contains(t, script, "1.0 moles")
	assert.Contains(t, script, "EQUILIBRIUM_PHASES 1")
	assert.Contains(t, script, "Fe(OH)3(a)")
	assert.Contains(t, script, "Strengite")
	assert.Contains(t, script, "SURFACE 1")
	assert.Contains(t, script, "Hfo_sOH Fe(OH)3(a) equilibrium_phase")
	assert.Contains(t, script, "Hfo_wOH Fe(OH)3(a) equilibrium_phase")
	assert.Contains(t, script, "-equilibrate with solution 1")
	assert.Contains(t, script, "SELECTED_OUTPUT 1")
	assert.Contains(t, script, "-reset false")
	assert.Contains(t, script, "USER_PUNCH 1")
	assert.Contains(t, script, "surf_P")
	assert.True(t, strings.HasSuffix(script, "END\n"))

	// Alkalinity keeps its equivalence basis instead of a formula weight.
	assert.Contains(t, script, "Alkalinity")
}

func TestRender_Deterministic(t *testing.T) {
	a := Render(testScenario(t, "FeCl3", 2e-4))
	b := Render(testScenario(t, "FeCl3", 2e-4))
	assert.Equal(t, a, b)
}

func TestRender_ZeroDoseOmitsReaction(t *testing.T) {
	script := Render(testScenario(t, "FeCl3", 0))
	assert.NotContains(t, script, "REACTION")
	// The undosed baseline still equilibrates phases and surface.
	assert.Contains(t, script, "EQUILIBRIUM_PHASES 1")
}

func TestRender_CoReagent(t *testing.T) {
	base, err := chem.LookupReagent("NaOH")
	require.NoError(t, err)
	sc := testScenario(t, "FeCl3", 2e-4).WithCoReagent(base, 1e-3)
	script := Render(sc)
	assert.Contains(t, script, "NaOH 1.000000e-03")
}

func TestRender_AluminumSurface(t *testing.T) {
	script := Render(testScenario(t, "AlCl3", 2e-4))
	assert.Contains(t, script, "Aho_sOH Al(OH)3(a) equilibrium_phase")
	assert.Contains(t, script, "surf_Al")
	assert.NotContains(t, script, "Strengite")
}

const selectedFixture = `	pH	pe	mu	tot_P	tot_Fe	equi_Fe(OH)3(a)	equi_Strengite	surf_P	surf_Fe
	7.20	8.00	1.0e-02	1.6e-04	0.0e+00	0.0e+00	0.0e+00	0.0e+00	0.0e+00
	7.05	7.91	1.2e-02	1.6e-05	3.1e-09	9.8e-05	1.1e-04	2.4e-05	1.0e-06
`

func TestParseSelected(t *testing.T) {
	sc := testScenario(t, "FeCl3", 2e-4)
	res, err := ParseSelected(strings.NewReader(selectedFixture), sc)
	require.NoError(t, err)

	// The last data row wins: it is the equilibrated state after reaction.
	assert.InDelta(t, 1.6e-05, res.Totals["P"], 1e-12)
	assert.InDelta(t, 3.1e-09, res.Totals["Fe"], 1e-15)
	assert.InDelta(t, 1.1e-04, res.PhaseMoles["Strengite"], 1e-12)
	assert.InDelta(t, 9.8e-05, res.PhaseMoles["Fe(OH)3(a)"], 1e-12)
	assert.InDelta(t, 2.4e-05, res.AdsorbedOn(phases.SurfaceHfo, "P"), 1e-12)
	assert.InDelta(t, 7.05, res.PH, 1e-9)
	assert.InDelta(t, 7.91, res.Pe, 1e-9)
	assert.InDelta(t, 1.2e-02, res.IonicStrength, 1e-9)
	assert.Equal(t, 20.0, res.TemperatureC)
}

func TestParseSelected_Failures(t *testing.T) {
	sc := testScenario(t, "FeCl3", 2e-4)

	cases := map[string]string{
		"empty":           "",
		"header only":     "pH\tpe\tmu\n",
		"column mismatch": "pH\tpe\tmu\n7.0\t8.0\n",
		"non-numeric":     "pH\tpe\tmu\n7.0\teight\t0.01\n",
	}
	for name, fixture := range cases {
		_, err := ParseSelected(strings.NewReader(fixture), sc)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, core.ErrOracleFailure), "%s: %v", name, err)
	}
}

func TestDetectFailure(t *testing.T) {
	assert.Nil(t, DetectFailure("Reading input data for simulation 1.\nEnd of Run after 0.1 Seconds.\n"))

	fail := DetectFailure("WARNING: something\nERROR: Elt not found in database, P\n")
	require.NotNil(t, fail)
	assert.True(t, errors.Is(fail, core.ErrOracleFailure))

	fail = DetectFailure("Numerical method failed on all combinations of convergence parameters\n")
	require.NotNil(t, fail)
	assert.Contains(t, fail.Reason, "did not converge")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("/usr/local/bin/phreeqc", "/opt/db/wateq4f.dat", "", 0, nil)
	assert.Equal(t, 60*time.Second, c.Timeout)
	assert.Equal(t, "/usr/local/bin/phreeqc", c.BinaryPath)
}
