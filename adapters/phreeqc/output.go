package phreeqc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"coagdose/domain/dose"
)

// ParseSelected reads a selected-output stream written by the USER_PUNCH
// block in Render and returns the final equilibrated state (the last data
// row). A header/data mismatch or an empty file is an OracleFailure: the
// solver produced no interpretable state.
func ParseSelected(r io.Reader, s dose.Scenario) (*dose.EquilibriumResult, error) {
	scanner := bufio.NewScanner(r)
	var header []string
	var last []string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if header == nil {
			header = fields
			continue
		}
		last = fields
	}
	if err := scanner.Err(); err != nil {
		return nil, &dose.OracleFailure{Reason: "cannot read selected output", Detail: err.Error()}
	}
	if header == nil || last == nil {
		return nil, &dose.OracleFailure{Reason: "empty selected output"}
	}
	if len(last) != len(header) {
		return nil, &dose.OracleFailure{
			Reason: "selected output column mismatch",
			Detail: fmt.Sprintf("%d headings, %d values", len(header), len(last)),
		}
	}

	row := make(map[string]float64, len(header))
	for i, name := range header {
		v, err := strconv.ParseFloat(last[i], 64)
		if err != nil {
			return nil, &dose.OracleFailure{
				Reason: "unparseable selected output value",
				Detail: fmt.Sprintf("column %s: %q", name, last[i]),
			}
		}
		row[name] = v
	}

	res := &dose.EquilibriumResult{
		Totals:        map[string]float64{},
		Species:       map[string]float64{},
		PhaseMoles:    map[string]float64{},
		SurfaceTotals: map[string]map[string]float64{},
		PH:            row["pH"],
		Pe:            row["pe"],
		IonicStrength: row["mu"],
		TemperatureC:  s.Water.TemperatureC,
	}
	for name, v := range row {
		switch {
		case strings.HasPrefix(name, "tot_"):
			res.Totals[strings.TrimPrefix(name, "tot_")] = v
		case strings.HasPrefix(name, "equi_"):
			res.PhaseMoles[strings.TrimPrefix(name, "equi_")] = v
		case strings.HasPrefix(name, "surf_"):
			if s.SurfaceSite == "" {
				continue
			}
			el := strings.TrimPrefix(name, "surf_")
			if res.SurfaceTotals[s.SurfaceSite] == nil {
				res.SurfaceTotals[s.SurfaceSite] = map[string]float64{}
			}
			res.SurfaceTotals[s.SurfaceSite][el] = v
		}
	}

	// The iron total under redox speciation may come back under Fe even
	// when the scenario asked for Fe(2)/Fe(3); nothing further to fold.
	return res, nil
}

// DetectFailure scans the solver's main output for the error markers
// PHREEQC prints on nonconvergence or input rejection.
func DetectFailure(output string) *dose.OracleFailure {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ERROR") {
			return &dose.OracleFailure{Reason: "solver reported an error", Detail: trimmed}
		}
		if strings.Contains(trimmed, "did not converge") ||
			strings.Contains(trimmed, "Numerical method failed") {
			return &dose.OracleFailure{Reason: "numerical method did not converge", Detail: trimmed}
		}
	}
	return nil
}
