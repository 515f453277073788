package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coagdose/app"
	"coagdose/domain/chem"
	"coagdose/internal"
	apperrors "coagdose/internal/errors"
	"coagdose/internal/testkit"
)

func testServer() *Server {
	svc := app.NewDoseService(testkit.NewSyntheticOracle(), nil, internal.NewLogger(internal.LogLevelError))
	return NewServer(svc, internal.NewLogger(internal.LogLevelError))
}

func doseBody(t *testing.T, target float64) *bytes.Buffer {
	t.Helper()
	req := app.Request{
		Water:          testkit.SecondaryEffluent(),
		TargetResidual: chem.MgLAsP(target),
		Coagulant:      "FeCl3",
	}
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestHealthz(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDoseEndpoint(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dose", doseBody(t, 0.5)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res app.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, app.StatusSuccess, res.Status)
	assert.Greater(t, res.DoseMol, 0.0)
	assert.NotEmpty(t, res.RunID)
	assert.InDelta(t, 0.5, res.AchievedResidualMgL, 0.1)
}

func TestDoseEndpoint_InputError(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	// Target above the influent concentration: caller error, 400.
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dose", doseBody(t, 6.0)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The body is still a structured result with run ID and notes.
	var res app.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, app.StatusInputError, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.NotEmpty(t, res.Notes)
}

func TestDoseEndpoint_MalformedJSON(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dose", bytes.NewBufferString("{not json")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeParseError, body.Code)
}

func TestDoseEndpoint_OracleFailure(t *testing.T) {
	o := testkit.NewSyntheticOracle()
	o.FailAbove = 1e-12 // every dosed scenario fails
	svc := app.NewDoseService(o, nil, internal.NewLogger(internal.LogLevelError))
	srv := NewServer(svc, internal.NewLogger(internal.LogLevelError))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dose", doseBody(t, 0.5)))
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
}

func TestSweepEndpoint(t *testing.T) {
	srv := testServer()

	req := struct {
		app.Request
		DosesMol []float64 `json:"doses_mol"`
	}{
		Request: app.Request{
			Water:          testkit.SecondaryEffluent(),
			TargetResidual: chem.MgLAsP(0.5),
			Coagulant:      "FeCl3",
		},
		DosesMol: []float64{1e-4, 2e-4},
	}
	b, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sweep", bytes.NewBuffer(b)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var points []app.SweepPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 2)
	assert.Less(t, points[1].ResidualMgL, points[0].ResidualMgL)
}

func TestSweepEndpoint_RequiresDoses(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sweep", doseBody(t, 0.5)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeInputError, body.Code)
}
