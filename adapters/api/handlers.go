package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"coagdose/app"
	"coagdose/domain/core"
	apperrors "coagdose/internal/errors"
)

// errorBody is the JSON error envelope; callers branch on the code, never
// on the message text.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sweepRequest adds the fixed dose list to a dosing request
type sweepRequest struct {
	app.Request
	DosesMol []float64 `json:"doses_mol"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDose(w http.ResponseWriter, r *http.Request) {
	var req app.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: apperrors.CodeParseError, Message: err.Error()})
		return
	}

	result, err := s.doser.Calculate(r.Context(), req)
	if err != nil {
		s.writeError(w, result, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: apperrors.CodeParseError, Message: err.Error()})
		return
	}
	if len(req.DosesMol) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: apperrors.CodeInputError, Message: "doses_mol is required"})
		return
	}

	points, err := s.doser.Sweep(r.Context(), req.Request, req.DosesMol)
	if err != nil {
		s.writeError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// writeError maps the error taxonomy onto HTTP statuses: input errors are
// the caller's to fix, oracle failures are an upstream dependency problem.
func (s *Server) writeError(w http.ResponseWriter, result *app.Result, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch {
	case code == apperrors.CodeInputError || core.IsInputError(err):
		status = http.StatusBadRequest
	case code == apperrors.CodeOracleFailure || errors.Is(err, core.ErrOracleFailure) ||
		errors.Is(err, core.ErrNoEvaluableBounds):
		status = http.StatusBadGateway
	}
	s.log.Warn("request failed (%s): %v", code, err)

	// An input-error result still carries the run ID and notes.
	if result != nil && result.Status == app.StatusInputError {
		writeJSON(w, status, result)
		return
	}
	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
