package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors: the request can never succeed as posed
	ErrInfeasibleTarget      = errors.New("target residual is not below the current phosphorus concentration")
	ErrUnsupportedPhase      = errors.New("no thermodynamic data for requested metal/phase combination")
	ErrMissingRedoxParameter = errors.New("missing required parameter for redox mode")
	ErrUnsupportedCoagulant  = errors.New("unsupported coagulant")
	ErrSulfideDataRequired   = errors.New("anaerobic dosing requires sulfide data or sensitivity analysis")
	ErrNegativeDose          = errors.New("dose bounds must be non-negative")

	// Search errors
	ErrNoEvaluableBounds = errors.New("equilibrium solver failed at both initial dose bounds")

	// Oracle errors
	ErrOracleFailure = errors.New("equilibrium solver failure")
)

// Error constructors with context
func NewInfeasibleTargetError(target, initial float64) error {
	return fmt.Errorf("%w: target %.4g mg/L >= initial %.4g mg/L; lower the target or check the influent analysis",
		ErrInfeasibleTarget, target, initial)
}

func NewUnsupportedPhaseError(metal, phase string) error {
	return fmt.Errorf("%w: %s / %s", ErrUnsupportedPhase, metal, phase)
}

func NewMissingRedoxParameterError(mode, param string) error {
	return fmt.Errorf("%w: mode %q needs %s", ErrMissingRedoxParameter, mode, param)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrInfeasibleTarget) ||
		errors.Is(err, ErrUnsupportedPhase) ||
		errors.Is(err, ErrMissingRedoxParameter) ||
		errors.Is(err, ErrUnsupportedCoagulant) ||
		errors.Is(err, ErrSulfideDataRequired) ||
		errors.Is(err, ErrNegativeDose)
}

func IsOracleFailure(err error) bool {
	return errors.Is(err, ErrOracleFailure)
}
