package orbsim

import "errors"

var (
	// ErrInvalidInput is returned when μ, r0 or v0 are outside of their physical domain.
	ErrInvalidInput = errors.New("invalid orbit input")
	// ErrUnboundOrbit is returned when the initial conditions lead to a parabolic or hyperbolic trajectory.
	ErrUnboundOrbit = errors.New("unbound orbit (e >= 1)")
	// ErrInvalidSampling is returned for an invalid number of periods or points.
	ErrInvalidSampling = errors.New("invalid sampling request")
	// ErrNonConvergence flags Kepler solutions which did not reach the tolerance within the iteration cap.
	ErrNonConvergence = errors.New("kepler equation did not converge")
	// ErrParse is returned by the interactive prompt when a numeric answer cannot be parsed.
	ErrParse = errors.New("could not parse input")
)

// ErrIntegration is returned when the numerical propagation produces a non finite state.
var ErrIntegration = errors.New("numerical integration failed")
