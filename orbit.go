package orbsim

import (
	"errors"
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

const (
	eccentricityε = 5e-5 // used for equality only
	distanceε     = 1e-9 // relative
)

// OrbitDefinition defines a bound two-body orbit from its initial radius and a purely
// tangential initial speed. All the derived elements are computed once by
// NewOrbitDefinition and never change afterwards.
type OrbitDefinition struct {
	Name   string
	Origin CelestialObject // central body, only its μ is used by the propagator
	r0, v0 float64
	ξ, h   float64 // specific energy and specific angular momentum
	a, e   float64
	period float64 // in seconds
	rP, rA float64
	// The initial radius is an apsis. When it is the apoapsis, the mean anomaly at t=0
	// is π and the orbital plane is rotated by ω=π so the start is still on the +x axis.
	atApoapsis bool
	m0, ω      float64
}

// NewOrbitDefinition returns the orbit of a body starting at r0 from the focus with a
// tangential speed v0 around a central body of gravitational parameter μ.
// Returns an error wrapping ErrInvalidInput or ErrUnboundOrbit.
func NewOrbitDefinition(name string, μ, r0, v0 float64) (*OrbitDefinition, error) {
	return NewOrbitAround(name, NewCelestialObject("custom", 0, μ), r0, v0)
}

// NewOrbitAround is the same as NewOrbitDefinition but uses the μ of the provided body.
func NewOrbitAround(name string, body CelestialObject, r0, v0 float64) (*OrbitDefinition, error) {
	μ := body.μ
	switch {
	case !isFinite(μ) || μ <= 0:
		return nil, fmt.Errorf("%w: μ=%g must be positive", ErrInvalidInput, μ)
	case !isFinite(r0) || r0 <= 0:
		return nil, fmt.Errorf("%w: r0=%g must be positive", ErrInvalidInput, r0)
	case !isFinite(v0) || v0 < 0:
		return nil, fmt.Errorf("%w: v0=%g must be non-negative", ErrInvalidInput, v0)
	}

	o := OrbitDefinition{Name: name, Origin: body, r0: r0, v0: v0}
	o.ξ = v0*v0/2 - μ/r0
	o.h = r0 * v0
	if o.ξ >= 0 {
		return nil, fmt.Errorf("%w: ξ=%g J/kg is not negative (v0=%g m/s, escape=%g m/s)", ErrUnboundOrbit, o.ξ, v0, math.Sqrt(2*μ/r0))
	}
	o.a = -μ / (2 * o.ξ)
	radicand := 1 + 2*o.ξ*o.h*o.h/(μ*μ)
	if radicand < 0 {
		// Only reachable through cancellation for a circular orbit.
		radicand = 0
	}
	o.e = math.Sqrt(radicand)
	if o.e >= 1 {
		return nil, fmt.Errorf("%w: e=%g (v0=%g m/s)", ErrUnboundOrbit, o.e, v0)
	}
	o.period = 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/μ)
	o.rP = o.a * (1 - o.e)
	o.rA = o.a * (1 + o.e)
	if r0*v0*v0/μ < 1 {
		o.atApoapsis = true
		o.m0 = math.Pi
		o.ω = math.Pi
	}
	return &o, nil
}

// GM returns the gravitational parameter of the central body.
func (o OrbitDefinition) GM() float64 {
	return o.Origin.μ
}

// R0 returns the initial distance from the focus.
func (o OrbitDefinition) R0() float64 {
	return o.r0
}

// V0 returns the initial (tangential) speed.
func (o OrbitDefinition) V0() float64 {
	return o.v0
}

// Energyξ returns the specific mechanical energy ξ.
func (o OrbitDefinition) Energyξ() float64 {
	return o.ξ
}

// HNorm returns the norm of the specific angular momentum.
func (o OrbitDefinition) HNorm() float64 {
	return o.h
}

// SemiMajorAxis returns a.
func (o OrbitDefinition) SemiMajorAxis() float64 {
	return o.a
}

// Eccentricity returns e.
func (o OrbitDefinition) Eccentricity() float64 {
	return o.e
}

// SemiParameter returns the semi parameter (or semi-latus rectum).
func (o OrbitDefinition) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Periapsis returns the minimum distance to the focus.
func (o OrbitDefinition) Periapsis() float64 {
	return o.rP
}

// Apoapsis returns the maximum distance to the focus.
func (o OrbitDefinition) Apoapsis() float64 {
	return o.rA
}

// Period returns the orbital period in seconds.
func (o OrbitDefinition) Period() float64 {
	return o.period
}

// PeriodDuration returns the period as a time.Duration, saturated at the largest duration.
func (o OrbitDefinition) PeriodDuration() time.Duration {
	ns := o.period * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// MeanMotion returns the mean angular rate in rad/s.
func (o OrbitDefinition) MeanMotion() float64 {
	return 2 * math.Pi / o.period
}

// StartsAtApoapsis returns whether r0 is the apoapsis, i.e. v0 is below the circular speed.
func (o OrbitDefinition) StartsAtApoapsis() bool {
	return o.atApoapsis
}

// String implements the stringer interface (hence the value receiver)
func (o OrbitDefinition) String() string {
	return fmt.Sprintf("%s: a=%.3e m e=%.6f T=%.2f d rP=%.3e m rA=%.3e m", o.Name, o.a, o.e, o.period/SecondsPerDay, o.rP, o.rA)
}

// LogReport writes the orbit parameters in a human readable way.
func (o OrbitDefinition) LogReport(logger kitlog.Logger) {
	logger.Log("level", "info", "subsys", "orbit", "body", o.Name,
		"a(m)", fmt.Sprintf("%.3e", o.a),
		"v0(m/s)", fmt.Sprintf("%.2f", o.v0),
		"e", fmt.Sprintf("%.6f", o.e),
		"T(d)", fmt.Sprintf("%.2f", o.period/SecondsPerDay),
		"rMin(m)", fmt.Sprintf("%.3e", o.rP),
		"rMax(m)", fmt.Sprintf("%.3e", o.rA))
	if o.atApoapsis {
		logger.Log("level", "notice", "subsys", "orbit", "body", o.Name, "message", "v0 below circular speed, starting at apoapsis")
	}
}

// Equals returns whether two orbit definitions describe the same orbit.
func (o OrbitDefinition) Equals(o1 OrbitDefinition) (bool, error) {
	if !floats.EqualWithinRel(o.GM(), o1.GM(), distanceε) {
		return false, errors.New("different μ")
	}
	if !floats.EqualWithinRel(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !floats.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if o.atApoapsis != o1.atApoapsis {
		return false, errors.New("start apsis invalid")
	}
	return true, nil
}

// PeriapsisSpeed returns the tangential speed needed at r to be the periapsis of an
// orbit of eccentricity e. Useful to build an OrbitDefinition from (rP, e).
func PeriapsisSpeed(μ, rP, e float64) float64 {
	return math.Sqrt(μ * (1 + e) / rP)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
