package orbsim

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

// TrajectorySample is the state of the body at a given time since the start of the orbit.
type TrajectorySample struct {
	T           float64 // seconds since t=0
	MeanAnomaly float64
	EccAnomaly  float64
	TrueAnomaly float64
	R           float64 // distance to the focus
	X, Y        float64 // position in the orbital plane
	VX, VY      float64 // velocity in the orbital plane
	V           float64 // speed from the vis-viva equation
	Accel       float64 // magnitude of the gravitational acceleration
	Iterations  int     // Newton iterations used for this sample
	Converged   bool
	Refined     bool
}

// Energyξ returns the specific mechanical energy of this sample.
func (s TrajectorySample) Energyξ(μ float64) float64 {
	return s.V*s.V/2 - μ/s.R
}

// At returns the trajectory sample at t seconds from the start.
func (o OrbitDefinition) At(t float64) TrajectorySample {
	μ := o.Origin.μ
	M := 2*math.Pi*t/o.period + o.m0
	sol := SolveKepler(M, o.e)
	ν := TrueAnomaly(sol.E, o.e)
	sinν, cosν := math.Sincos(ν)
	r := o.SemiParameter() / (1 + o.e*cosν)
	sinθ, cosθ := math.Sincos(ν + o.ω)
	// Radial and transverse velocities.
	vr := μ / o.h * o.e * sinν
	vθ := μ / o.h * (1 + o.e*cosν)
	return TrajectorySample{
		T:           t,
		MeanAnomaly: M,
		EccAnomaly:  sol.E,
		TrueAnomaly: ν,
		R:           r,
		X:           r * cosθ,
		Y:           r * sinθ,
		VX:          vr*cosθ - vθ*sinθ,
		VY:          vr*sinθ + vθ*cosθ,
		V:           math.Sqrt(math.Max(0, 2*(μ/r+o.v0*o.v0/2-μ/o.r0))),
		Accel:       μ / (r * r),
		Iterations:  sol.Iterations,
		Converged:   sol.Converged,
		Refined:     sol.Refined,
	}
}

// Trajectory is an ordered set of samples produced by Sample. It belongs to the caller.
type Trajectory struct {
	Orbit        *OrbitDefinition
	NumPeriods   int // zero for SampleTimes
	Samples      []TrajectorySample
	nonConverged int
}

// Sample returns pointCount samples uniformly spaced over [0, numPeriods*T], both ends included.
// A sample for which Kepler's equation did not converge is flagged and kept; use Err or
// NonConverged to know about them.
func Sample(o *OrbitDefinition, numPeriods, pointCount int) (*Trajectory, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: nil orbit", ErrInvalidSampling)
	}
	if numPeriods < 1 {
		return nil, fmt.Errorf("%w: numPeriods=%d must be at least 1", ErrInvalidSampling, numPeriods)
	}
	if pointCount < 2 {
		return nil, fmt.Errorf("%w: pointCount=%d must be at least 2", ErrInvalidSampling, pointCount)
	}
	traj, err := SampleTimes(o, floats.Span(make([]float64, pointCount), 0, float64(numPeriods)*o.period))
	if err != nil {
		return nil, err
	}
	traj.NumPeriods = numPeriods
	return traj, nil
}

// SampleTimes returns the samples at the provided times in seconds, which must be finite
// and in increasing order.
func SampleTimes(o *OrbitDefinition, times []float64) (*Trajectory, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: nil orbit", ErrInvalidSampling)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no sample time", ErrInvalidSampling)
	}
	traj := &Trajectory{Orbit: o, Samples: make([]TrajectorySample, len(times))}
	for i, t := range times {
		if !isFinite(t) || (i > 0 && t < times[i-1]) {
			return nil, fmt.Errorf("%w: invalid time %g at %d", ErrInvalidSampling, t, i)
		}
		traj.Samples[i] = o.At(t)
		if !traj.Samples[i].Converged {
			traj.nonConverged++
		}
	}
	return traj, nil
}

// Len returns the number of samples.
func (t *Trajectory) Len() int {
	return len(t.Samples)
}

// NonConverged returns how many samples did not meet the Kepler tolerance.
func (t *Trajectory) NonConverged() int {
	return t.nonConverged
}

// Err returns an error wrapping ErrNonConvergence if any sample did not converge, nil otherwise.
func (t *Trajectory) Err() error {
	if t.nonConverged == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d samples", ErrNonConvergence, t.nonConverged, len(t.Samples))
}

// Times returns the sample times in seconds.
func (t *Trajectory) Times() []float64 {
	times := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		times[i] = s.T
	}
	return times
}

// Columns lists the names accepted by Column, in export order.
var Columns = []string{"t", "M", "E", "nu", "r", "x", "y", "vx", "vy", "v", "accel"}

// Column returns one quantity of all the samples, e.g. for a plot.
func (t *Trajectory) Column(name string) ([]float64, error) {
	col := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		v, err := s.value(name)
		if err != nil {
			return nil, err
		}
		col[i] = v
	}
	return col, nil
}

func (s TrajectorySample) value(name string) (float64, error) {
	switch name {
	case "t":
		return s.T, nil
	case "M":
		return s.MeanAnomaly, nil
	case "E":
		return s.EccAnomaly, nil
	case "nu":
		return s.TrueAnomaly, nil
	case "r":
		return s.R, nil
	case "x":
		return s.X, nil
	case "y":
		return s.Y, nil
	case "vx":
		return s.VX, nil
	case "vy":
		return s.VY, nil
	case "v":
		return s.V, nil
	case "accel":
		return s.Accel, nil
	}
	return 0, fmt.Errorf("unknown column `%s`", name)
}

// LogWarnings reports every sample which did not converge.
func (t *Trajectory) LogWarnings(logger kitlog.Logger) {
	if t.nonConverged == 0 {
		return
	}
	for i, s := range t.Samples {
		if s.Converged {
			continue
		}
		logger.Log("level", "warning", "subsys", "kepler", "sample", i, "t(s)", s.T,
			"M(deg)", fmt.Sprintf("%.6f", Rad2deg(s.MeanAnomaly)), "E(deg)", fmt.Sprintf("%.6f", Rad2deg(s.EccAnomaly)),
			"iterations", s.Iterations, "refined", s.Refined)
	}
	logger.Log("level", "warning", "subsys", "kepler", "err", t.Err())
}
