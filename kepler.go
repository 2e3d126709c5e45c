package orbsim

import (
	"math"

	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/unit"
)

const (
	// KeplerTolerance is the magnitude of the Newton step below which the solution has converged.
	KeplerTolerance = 1e-12
	// KeplerMaxIterations caps the Newton iterations of SolveKepler.
	KeplerMaxIterations = 20
)

// KeplerSolution is the result of solving Kepler's equation M = E - e*sin(E).
type KeplerSolution struct {
	E          float64 // eccentric anomaly
	Iterations int
	LastStep   float64 // magnitude of the last Newton update
	Residual   float64 // |E - e*sin(E) - M|
	Converged  bool
	Refined    bool // E comes from the bisection fallback and not from Newton
}

// SolveKepler solves Kepler's equation for the eccentric anomaly with Newton-Raphson
// iterations starting from E0 = M. It stops once the update is below KeplerTolerance
// or after KeplerMaxIterations.
// If the iteration cap is hit, the solution is flagged as not converged and E is the
// best of the last Newton iterate and a bisection solve (which cannot diverge).
func SolveKepler(M, e float64) KeplerSolution {
	E := M
	sol := KeplerSolution{}
	for sol.Iterations < KeplerMaxIterations {
		δ := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= δ
		sol.Iterations++
		sol.LastStep = math.Abs(δ)
		if sol.LastStep < KeplerTolerance {
			sol.Converged = true
			break
		}
	}
	sol.E = E
	sol.Residual = keplerResidual(E, e, M)
	if !sol.Converged || math.IsNaN(E) {
		sol.Converged = false
		if Eb := bisectKepler(M, e); math.IsNaN(sol.Residual) || keplerResidual(Eb, e, M) < sol.Residual {
			sol.E = Eb
			sol.Residual = keplerResidual(Eb, e, M)
			sol.Refined = true
		}
	}
	return sol
}

// bisectKepler uses Meeus' binary search, which works on the reduced mean anomaly,
// and puts the result back on the same revolution as M.
func bisectKepler(M, e float64) float64 {
	k := math.Floor((M + math.Pi) / (2 * math.Pi))
	Mred := M - 2*math.Pi*k
	Ered := kepler.Kepler3(e, unit.Angle(Mred)).Rad()
	best := math.NaN()
	bestRes := math.Inf(1)
	for _, shift := range []float64{-1, 0, 1} {
		E := Ered + 2*math.Pi*(k+shift)
		if res := keplerResidual(E, e, M); res < bestRes {
			best, bestRes = E, res
		}
	}
	return best
}

func keplerResidual(E, e, M float64) float64 {
	return math.Abs(E - e*math.Sin(E) - M)
}

// TrueAnomaly returns the true anomaly ν from the eccentric anomaly with the half-angle
// relation tan(ν/2) = sqrt((1+e)/(1-e)) tan(E/2), written with Atan2 so that it stays
// defined at E = π.
func TrueAnomaly(E, e float64) float64 {
	sinE2, cosE2 := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+e)*sinE2, math.Sqrt(1-e)*cosE2)
}

// MeanAnomalyFromEccentric computes the mean anomaly M from the eccentric anomaly E.
func MeanAnomalyFromEccentric(E, e float64) float64 {
	return E - e*math.Sin(E)
}
