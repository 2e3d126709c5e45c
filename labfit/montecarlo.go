package labfit

import (
	"fmt"
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat"
	"github.com/gonum/stat/distmv"
)

// MonteCarloResult holds the spread of the linear fit over the noisy trials.
type MonteCarloResult struct {
	Trials         int
	K, B           float64 // means
	SigmaK, SigmaB float64 // standard deviations
}

func (r MonteCarloResult) String() string {
	return fmt.Sprintf("k=%.6g±%.2g b=%.6g±%.2g (%d trials)", r.K, r.SigmaK, r.B, r.SigmaB, r.Trials)
}

// gaussian returns a zero mean normal of standard deviation σ, or nil if σ is not positive.
func gaussian(σ float64, src *rand.Rand) (*distmv.Normal, error) {
	if σ <= 0 {
		return nil, nil
	}
	n, ok := distmv.NewNormal([]float64{0}, mat64.NewSymDense(1, []float64{σ * σ}), src)
	if !ok {
		return nil, fmt.Errorf("could not build a normal distribution with σ=%g", σ)
	}
	return n, nil
}

// MonteCarlo estimates the uncertainty of the linear fit by refitting trials copies of the
// data, each point being shifted by gaussian noise of σx and σy.
func MonteCarlo(x, y []float64, σx, σy float64, trials int, seed int64) (MonteCarloResult, error) {
	if err := checkXY(x, y, 2); err != nil {
		return MonteCarloResult{}, err
	}
	if trials < 2 {
		return MonteCarloResult{}, fmt.Errorf("%w: %d trials", ErrTooFewPoints, trials)
	}
	src := rand.New(rand.NewSource(seed))
	xNoise, err := gaussian(σx, src)
	if err != nil {
		return MonteCarloResult{}, err
	}
	yNoise, err := gaussian(σy, src)
	if err != nil {
		return MonteCarloResult{}, err
	}

	ks, bs := make([]float64, trials), make([]float64, trials)
	xs, ys := make([]float64, len(x)), make([]float64, len(y))
	for t := 0; t < trials; t++ {
		copy(xs, x)
		copy(ys, y)
		for i := range xs {
			if xNoise != nil {
				xs[i] += xNoise.Rand(nil)[0]
			}
			if yNoise != nil {
				ys[i] += yNoise.Rand(nil)[0]
			}
		}
		fit, err := Linear(xs, ys)
		if err != nil {
			return MonteCarloResult{}, fmt.Errorf("trial %d: %w", t, err)
		}
		ks[t], bs[t] = fit.K, fit.B
	}
	return MonteCarloResult{
		Trials: trials,
		K:      stat.Mean(ks, nil),
		B:      stat.Mean(bs, nil),
		SigmaK: stat.StdDev(ks, nil),
		SigmaB: stat.StdDev(bs, nil),
	}, nil
}
