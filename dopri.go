package orbsim

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1. / 5, 3. / 10, 4. / 5, 8. / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1. / 5},
		{3. / 40, 9. / 40},
		{44. / 45, -56. / 15, 32. / 9},
		{19372. / 6561, -25360. / 2187, 64448. / 6561, -212. / 729},
		{9017. / 3168, -355. / 33, 46732. / 5247, 49. / 176, -5103. / 18656},
		{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84},
	}
	// Difference between the fifth and fourth order weights.
	dpE = [7]float64{71. / 57600, 0, -71. / 16695, 71. / 1920, -17253. / 339200, 22. / 525, -1. / 40}
)

// DopriConfig sets the tolerances of the adaptive integrator.
type DopriConfig struct {
	AbsTol   float64
	RelTol   float64
	MaxSteps int // accepted and rejected steps over the whole integration
}

// DefaultDopriConfig returns the tolerances used for the two-body propagation in canonical units.
func DefaultDopriConfig() DopriConfig {
	return DopriConfig{AbsTol: 1e-12, RelTol: 1e-9, MaxSteps: 1000000}
}

// dopri integrates y' = f(x, y) with the adaptive Dormand-Prince 5(4) method. The steps
// are shortened to land exactly on each output point xs[i], where out is called with
// the solution. Returning false from out stops the integration.
type dopri struct {
	conf DopriConfig
	f    func(x float64, y, dy []float64)
	k    [7][]float64
	tmp  []float64
	next []float64
}

func newDopri(conf DopriConfig, dim int, f func(x float64, y, dy []float64)) (*dopri, error) {
	if conf.AbsTol <= 0 || conf.RelTol <= 0 || conf.MaxSteps <= 0 {
		return nil, fmt.Errorf("invalid dopri configuration %+v", conf)
	}
	d := &dopri{conf: conf, f: f, tmp: make([]float64, dim), next: make([]float64, dim)}
	for i := range d.k {
		d.k[i] = make([]float64, dim)
	}
	return d, nil
}

// step attempts one step of size h from (x, y) and returns the scaled error estimate.
// d.k[0] must hold f(x, y); the candidate solution is left in d.next.
func (d *dopri) step(x, h float64, y []float64) float64 {
	for s := 1; s < 7; s++ {
		copy(d.tmp, y)
		for j := 0; j < s; j++ {
			if a := dpA[s][j]; a != 0 {
				floats.AddScaled(d.tmp, h*a, d.k[j])
			}
		}
		d.f(x+dpC[s]*h, d.tmp, d.k[s])
	}
	// The last stage is evaluated at the fifth order solution.
	copy(d.next, d.tmp)
	var sum float64
	for i := range y {
		var e float64
		for s := 0; s < 7; s++ {
			e += dpE[s] * d.k[s][i]
		}
		sc := d.conf.AbsTol + d.conf.RelTol*math.Max(math.Abs(y[i]), math.Abs(d.next[i]))
		sum += (h * e / sc) * (h * e / sc)
	}
	return math.Sqrt(sum / float64(len(y)))
}

func (d *dopri) compute(y0, xs []float64, out func(i int, y []float64) bool) error {
	y := append([]float64{}, y0...)
	x := xs[0]
	if !out(0, y) {
		return nil
	}
	d.f(x, y, d.k[0])
	h := (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1) / 100
	steps := 0
	for i := 1; i < len(xs); i++ {
		for x < xs[i] {
			if steps++; steps > d.conf.MaxSteps {
				return fmt.Errorf("%d steps exceeded at x=%g", d.conf.MaxSteps, x)
			}
			last := false
			if x+h >= xs[i] {
				h = xs[i] - x
				last = true
			}
			err := d.step(x, h, y)
			if math.IsNaN(err) {
				return fmt.Errorf("non finite error estimate at x=%g", x)
			}
			factor := math.Min(5, math.Max(0.2, 0.9*math.Pow(err, -0.2)))
			if err > 1 {
				h *= factor
				if h < 1e-14*math.Max(1, math.Abs(x)) {
					return fmt.Errorf("step size underflow at x=%g", x)
				}
				continue
			}
			if last {
				x = xs[i]
			} else {
				x += h
			}
			copy(y, d.next)
			// FSAL
			copy(d.k[0], d.k[6])
			h *= factor
		}
		if !out(i, y) {
			return nil
		}
	}
	return nil
}
