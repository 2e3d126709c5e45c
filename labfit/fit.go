// Package labfit provides the least squares fits and interpolation used to process the lab
// measurements, with the error estimates of the lab methodology.
package labfit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat"
)

var (
	// ErrTooFewPoints is returned when a fit has fewer points than parameters.
	ErrTooFewPoints = errors.New("too few points")
	// ErrLengthMismatch is returned when the abscissa and ordinates differ in length.
	ErrLengthMismatch = errors.New("x and y lengths differ")
	// ErrDegenerate is returned when all the abscissa are equal.
	ErrDegenerate = errors.New("degenerate abscissa")
)

// Fit is the y = K*x + B least squares line.
// SigmaK and SigmaB are zero when only two points are fitted.
type Fit struct {
	K, B           float64
	SigmaK, SigmaB float64
	R2             float64
	N              int
}

// At returns the fitted ordinate at x.
func (f Fit) At(x float64) float64 {
	return f.K*x + f.B
}

// Line returns n points of the fitted line uniformly spaced in [lo, hi], for plotting.
func (f Fit) Line(lo, hi float64, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = floats.Span(make([]float64, n), lo, hi)
	ys = make([]float64, n)
	for i, x := range xs {
		ys[i] = f.At(x)
	}
	return
}

func (f Fit) String() string {
	return fmt.Sprintf("k=%.6g±%.2g b=%.6g±%.2g R²=%.6f (n=%d)", f.K, f.SigmaK, f.B, f.SigmaB, f.R2, f.N)
}

func checkXY(x, y []float64, min int) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < min {
		return fmt.Errorf("%w: %d < %d", ErrTooFewPoints, len(x), min)
	}
	return nil
}

// Linear fits y = K*x + B by ordinary least squares.
// The uncertainties follow the lab formulas:
//
//	σk = sqrt((Dyy/Dxx - k²) / (n-2))
//	σb = σk * sqrt(<x²>)
//
// where Dxx and Dyy are the population variances.
func Linear(x, y []float64) (Fit, error) {
	if err := checkXY(x, y, 2); err != nil {
		return Fit{}, err
	}
	n := float64(len(x))
	mx, my := floats.Sum(x)/n, floats.Sum(y)/n
	var dxx, dyy, x2 float64
	for i := range x {
		dxx += (x[i] - mx) * (x[i] - mx)
		dyy += (y[i] - my) * (y[i] - my)
		x2 += x[i] * x[i]
	}
	if dxx == 0 {
		return Fit{}, ErrDegenerate
	}
	dxx, dyy, x2 = dxx/n, dyy/n, x2/n

	b, k := stat.LinearRegression(x, y, nil, false)
	fit := Fit{K: k, B: b, N: len(x), R2: 1}
	if dyy > 0 {
		fit.R2 = stat.RSquared(x, y, nil, b, k)
	}
	if len(x) > 2 {
		// Rounding can make the radicand slightly negative for exactly aligned points.
		fit.SigmaK = math.Sqrt(math.Max(0, (dyy/dxx-k*k)/(n-2)))
		fit.SigmaB = fit.SigmaK * math.Sqrt(x2)
	}
	return fit, nil
}

// PowerLaw fits y = C*x^K in log-log coordinates, B being ln C.
func PowerLaw(x, y []float64) (Fit, error) {
	if err := checkXY(x, y, 2); err != nil {
		return Fit{}, err
	}
	lx, ly := make([]float64, len(x)), make([]float64, len(y))
	for i := range x {
		if x[i] <= 0 || y[i] <= 0 {
			return Fit{}, fmt.Errorf("power law needs positive values, got (%g, %g) at %d", x[i], y[i], i)
		}
		lx[i], ly[i] = math.Log(x[i]), math.Log(y[i])
	}
	return Linear(lx, ly)
}

// Poly holds polynomial coefficients, lowest degree first.
type Poly []float64

// At evaluates the polynomial with Horner's scheme.
func (p Poly) At(x float64) float64 {
	var v float64
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

// Degree returns the degree of the polynomial.
func (p Poly) Degree() int {
	return len(p) - 1
}

// Polyfit fits a polynomial of the given degree by least squares on the Vandermonde matrix.
func Polyfit(x, y []float64, degree int) (Poly, error) {
	if degree < 0 {
		return nil, fmt.Errorf("negative degree %d", degree)
	}
	if err := checkXY(x, y, degree+1); err != nil {
		return nil, err
	}
	cols := degree + 1
	A := mat64.NewDense(len(x), cols, nil)
	for i, xi := range x {
		v := 1.0
		for j := 0; j < cols; j++ {
			A.Set(i, j, v)
			v *= xi
		}
	}
	b := mat64.NewVector(len(y), append([]float64(nil), y...))
	coef := mat64.NewVector(cols, nil)
	if err := coef.SolveVec(A, b); err != nil {
		return nil, fmt.Errorf("polyfit of degree %d: %w", degree, err)
	}
	p := make(Poly, cols)
	for j := range p {
		p[j] = coef.At(j, 0)
	}
	return p, nil
}

// Interp linearly interpolates the (xp, yp) table at x. Outside of the table, the line
// through the two nearest points is extrapolated. xp must be strictly increasing.
func Interp(x float64, xp, yp []float64) (float64, error) {
	if err := checkXY(xp, yp, 2); err != nil {
		return 0, err
	}
	for i := 1; i < len(xp); i++ {
		if xp[i] <= xp[i-1] {
			return 0, fmt.Errorf("abscissa not strictly increasing at %d", i)
		}
	}
	i := sort.SearchFloat64s(xp, x)
	switch {
	case i == 0:
		i = 1
	case i == len(xp):
		i = len(xp) - 1
	}
	x1, x2, y1, y2 := xp[i-1], xp[i], yp[i-1], yp[i]
	return y1 + (x-x1)*(y2-y1)/(x2-x1), nil
}
