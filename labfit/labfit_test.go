package labfit

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestLinearResonance(t *testing.T) {
	d, err := DatasetFromName("Resonance")
	if err != nil {
		t.Fatal(err)
	}
	fit, err := d.Fit()
	if err != nil {
		t.Fatal(err)
	}
	if fit.N != 5 {
		t.Fatalf("N=%d", fit.N)
	}
	if !floats.EqualWithinAbs(fit.K, 258.3, 1e-9) || !floats.EqualWithinAbs(fit.B, 4.9, 1e-9) {
		t.Fatalf("k=%f b=%f", fit.K, fit.B)
	}
	if !floats.EqualWithinAbs(fit.SigmaK, 0.574456, 1e-5) || !floats.EqualWithinAbs(fit.SigmaB, 1.905256, 1e-5) {
		t.Fatalf("σk=%f σb=%f", fit.SigmaK, fit.SigmaB)
	}
	if !floats.EqualWithinAbs(fit.R2, 0.999985, 1e-6) {
		t.Fatalf("R²=%f", fit.R2)
	}
	if !floats.EqualWithinAbs(fit.At(2), 521.5, 1e-9) {
		t.Fatalf("At(2)=%f", fit.At(2))
	}
	xs, ys := fit.Line(0, 10, 11)
	if len(xs) != 11 || xs[10] != 10 || !floats.EqualWithinAbs(ys[10], 2587.9, 1e-9) {
		t.Fatalf("invalid line %v %v", xs, ys)
	}
}

func TestLinearExact(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7}
	fit, err := Linear(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(fit.K, 2, 1e-12) || !floats.EqualWithinAbs(fit.B, 1, 1e-12) {
		t.Fatalf("k=%f b=%f", fit.K, fit.B)
	}
	if fit.SigmaK > 1e-6 || fit.SigmaB > 1e-6 {
		t.Fatalf("σk=%g σb=%g for aligned points", fit.SigmaK, fit.SigmaB)
	}
	two, err := Linear(x[:2], y[:2])
	if err != nil {
		t.Fatal(err)
	}
	if two.SigmaK != 0 || two.SigmaB != 0 || !floats.EqualWithinAbs(two.K, 2, 1e-12) {
		t.Fatalf("two point fit %+v", two)
	}
}

func TestLinearErrors(t *testing.T) {
	if _, err := Linear([]float64{1}, []float64{1}); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
	if _, err := Linear([]float64{1, 2, 3}, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := Linear([]float64{2, 2, 2}, []float64{1, 2, 3}); !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
	if _, err := PowerLaw([]float64{1, -2}, []float64{1, 2}); err == nil {
		t.Fatal("power law accepted a negative abscissa")
	}
}

func TestTubes(t *testing.T) {
	slopes := []float64{0.232863, 0.045514, 0.075248}
	for i, exp := range slopes {
		d, err := DatasetFromName([]string{"tube1", "tube2", "tube3"}[i])
		if err != nil {
			t.Fatal(err)
		}
		fit, err := d.Fit()
		if err != nil {
			t.Fatal(err)
		}
		if fit.N != 8 {
			t.Fatalf("%s: fitted %d points instead of 8", d.Name, fit.N)
		}
		if !floats.EqualWithinAbs(fit.K, exp, 1e-6) {
			t.Fatalf("%s: k=%f expected %f", d.Name, fit.K, exp)
		}
	}
	laminar, err := ScalingExponent(LaminarGradient)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(laminar.K, 4.515, 1e-3) {
		t.Fatalf("laminar β=%f", laminar.K)
	}
	turbulent, err := ScalingExponent(TurbulentGradient)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(turbulent.K, 2.933, 1e-3) {
		t.Fatalf("turbulent β=%f", turbulent.K)
	}
	if turbulent.K >= laminar.K {
		t.Fatal("the turbulent exponent should be lower than the laminar one")
	}
}

func TestPressureDrop(t *testing.T) {
	for i, exp := range []float64{0.410494, 2.294737, 0.933333} {
		d, _ := DatasetFromName([]string{"drop1", "drop2", "drop3"}[i])
		fit, err := d.Fit()
		if err != nil {
			t.Fatal(err)
		}
		if !floats.EqualWithinAbs(fit.K, exp, 1e-6) {
			t.Fatalf("%s: k=%f expected %f", d.Name, fit.K, exp)
		}
	}
	if _, err := DatasetFromName("nope"); err == nil {
		t.Fatal("unknown dataset accepted")
	}
}

func TestHead(t *testing.T) {
	d, _ := DatasetFromName("tube1")
	if h := d.Head(3); h.Len() != 3 || h.X[2] != 9 || h.Y[2] != 2.13 {
		t.Fatalf("invalid head %+v", h)
	}
	if h := d.Head(0); h.Len() != d.Len() {
		t.Fatal("Head(0) should keep everything")
	}
	if h := d.Head(100); h.Len() != d.Len() {
		t.Fatal("Head(100) should keep everything")
	}
}

func TestInterp(t *testing.T) {
	d, _ := DatasetFromName("tube1")
	for _, c := range []struct{ x, y float64 }{
		{2, 0.33},     // extrapolated below
		{115, 13.515}, // extrapolated above
		{30, 6.0},     // on a knot
		{32, 6.16},
	} {
		y, err := Interp(c.x, d.X, d.Y)
		if err != nil {
			t.Fatal(err)
		}
		if !floats.EqualWithinAbs(y, c.y, 1e-9) {
			t.Fatalf("Interp(%f)=%f expected %f", c.x, y, c.y)
		}
	}
	if _, err := Interp(1, []float64{1, 1}, []float64{0, 1}); err == nil {
		t.Fatal("non increasing abscissa accepted")
	}
}

func TestPolyfit(t *testing.T) {
	x := []float64{-2, -1, 0, 1, 2, 3}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = 1 + 2*xi + 3*xi*xi
	}
	p, err := Polyfit(x, y, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.Degree() != 2 || !floats.EqualApprox(p, []float64{1, 2, 3}, 1e-9) {
		t.Fatalf("invalid coefficients %v", p)
	}
	if !floats.EqualWithinAbs(p.At(4), 57, 1e-8) {
		t.Fatalf("p(4)=%f", p.At(4))
	}
	// A line through the resonance data matches the linear fit.
	d, _ := DatasetFromName("resonance")
	line, err := Polyfit(d.X, d.Y, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(line[1], 258.3, 1e-8) || !floats.EqualWithinAbs(line[0], 4.9, 1e-8) {
		t.Fatalf("invalid line %v", line)
	}
	if _, err := Polyfit(x[:2], y[:2], 2); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}

func TestMonteCarlo(t *testing.T) {
	d, _ := DatasetFromName("resonance")
	mc, err := d.MonteCarlo(2000, 42)
	if err != nil {
		t.Fatal(err)
	}
	if mc.Trials != 2000 {
		t.Fatalf("trials=%d", mc.Trials)
	}
	if !floats.EqualWithinAbs(mc.K, 258.3, 0.1) {
		t.Fatalf("mean k=%f", mc.K)
	}
	// σy/sqrt(Σ(x-x̄)²) = 1/sqrt(10)
	if !floats.EqualWithinAbs(mc.SigmaK, 1/math.Sqrt(10), 0.05) {
		t.Fatalf("σk=%f", mc.SigmaK)
	}
	again, _ := d.MonteCarlo(2000, 42)
	if again != mc {
		t.Fatal("same seed should give the same result")
	}

	noiseless, err := MonteCarlo(d.X, d.Y, 0, 0, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if noiseless.SigmaK > 1e-9 || !floats.EqualWithinAbs(noiseless.K, 258.3, 1e-9) {
		t.Fatalf("noiseless trials %+v", noiseless)
	}
	if _, err := MonteCarlo(d.X, d.Y, 0, 1, 1, 1); err == nil {
		t.Fatal("a single trial was accepted")
	}
}
