package orbsim

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !floats.EqualWithinRel(a[i], b[i], 1e-12) {
			return false
		}
	}
	return true
}

func TestCross(t *testing.T) {
	i := []float64{1, 0, 0}
	j := []float64{0, 1, 0}
	k := []float64{0, 0, 1}
	if !vectorsEqual(cross(i, j), k) {
		t.Fatal("i x j != k")
	}
	if !vectorsEqual(cross(j, k), i) {
		t.Fatal("j x k != i")
	}
	if !vectorsEqual(cross([]float64{2, 3, 4}, []float64{5, 6, 7}), []float64{-3, 6, -3}) {
		t.Fatal("cross fail")
	}
}

func TestNormDot(t *testing.T) {
	if n := norm([]float64{3, 4, 12}); n != 13 {
		t.Fatalf("norm=%f", n)
	}
	if d := dot([]float64{1, 2, 3}, []float64{4, -5, 6}); d != 12 {
		t.Fatalf("dot=%f", d)
	}
	// h = r x v is orthogonal to both.
	r := []float64{6524.834, 6862.875, 6448.296}
	v := []float64{4.901327, 5.533756, -1.976341}
	h := cross(r, v)
	if math.Abs(dot(h, r)) > 1e-6*norm(h)*norm(r) || math.Abs(dot(h, v)) > 1e-6*norm(h)*norm(v) {
		t.Fatal("r x v not orthogonal")
	}
}

func TestWrapAngle(t *testing.T) {
	for a := -10.0; a < 10; a += 0.25 {
		w := WrapAngle(a)
		if w < 0 || w >= 2*math.Pi {
			t.Fatalf("WrapAngle(%f)=%f", a, w)
		}
		if !floats.EqualWithinAbs(math.Sin(w), math.Sin(a), 1e-12) || !floats.EqualWithinAbs(math.Cos(w), math.Cos(a), 1e-12) {
			t.Fatalf("WrapAngle(%f)=%f is another angle", a, w)
		}
	}
}
