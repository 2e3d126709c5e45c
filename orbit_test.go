package orbsim

import (
	"errors"
	"math"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

func TestOrbitEarthScenario(t *testing.T) {
	o, err := NewOrbitDefinition("Earth", Sun.GM(), 1.496e11, 29780)
	if err != nil {
		t.Fatal(err)
	}
	// These initial conditions are almost circular, hence an eccentricity well below
	// Earth's actual 0.0167.
	if !floats.EqualWithinAbs(o.Eccentricity(), 3.00796e-4, 1e-8) {
		t.Fatalf("e=%f", o.Eccentricity())
	}
	if days := o.Period() / SecondsPerDay; days < 365.0 || days > 365.3 {
		t.Fatalf("T=%f days", days)
	}
	if !floats.EqualWithinRel(o.SemiMajorAxis(), 1.495550144e11, 1e-9) {
		t.Fatalf("a=%f", o.SemiMajorAxis())
	}
	// The circular speed is about 29784.5 m/s, so r0 is the apoapsis.
	if !o.StartsAtApoapsis() {
		t.Fatal("v0 is below the circular speed, r0 is the apoapsis")
	}
	if !floats.EqualWithinRel(o.Apoapsis(), 1.496e11, 1e-12) {
		t.Fatalf("rA=%f", o.Apoapsis())
	}
	if o.Periapsis() > o.R0() || o.R0() > o.Apoapsis() {
		t.Fatalf("r0 not in [rMin, rMax]: %s", o)
	}
	if !floats.EqualWithinRel(o.HNorm(), 1.496e11*29780, 1e-15) {
		t.Fatal("invalid h")
	}
	if !floats.EqualWithinRel(o.Energyξ(), 29780*29780/2-Sun.GM()/1.496e11, 1e-15) {
		t.Fatal("invalid ξ")
	}
	if !floats.EqualWithinRel(o.MeanMotion()*o.Period(), 2*math.Pi, 1e-15) {
		t.Fatal("invalid mean motion")
	}
	if !floats.EqualWithinRel(o.PeriodDuration().Seconds(), o.Period(), 1e-9) {
		t.Fatal("invalid period duration")
	}
}

func TestOrbitComet(t *testing.T) {
	r0 := 3.0e12
	o, err := NewOrbitDefinition("comet", Sun.GM(), r0, PeriapsisSpeed(Sun.GM(), r0, 0.9))
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(o.Eccentricity(), 0.9, 1e-12) {
		t.Fatalf("e=%f", o.Eccentricity())
	}
	if !floats.EqualWithinRel(o.Apoapsis()/o.Periapsis(), 19, 1e-9) {
		t.Fatalf("rMax/rMin=%f", o.Apoapsis()/o.Periapsis())
	}
	if !floats.EqualWithinRel(o.Periapsis(), r0, 1e-12) {
		t.Fatalf("rP=%f", o.Periapsis())
	}
	if a := (o.Apoapsis() + o.Periapsis()) / 2; !floats.EqualWithinRel(a, o.SemiMajorAxis(), 1e-12) {
		t.Fatalf("(rA+rP)/2=%f a=%f", a, o.SemiMajorAxis())
	}
}

func TestOrbitApoapsisStart(t *testing.T) {
	o, err := NewOrbitAround("slow", Sun, 1.496e11, 25000)
	if err != nil {
		t.Fatal(err)
	}
	if !o.StartsAtApoapsis() {
		t.Fatal("v0 is below the circular speed, r0 is the apoapsis")
	}
	if !floats.EqualWithinRel(o.Apoapsis(), 1.496e11, 1e-12) {
		t.Fatalf("rA=%f", o.Apoapsis())
	}
	if !floats.EqualWithinAbs(o.Eccentricity(), 0.2954692, 1e-6) {
		t.Fatalf("e=%f", o.Eccentricity())
	}
	s := o.At(0)
	if !floats.EqualWithinRel(s.X, 1.496e11, 1e-12) || math.Abs(s.Y) > 1 {
		t.Fatalf("start is not at (r0, 0): (%f, %f)", s.X, s.Y)
	}
	if !floats.EqualWithinRel(s.VY, 25000, 1e-12) || math.Abs(s.VX) > 1e-6 {
		t.Fatalf("start velocity is not (0, v0): (%f, %f)", s.VX, s.VY)
	}
	// Half a period later, the body is at the periapsis on the -x axis.
	half := o.At(o.Period() / 2)
	if !floats.EqualWithinRel(half.R, o.Periapsis(), 1e-9) || half.X > 0 {
		t.Fatalf("invalid periapsis passage %+v", half)
	}
}

func TestOrbitCircular(t *testing.T) {
	for _, body := range []CelestialObject{Sun, Earth, Mars, Jupiter} {
		r0 := body.Radius * 3
		o, err := NewOrbitAround("circ", body, r0, math.Sqrt(body.GM()/r0))
		if err != nil {
			t.Fatalf("%s: %s", body, err)
		}
		if o.Eccentricity() > 1e-7 {
			t.Fatalf("%s: e=%g", body, o.Eccentricity())
		}
		traj, err := Sample(o, 1, 50)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range traj.Samples {
			if !floats.EqualWithinRel(s.R, r0, 1e-6) {
				t.Fatalf("%s: r=%f at t=%f instead of %f", body, s.R, s.T, r0)
			}
		}
	}
}

func TestOrbitErrors(t *testing.T) {
	for _, c := range []struct {
		μ, r0, v0 float64
		err       error
	}{
		{0, 1e11, 1e4, ErrInvalidInput},
		{-1, 1e11, 1e4, ErrInvalidInput},
		{Sun.GM(), 0, 1e4, ErrInvalidInput},
		{Sun.GM(), -1e11, 1e4, ErrInvalidInput},
		{Sun.GM(), 1e11, -1, ErrInvalidInput},
		{math.NaN(), 1e11, 1e4, ErrInvalidInput},
		{Sun.GM(), math.Inf(1), 1e4, ErrInvalidInput},
		{Sun.GM(), 1e11, 0, ErrUnboundOrbit},
		{Sun.GM(), 1.496e11, 50000, ErrUnboundOrbit},
		// Just above the escape speed.
		{Sun.GM(), 1.496e11, 1.0001 * math.Sqrt(2*Sun.GM()/1.496e11), ErrUnboundOrbit},
	} {
		if _, err := NewOrbitDefinition("x", c.μ, c.r0, c.v0); !errors.Is(err, c.err) {
			t.Fatalf("μ=%g r0=%g v0=%g: expected %s, got %v", c.μ, c.r0, c.v0, c.err, err)
		}
	}
}

func TestOrbitEquals(t *testing.T) {
	o1, _ := NewOrbitAround("a", Sun, 1.496e11, 29780)
	o2, _ := NewOrbitDefinition("b", Sun.GM(), 1.496e11, 29780)
	if ok, err := o1.Equals(*o2); !ok {
		t.Fatalf("orbits differ: %s", err)
	}
	o3, _ := NewOrbitAround("c", Sun, 1.496e11, 25000)
	if ok, _ := o1.Equals(*o3); ok {
		t.Fatal("different orbits are equal")
	}
	o4, _ := NewOrbitAround("d", Earth, 7e6, 8000)
	if ok, _ := o1.Equals(*o4); ok {
		t.Fatal("orbits around different bodies are equal")
	}
}

func TestOrbitLogReport(t *testing.T) {
	o, _ := NewOrbitAround("slow", Sun, 1.496e11, 25000)
	var records [][]interface{}
	o.LogReport(kitlog.LoggerFunc(func(keyvals ...interface{}) error {
		records = append(records, keyvals)
		return nil
	}))
	if len(records) != 2 {
		t.Fatalf("expected the report and the apoapsis notice, got %d records", len(records))
	}
	if records[0][5] != "slow" {
		t.Fatalf("invalid report %v", records[0])
	}
}
