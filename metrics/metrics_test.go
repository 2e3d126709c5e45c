package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	orbsim "github.com/Nik6820/mipt-nik-2"
	"github.com/Nik6820/mipt-nik-2/passes"
)

func TestObserveTrajectory(t *testing.T) {
	o, err := orbsim.NewOrbitAround("Earth", orbsim.Sun, 1.496e11, 29780)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := orbsim.Sample(o, 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	m := New()
	m.ObserveTrajectory(traj)
	if v := testutil.ToFloat64(m.samples); v != 50 {
		t.Fatalf("samples=%f", v)
	}
	if v := testutil.ToFloat64(m.nonConverged); v != 0 {
		t.Fatalf("non converged=%f", v)
	}
	m.ObserveFit("resonance")
	m.ObserveFit("resonance")
	if v := testutil.ToFloat64(m.fits.WithLabelValues("resonance")); v != 2 {
		t.Fatalf("fits=%f", v)
	}
	m.ObservePasses([]passes.Result{{TLE: passes.TLE{Name: "NOAA 19"}, Passes: make([]passes.Pass, 3)}})
	if v := testutil.ToFloat64(m.passes.WithLabelValues("NOAA 19")); v != 3 {
		t.Fatalf("passes=%f", v)
	}
	m.ObservePropagation(orbsim.RK4, make([]orbsim.State, 7), 1e-9)
	if v := testutil.ToFloat64(m.states.WithLabelValues("rk4")); v != 7 {
		t.Fatalf("states=%f", v)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == "orbsim_kepler_newton_iterations" {
			if c := f.GetMetric()[0].GetHistogram().GetSampleCount(); c != 50 {
				t.Fatalf("histogram count=%d", c)
			}
			return
		}
	}
	t.Fatal("iterations histogram not gathered")
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFit("tube1")
	path := filepath.Join(t.TempDir(), "orbsim.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `orbsim_fits_total{dataset="tube1"} 1`) {
		t.Fatalf("unexpected textfile:\n%s", data)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveTrajectory(nil)
	m.ObserveFit("x")
	m.ObservePasses(nil)
	m.ObservePropagation(orbsim.Dopri, nil, 0)
	if err := m.WriteTextfile("/nonexistent/dir/file"); err != nil {
		t.Fatal(err)
	}
}
