// Package metrics exposes the counters of a run in the Prometheus text format.
// All the methods are no-ops on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	orbsim "github.com/Nik6820/mipt-nik-2"
	"github.com/Nik6820/mipt-nik-2/passes"
)

// Metrics holds the collectors of one run on a private registry.
type Metrics struct {
	reg          *prometheus.Registry
	samples      prometheus.Counter
	nonConverged prometheus.Counter
	refined      prometheus.Counter
	iterations   prometheus.Histogram
	states       *prometheus.CounterVec
	energyDrift  prometheus.Gauge
	passes       *prometheus.CounterVec
	fits         *prometheus.CounterVec
}

// New returns the collectors registered on a new registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbsim_kepler_samples_total",
			Help: "Number of analytic trajectory samples computed.",
		}),
		nonConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbsim_kepler_nonconverged_samples_total",
			Help: "Number of samples where Newton's method did not converge.",
		}),
		refined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbsim_kepler_refined_samples_total",
			Help: "Number of samples whose eccentric anomaly was refined by bisection.",
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbsim_kepler_newton_iterations",
			Help:    "Newton iterations per Kepler equation solve.",
			Buckets: prometheus.LinearBuckets(1, 2, 11),
		}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbsim_twobody_states_total",
			Help: "Number of integrated states recorded.",
		}, []string{"method"}),
		energyDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbsim_twobody_energy_drift_ratio",
			Help: "Relative specific energy drift of the last integration.",
		}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbsim_passes_total",
			Help: "Number of complete passes found.",
		}, []string{"satellite"}),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbsim_fits_total",
			Help: "Number of fits computed.",
		}, []string{"dataset"}),
	}
	m.reg.MustRegister(m.samples, m.nonConverged, m.refined, m.iterations, m.states, m.energyDrift, m.passes, m.fits)
	return m
}

// Registry returns the registry of the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveTrajectory records every sample of the trajectory.
func (m *Metrics) ObserveTrajectory(traj *orbsim.Trajectory) {
	if m == nil || traj == nil {
		return
	}
	for _, s := range traj.Samples {
		m.samples.Inc()
		m.iterations.Observe(float64(s.Iterations))
		if !s.Converged {
			m.nonConverged.Inc()
		}
		if s.Refined {
			m.refined.Inc()
		}
	}
}

// ObservePropagation records the integrated states and the relative energy drift.
func (m *Metrics) ObservePropagation(method orbsim.IntegrationMethod, states []orbsim.State, drift float64) {
	if m == nil {
		return
	}
	m.states.WithLabelValues(method.String()).Add(float64(len(states)))
	m.energyDrift.Set(drift)
}

// ObservePasses records the passes of each satellite.
func (m *Metrics) ObservePasses(results []passes.Result) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.passes.WithLabelValues(r.TLE.Name).Add(float64(len(r.Passes)))
	}
}

// ObserveFit records one fit of the dataset.
func (m *Metrics) ObserveFit(dataset string) {
	if m == nil {
		return
	}
	m.fits.WithLabelValues(dataset).Inc()
}

// WriteTextfile writes the metrics to path in the text exposition format, for the node
// exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
