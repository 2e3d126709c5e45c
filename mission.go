package orbsim

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

/* Handles the numerical propagation of the same two-body problem. */

// IntegrationMethod selects the numerical integrator of a TwoBodyMission.
type IntegrationMethod uint8

const (
	// RK4 is the classical fixed step Runge Kutta.
	RK4 IntegrationMethod = iota + 1
	// Dopri is the adaptive Dormand-Prince 5(4) integrator.
	Dopri
)

func (m IntegrationMethod) String() string {
	switch m {
	case RK4:
		return "rk4"
	case Dopri:
		return "dopri"
	}
	panic(fmt.Errorf("unknown integration method %d", m))
}

// IntegrationMethodFromString returns the method from its name.
func IntegrationMethodFromString(name string) (IntegrationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rk4":
		return RK4, nil
	case "dopri", "rk45", "dopri5":
		return Dopri, nil
	}
	return 0, fmt.Errorf("unknown integration method `%s`", name)
}

// DefaultStepsPerSample is the number of RK4 steps between two output points.
const DefaultStepsPerSample = 100

// MissionConfig configures a TwoBodyMission.
type MissionConfig struct {
	Method         IntegrationMethod
	StepsPerSample int          // RK4 only
	Export         ExportConfig // states are streamed to files unless IsUseless
}

// State stores a propagated state in the orbital frame.
type State struct {
	T float64 // seconds since t=0
	R []float64
	V []float64
}

// RNorm returns the norm of the position.
func (s State) RNorm() float64 {
	return norm(s.R)
}

// VNorm returns the norm of the velocity.
func (s State) VNorm() float64 {
	return norm(s.V)
}

// HNorm returns the norm of the specific angular momentum.
func (s State) HNorm() float64 {
	return norm(cross(s.R, s.V))
}

// RadialSpeed returns the component of the velocity along the position.
func (s State) RadialSpeed() float64 {
	return dot(s.R, s.V) / s.RNorm()
}

// Energyξ returns the specific mechanical energy for the given μ.
func (s State) Energyξ(μ float64) float64 {
	return s.VNorm()*s.VNorm()/2 - μ/s.RNorm()
}

// TwoBodyMission propagates the initial state of an orbit definition by numerically
// integrating r̈ = -μ r/|r|³.
type TwoBodyMission struct {
	Orbit  *OrbitDefinition
	conf   MissionConfig
	logger kitlog.Logger
	times  []float64
	states []State
	// RK4 bookkeeping.
	cur       []float64
	step      float64
	iter      int
	total     int
	stopChan  chan bool
	collided  bool
	err       error
	histChan  chan State
	wg        sync.WaitGroup
	exportErr error
}

// NewTwoBodyMission returns a mission which outputs pointCount states uniformly spaced over
// [0, span] seconds, both ends included.
func NewTwoBodyMission(o *OrbitDefinition, span float64, pointCount int, conf MissionConfig, logger kitlog.Logger) (*TwoBodyMission, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: nil orbit", ErrInvalidSampling)
	}
	if !isFinite(span) || span <= 0 {
		return nil, fmt.Errorf("%w: span=%g must be positive", ErrInvalidSampling, span)
	}
	if pointCount < 2 {
		return nil, fmt.Errorf("%w: pointCount=%d must be at least 2", ErrInvalidSampling, pointCount)
	}
	switch conf.Method {
	case 0:
		conf.Method = RK4
	case RK4, Dopri:
	default:
		return nil, fmt.Errorf("unknown integration method %d", conf.Method)
	}
	if conf.StepsPerSample <= 0 {
		conf.StepsPerSample = DefaultStepsPerSample
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	m := &TwoBodyMission{
		Orbit:    o,
		conf:     conf,
		logger:   kitlog.With(logger, "subsys", "twobody", "method", conf.Method),
		times:    floats.Span(make([]float64, pointCount), 0, span),
		stopChan: make(chan bool, 1),
	}
	return m, nil
}

// InitialState returns the state at t=0, which is the start of the analytical orbit.
func (m *TwoBodyMission) InitialState() State {
	s0 := m.Orbit.At(0)
	return State{T: 0, R: []float64{s0.X, s0.Y, 0}, V: []float64{s0.VX, s0.VY, 0}}
}

// Propagate integrates the equations of motion from the initial state and returns all the
// output states. It blocks until all the states have also been exported. Each call starts
// over; a pending StopPropagation applies to the next call.
func (m *TwoBodyMission) Propagate() ([]State, error) {
	m.states = make([]State, 0, len(m.times))
	m.iter, m.err, m.exportErr = 0, nil, nil
	m.collided = false
	m.histChan = nil
	if !m.conf.Export.IsUseless() {
		m.histChan = make(chan State, 1000)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.exportErr = StreamStates(m.conf.Export, m.Orbit.GM(), m.histChan)
		}()
	}
	m.logger.Log("level", "info", "orbit", m.Orbit.Name, "points", len(m.times), "span(s)", m.times[len(m.times)-1])
	m.record(m.InitialState())

	switch m.conf.Method {
	case RK4:
		m.propagateRK4()
	case Dopri:
		m.propagateDopri()
	}

	if m.histChan != nil {
		close(m.histChan)
	}
	m.wg.Wait() // Don't return until we're done writing all the files.
	if m.err != nil {
		m.logger.Log("level", "critical", "err", m.err, "states", len(m.states))
		return m.states, m.err
	}
	last := m.states[len(m.states)-1]
	μ := m.Orbit.GM()
	m.logger.Log("level", "notice", "status", "finished", "states", len(m.states),
		"Δξ(rel)", math.Abs((last.Energyξ(μ)-m.Orbit.Energyξ())/m.Orbit.Energyξ()))
	if m.exportErr != nil {
		return m.states, m.exportErr
	}
	return m.states, nil
}

// StopPropagation is used to stop the propagation before it is completed.
func (m *TwoBodyMission) StopPropagation() {
	select {
	case m.stopChan <- true:
	default:
	}
}

func (m *TwoBodyMission) record(s State) {
	m.states = append(m.states, s)
	if m.histChan != nil {
		m.histChan <- s
	}
	if !m.collided && s.RNorm() < m.Orbit.Origin.Radius {
		m.collided = true
		m.logger.Log("level", "critical", "collided", m.Orbit.Origin.Name, "t(s)", s.T, "r", s.RNorm(), "radius", m.Orbit.Origin.Radius)
	} else if m.collided && s.RNorm() > m.Orbit.Origin.Radius*1.1 {
		// Now further from the 10% dead zone
		m.collided = false
		m.logger.Log("level", "critical", "revived", m.Orbit.Origin.Name, "t(s)", s.T)
	}
}

func (m *TwoBodyMission) propagateRK4() {
	s0 := m.InitialState()
	m.cur = append(append([]float64{}, s0.R...), s0.V...)
	m.step = (m.times[1] - m.times[0]) / float64(m.conf.StepsPerSample)
	m.total = (len(m.times) - 1) * m.conf.StepsPerSample
	ode.NewRK4(0, m.step, m).Solve() // Blocking.
}

// GetState returns the state for the integrator.
func (m *TwoBodyMission) GetState() []float64 {
	return m.cur
}

// SetState sets the updated state and records it on output points.
func (m *TwoBodyMission) SetState(t float64, s []float64) {
	for _, v := range s {
		if !isFinite(v) {
			m.err = fmt.Errorf("%w: non finite state at step %d", ErrIntegration, m.iter)
			return
		}
	}
	m.cur = s
	m.iter++
	if m.iter%m.conf.StepsPerSample == 0 {
		m.record(State{
			T: m.times[m.iter/m.conf.StepsPerSample],
			R: []float64{s[0], s[1], s[2]},
			V: []float64{s[3], s[4], s[5]},
		})
	}
}

// Stop implements the stop call of the integrator. To stop the propagation, call StopPropagation().
func (m *TwoBodyMission) Stop(t float64) bool {
	return m.stopRequested(t) || m.err != nil || m.iter >= m.total
}

func (m *TwoBodyMission) stopRequested(t float64) bool {
	select {
	case <-m.stopChan:
		m.logger.Log("level", "warning", "status", "stopped", "t(s)", t)
		return true
	default:
		return false
	}
}

// Func is the two-body equation of motion.
func (m *TwoBodyMission) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, 6)
	bodyAcc := -m.Orbit.GM() / math.Pow(norm(f[:3]), 3)
	fDot[0] = f[3]
	fDot[1] = f[4]
	fDot[2] = f[5]
	fDot[3] = bodyAcc * f[0]
	fDot[4] = bodyAcc * f[1]
	fDot[5] = bodyAcc * f[2]
	return
}

// propagateDopri integrates in canonical units (distance r0, time sqrt(r0³/μ)) so that the
// tolerances of the integrator are meaningful.
func (m *TwoBodyMission) propagateDopri() {
	du := m.Orbit.R0()
	tu := math.Sqrt(du * du * du / m.Orbit.GM())
	vu := du / tu
	s0 := m.InitialState()
	y0 := []float64{s0.R[0] / du, s0.R[1] / du, s0.R[2] / du, s0.V[0] / vu, s0.V[1] / vu, s0.V[2] / vu}
	xs := make([]float64, len(m.times))
	for i, t := range m.times {
		xs[i] = t / tu
	}

	integrator, err := newDopri(DefaultDopriConfig(), 6, func(x float64, y, f []float64) {
		r3 := math.Pow(norm(y[:3]), 3)
		f[0], f[1], f[2] = y[3], y[4], y[5]
		f[3], f[4], f[5] = -y[0]/r3, -y[1]/r3, -y[2]/r3
	})
	if err != nil {
		m.err = fmt.Errorf("%w: %s", ErrIntegration, err)
		return
	}
	err = integrator.compute(y0, xs, func(i int, y []float64) bool {
		if i == 0 {
			return true // Already recorded.
		}
		for _, v := range y {
			if !isFinite(v) {
				m.err = fmt.Errorf("%w: non finite state at t=%g s", ErrIntegration, m.times[i])
				return false
			}
		}
		m.record(State{
			T: m.times[i],
			R: []float64{y[0] * du, y[1] * du, y[2] * du},
			V: []float64{y[3] * vu, y[4] * vu, y[5] * vu},
		})
		return !m.stopRequested(m.times[i])
	})
	if err != nil && m.err == nil {
		m.err = fmt.Errorf("%w: %s", ErrIntegration, err)
	}
}

// Comparison summarizes the deviation of a numerical propagation from the analytical trajectory.
type Comparison struct {
	MaxPositionError    float64 // m
	MaxRelPositionError float64 // relative to the analytical radius
	MaxEnergyDrift      float64 // relative to the orbit energy
	MaxHDrift           float64 // relative to the orbit angular momentum
}

// CompareWithAnalytic compares states and analytical samples taken at the same times.
func CompareWithAnalytic(traj *Trajectory, states []State) (Comparison, error) {
	var c Comparison
	if len(states) != traj.Len() {
		return c, fmt.Errorf("%w: %d states for %d samples", ErrInvalidSampling, len(states), traj.Len())
	}
	o := traj.Orbit
	μ := o.GM()
	for i, s := range states {
		a := traj.Samples[i]
		if !floats.EqualWithinAbs(a.T, s.T, 1e-6*math.Max(1, a.T)) {
			return c, fmt.Errorf("%w: time mismatch at %d (%g != %g)", ErrInvalidSampling, i, a.T, s.T)
		}
		δ := norm([]float64{s.R[0] - a.X, s.R[1] - a.Y, s.R[2]})
		c.MaxPositionError = math.Max(c.MaxPositionError, δ)
		c.MaxRelPositionError = math.Max(c.MaxRelPositionError, δ/a.R)
		c.MaxEnergyDrift = math.Max(c.MaxEnergyDrift, math.Abs((s.Energyξ(μ)-o.Energyξ())/o.Energyξ()))
		c.MaxHDrift = math.Max(c.MaxHDrift, math.Abs((s.HNorm()-o.HNorm())/o.HNorm()))
	}
	return c, nil
}
