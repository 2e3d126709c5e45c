package passes

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Tracker returns the look angles of a target from an observer at a given time.
type Tracker interface {
	LookAt(obs Observer, dt time.Time) (LookAngle, error)
}

// Propagator wraps the SGP4 propagation of one element set.
// go-satellite only takes whole seconds, so all the dates are truncated to the second.
type Propagator struct {
	TLE TLE
	sat satellite.Satellite
}

// NewPropagator initializes SGP4 (WGS84 constants) from the element set.
func NewPropagator(tle TLE) (*Propagator, error) {
	if err := validateTLELines(tle.Line1, tle.Line2); err != nil {
		return nil, fmt.Errorf("%s: %w", tle.Name, err)
	}
	sat := satellite.TLEToSat(tle.Line1, tle.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: %s init code=%d %s", ErrInvalidTLE, tle.Name, sat.Error, sat.ErrorStr)
	}
	return &Propagator{TLE: tle, sat: sat}, nil
}

// ECEF returns the position in ECEF (m) at the given date.
func (p *Propagator) ECEF(dt time.Time) ([]float64, error) {
	dt = dt.UTC()
	year, month, day := dt.Date()
	hour, minute, sec := dt.Clock()
	pos, _ := satellite.Propagate(p.sat, year, int(month), day, hour, minute, sec)
	rTEME := []float64{pos.X * 1e3, pos.Y * 1e3, pos.Z * 1e3}
	for _, v := range rTEME {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s at %s: output is NaN/Inf", ErrPropagation, p.TLE.Name, dt)
		}
	}
	// Sanity check: between below the surface and beyond the GEO belt.
	if mag := norm(rTEME) / 1e3; mag < 6200 || mag > 50000 {
		return nil, fmt.Errorf("%w: %s at %s: unreasonable position magnitude %.1f km", ErrPropagation, p.TLE.Name, dt, mag)
	}
	θgst := satellite.GSTimeFromDate(year, int(month), day, hour, minute, sec)
	return TEME2ECEF(rTEME, θgst), nil
}

// LookAt implements the Tracker interface.
func (p *Propagator) LookAt(obs Observer, dt time.Time) (LookAngle, error) {
	rECEF, err := p.ECEF(dt)
	if err != nil {
		return LookAngle{}, err
	}
	return obs.LookAngles(rECEF), nil
}
