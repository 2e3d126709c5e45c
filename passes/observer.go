package passes

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// Observer defines a ground observer.
type Observer struct {
	Name        string
	LatΦ, Longθ float64   // geodetic, stored in radians, longitude positive East
	Altitude    float64   // meters above the ellipsoid
	R           []float64 // position in ECEF (m)
}

// LookAngle is the direction of a target as seen by an observer.
type LookAngle struct {
	Azimuth   float64 // degrees clockwise from North, in [0, 360)
	Elevation float64 // degrees above the horizon
	Range     float64 // m
}

// NewObserver returns an observer from its geodetic coordinates in degrees and its
// altitude in meters. The geocentric position uses the IAU 1976 ellipsoid.
func NewObserver(name string, latDeg, lonDeg, altitude float64) (Observer, error) {
	if math.IsNaN(latDeg) || latDeg < -90 || latDeg > 90 {
		return Observer{}, fmt.Errorf("latitude %f out of [-90, 90]", latDeg)
	}
	if math.IsNaN(lonDeg) || math.IsInf(lonDeg, 0) {
		return Observer{}, fmt.Errorf("invalid longitude %f", lonDeg)
	}
	if math.IsNaN(altitude) || math.IsInf(altitude, 0) {
		return Observer{}, fmt.Errorf("invalid altitude %f", altitude)
	}
	// ρ sin φ' and ρ cos φ' in equatorial radii.
	ρsφ, ρcφ := globe.Earth76.ParallaxConstants(unit.AngleFromDeg(latDeg), altitude)
	er := globe.Earth76.Er * 1e3
	sθ, cθ := math.Sincos(lonDeg * d2r)
	return Observer{
		Name:     name,
		LatΦ:     latDeg * d2r,
		Longθ:    lonDeg * d2r,
		Altitude: altitude,
		R:        []float64{er * ρcφ * cθ, er * ρcφ * sθ, er * ρsφ},
	}, nil
}

func (o Observer) String() string {
	return fmt.Sprintf("%s (%f,%f); alt = %.1f m", o.Name, o.LatΦ*r2d, o.Longθ*r2d, o.Altitude)
}

// LookAngles returns the azimuth, elevation and range of a position given in ECEF (m),
// going through the topocentric SEZ frame.
func (o Observer) LookAngles(rECEF []float64) LookAngle {
	ρECEF := make([]float64, 3)
	for i := 0; i < 3; i++ {
		ρECEF[i] = rECEF[i] - o.R[i]
	}
	ρ := norm(ρECEF)
	rSEZ := MxV33(R3(o.Longθ), ρECEF)
	rSEZ = MxV33(R2(math.Pi/2-o.LatΦ), rSEZ)
	el := math.Asin(rSEZ[2]/ρ) * r2d
	az := math.Mod(2*math.Pi+math.Atan2(rSEZ[1], -rSEZ[0]), 2*math.Pi) * r2d
	return LookAngle{Azimuth: az, Elevation: el, Range: ρ}
}
