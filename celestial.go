package orbsim

import (
	"fmt"
	"strings"
)

const (
	// AU is one astronomical unit in meters.
	AU = 1.495978707e11
	// SecondsPerDay is used for all reports in days.
	SecondsPerDay = 86400.0
)

// CelestialObject defines the central body of a two-body problem.
type CelestialObject struct {
	Name   string
	Radius float64 // equatorial radius in meters
	μ      float64 // gravitational parameter in m^3/s^2
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ
}

// NewCelestialObject returns a custom central body, e.g. for a user provided μ.
func NewCelestialObject(name string, radius, μ float64) CelestialObject {
	return CelestialObject{name, radius, μ}
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sun":
		return Sun, nil
	case "earth":
		return Earth, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	default:
		return CelestialObject{}, fmt.Errorf("undefined body '%s'", name)
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700e3, 1.32712440018e20}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378136.3, 3.986004418e14}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3396190, 4.282837e13}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 71492e3, 1.26686534e17}
