package orbsim

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is a full scenario, usually read from a TOML file.
type Config struct {
	Orbit     OrbitConfig
	Sampling  SamplingConfig
	Numerical NumericalConfig
	Export    ExportConfig
	Passes    PassesConfig
	Fit       FitConfig
}

// OrbitConfig is the [orbit] section.
type OrbitConfig struct {
	Body string
	Mu   float64 // overrides the μ of the body if positive
	R0   float64
	V0   float64
	Name string
	E    float64 // overrides v0 with the periapsis speed of this eccentricity if non-zero
}

// SamplingConfig is the [sampling] section.
type SamplingConfig struct {
	Periods int
	Points  int
}

// NumericalConfig is the [numerical] section.
type NumericalConfig struct {
	Method         string
	StepsPerSample int
}

// PassesConfig is the [passes] section. Angles are in degrees and the altitude in meters.
type PassesConfig struct {
	TLEFile      string
	Lat, Lon     float64
	Alt          float64
	Start, End   time.Time
	MinElevation float64
	TrackPoints  int
	Step         time.Duration // coarse scan step
	Workers      int
}

// FitConfig is the [fit] section.
type FitConfig struct {
	Dataset string
	Head    int
}

// SetDefaults sets the default value of every key of the scenario.
func SetDefaults(v *viper.Viper) {
	def := DefaultOrbitInput()
	v.SetDefault("orbit.body", "sun")
	v.SetDefault("orbit.mu", 0)
	v.SetDefault("orbit.r0", def.R0)
	v.SetDefault("orbit.v0", def.V0)
	v.SetDefault("orbit.name", def.Name)
	v.SetDefault("orbit.e", 0)
	v.SetDefault("sampling.periods", 1)
	v.SetDefault("sampling.points", 1000)
	v.SetDefault("numerical.method", "rk4")
	v.SetDefault("numerical.steps_per_sample", DefaultStepsPerSample)
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.filename", "orbit")
	v.SetDefault("export.csv", false)
	v.SetDefault("export.xyzv", false)
	v.SetDefault("export.timestamp", false)
	v.SetDefault("export.epoch", "")
	// Dolgoprudny
	v.SetDefault("passes.tle_file", "")
	v.SetDefault("passes.lat", 55.9496)
	v.SetDefault("passes.lon", 37.5018)
	v.SetDefault("passes.alt", 190)
	v.SetDefault("passes.start", "")
	v.SetDefault("passes.end", "")
	v.SetDefault("passes.min_elevation", 0)
	v.SetDefault("passes.track_points", 10000)
	v.SetDefault("passes.step", "30s")
	v.SetDefault("passes.workers", 4)
	v.SetDefault("fit.dataset", "resonance")
	v.SetDefault("fit.head", 0)
}

// NewViper returns a viper instance with the defaults and the ORBSIM_ environment
// variables (e.g. ORBSIM_ORBIT_R0).
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("ORBSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns the scenario with all the default values.
func DefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)
	conf, err := ConfigFromViper(v)
	if err != nil {
		panic(fmt.Errorf("invalid default configuration: %s", err))
	}
	return conf
}

// LoadConfig reads the TOML scenario at path. An empty path only uses the defaults and
// the environment.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	if err := ReadConfigFile(v, path); err != nil {
		return Config{}, err
	}
	return ConfigFromViper(v)
}

// ReadConfigFile merges the TOML scenario at path into v. An empty path is a no-op.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %s", ErrParse, err)
	}
	return nil
}

// ConfigFromViper builds the scenario from an already configured viper instance, which
// allows the command line flags to be bound to it.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	var conf Config
	conf.Orbit = OrbitConfig{
		Body: v.GetString("orbit.body"),
		Mu:   v.GetFloat64("orbit.mu"),
		R0:   v.GetFloat64("orbit.r0"),
		V0:   v.GetFloat64("orbit.v0"),
		Name: v.GetString("orbit.name"),
		E:    v.GetFloat64("orbit.e"),
	}
	conf.Sampling = SamplingConfig{Periods: v.GetInt("sampling.periods"), Points: v.GetInt("sampling.points")}
	conf.Numerical = NumericalConfig{Method: v.GetString("numerical.method"), StepsPerSample: v.GetInt("numerical.steps_per_sample")}
	conf.Export = ExportConfig{
		Dir:       v.GetString("export.dir"),
		Filename:  v.GetString("export.filename"),
		CSV:       v.GetBool("export.csv"),
		XYZV:      v.GetBool("export.xyzv"),
		Timestamp: v.GetBool("export.timestamp"),
	}
	var err error
	if conf.Export.Epoch, err = parseDate(v.GetString("export.epoch")); err != nil {
		return conf, err
	}
	conf.Passes = PassesConfig{
		TLEFile:      v.GetString("passes.tle_file"),
		Lat:          v.GetFloat64("passes.lat"),
		Lon:          v.GetFloat64("passes.lon"),
		Alt:          v.GetFloat64("passes.alt"),
		MinElevation: v.GetFloat64("passes.min_elevation"),
		TrackPoints:  v.GetInt("passes.track_points"),
		Step:         v.GetDuration("passes.step"),
		Workers:      v.GetInt("passes.workers"),
	}
	if conf.Passes.Start, err = parseDate(v.GetString("passes.start")); err != nil {
		return conf, err
	}
	if conf.Passes.End, err = parseDate(v.GetString("passes.end")); err != nil {
		return conf, err
	}
	conf.Fit = FitConfig{Dataset: v.GetString("fit.dataset"), Head: v.GetInt("fit.head")}
	return conf, nil
}

// parseDate accepts RFC3339 and plain dates; an empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date `%s`", ErrParse, s)
}

// OrbitInput returns the initial conditions of the [orbit] section.
func (c Config) OrbitInput() (OrbitInput, error) {
	body, err := CelestialObjectFromString(c.Orbit.Body)
	if err != nil {
		return OrbitInput{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if c.Orbit.Mu > 0 {
		body = NewCelestialObject(body.Name, body.Radius, c.Orbit.Mu)
	}
	in := OrbitInput{Name: c.Orbit.Name, Body: body, R0: c.Orbit.R0, V0: c.Orbit.V0}
	if c.Orbit.E != 0 {
		if c.Orbit.E < 0 || c.Orbit.E >= 1 {
			return OrbitInput{}, fmt.Errorf("%w: e=%g must be in [0, 1)", ErrInvalidInput, c.Orbit.E)
		}
		in.V0 = PeriapsisSpeed(body.GM(), in.R0, c.Orbit.E)
	}
	return in, nil
}

// MissionConfig returns the configuration of the numerical propagation.
func (c Config) MissionConfig() (MissionConfig, error) {
	method, err := IntegrationMethodFromString(c.Numerical.Method)
	if err != nil {
		return MissionConfig{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return MissionConfig{Method: method, StepsPerSample: c.Numerical.StepsPerSample, Export: c.Export}, nil
}
