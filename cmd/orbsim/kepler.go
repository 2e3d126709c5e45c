package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	orbsim "github.com/Nik6820/mipt-nik-2"
)

var interactive bool

var (
	orbitKeys = map[string]string{
		"orbit.body": "body",
		"orbit.mu":   "mu",
		"orbit.r0":   "r0",
		"orbit.v0":   "v0",
		"orbit.name": "name",
		"orbit.e":    "ecc",
	}
	samplingKeys = map[string]string{
		"sampling.periods": "periods",
		"sampling.points":  "points",
	}
)

var keplerCmd = &cobra.Command{
	Use:   "kepler",
	Short: "Sample an orbit by solving Kepler's equation",
	Long: `Builds the orbit of a body starting at r0 from the central body with a tangential
speed v0, prints its elements and samples it over whole periods.

With --interactive, r0, v0 and the name are asked on the terminal; an invalid
number falls back to the defaults.`,
	Args:    cobra.NoArgs,
	PreRunE: bindOnRun(orbitKeys, samplingKeys),
	RunE:    runKepler,
}

func init() {
	f := keplerCmd.Flags()
	f.BoolVarP(&interactive, "interactive", "i", false, "ask for the initial conditions")
	addOrbitFlags(f)
}

// addOrbitFlags adds the initial condition and sampling flags shared by kepler and twobody.
func addOrbitFlags(f *pflag.FlagSet) {
	def := orbsim.DefaultOrbitInput()
	f.String("body", "sun", "central body (sun, earth, mars, jupiter)")
	f.Float64("mu", 0, "gravitational parameter in m³/s², overrides the body's")
	f.Float64("r0", def.R0, "initial distance in m")
	f.Float64("v0", def.V0, "initial tangential speed in m/s")
	f.String("name", def.Name, "name of the orbiting body")
	f.Float64("ecc", 0, "start at the periapsis of an orbit of this eccentricity, overrides v0")
	f.Int("periods", 1, "number of periods")
	f.Int("points", 1000, "number of output points")
}

func runKepler(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	input, err := conf.OrbitInput()
	if err != nil {
		return err
	}
	var prompter *orbsim.Prompter
	if interactive {
		prompter = orbsim.NewPrompter(os.Stdin, os.Stdout)
		input, err = prompter.Orbit(input)
		if err != nil {
			if !errors.Is(err, orbsim.ErrParse) {
				return err
			}
			fmt.Fprintln(os.Stdout, "Invalid input, using the default values.")
			logger.Log("level", "warning", "subsys", "prompt", "err", err, "r0", input.R0, "v0", input.V0)
		}
	}

	orbit, err := input.Orbit()
	if err != nil {
		return err
	}
	orbit.LogReport(logger)
	fmt.Fprintln(os.Stdout, orbit)

	traj, err := orbsim.Sample(orbit, conf.Sampling.Periods, conf.Sampling.Points)
	if err != nil {
		return err
	}
	traj.LogWarnings(logger)
	stats.ObserveTrajectory(traj)

	export := conf.Export
	if prompter != nil && export.IsUseless() && prompter.YesNo("Save the trajectory?") {
		export.CSV = true
	}
	files, err := orbsim.ExportTrajectory(export, traj)
	for _, f := range files {
		logger.Log("level", "notice", "subsys", "export", "file", f)
	}
	return err
}
