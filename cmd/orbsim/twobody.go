package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	orbsim "github.com/Nik6820/mipt-nik-2"
)

var numericalKeys = map[string]string{
	"numerical.method":           "method",
	"numerical.steps_per_sample": "steps",
}

var twobodyCmd = &cobra.Command{
	Use:   "twobody",
	Short: "Integrate the two-body problem and compare it to the analytic orbit",
	Long: `Integrates r'' = -μ r/|r|³ from the same initial conditions as kepler, with a
fixed step RK4 or an adaptive Dormand-Prince, and reports the largest deviation
from the analytic trajectory. Interrupt to stop the integration early.`,
	Args:    cobra.NoArgs,
	PreRunE: bindOnRun(orbitKeys, samplingKeys, numericalKeys),
	RunE:    runTwoBody,
}

func init() {
	f := twobodyCmd.Flags()
	addOrbitFlags(f)
	f.String("method", "rk4", "integrator: rk4 or dopri")
	f.Int("steps", orbsim.DefaultStepsPerSample, "RK4 steps between two output points")
}

func runTwoBody(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	input, err := conf.OrbitInput()
	if err != nil {
		return err
	}
	orbit, err := input.Orbit()
	if err != nil {
		return err
	}
	orbit.LogReport(logger)
	mconf, err := conf.MissionConfig()
	if err != nil {
		return err
	}
	traj, err := orbsim.Sample(orbit, conf.Sampling.Periods, conf.Sampling.Points)
	if err != nil {
		return err
	}
	stats.ObserveTrajectory(traj)

	span := float64(conf.Sampling.Periods) * orbit.Period()
	mission, err := orbsim.NewTwoBodyMission(orbit, span, conf.Sampling.Points, mconf, logger)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-cmd.Context().Done():
			mission.StopPropagation()
		case <-done:
		}
	}()

	states, err := mission.Propagate()
	if err != nil {
		return err
	}
	if len(states) != traj.Len() {
		logger.Log("level", "warning", "subsys", "twobody", "status", "incomplete", "states", len(states), "expected", traj.Len())
		return nil
	}
	cmp, err := orbsim.CompareWithAnalytic(traj, states)
	if err != nil {
		return err
	}
	stats.ObservePropagation(mconf.Method, states, cmp.MaxEnergyDrift)
	fmt.Fprintf(os.Stdout, "%s\n%s: max |Δr|=%.3e m (%.3e relative) max Δξ/ξ=%.3e max Δh/h=%.3e\n",
		orbit, mconf.Method, cmp.MaxPositionError, cmp.MaxRelPositionError, cmp.MaxEnergyDrift, cmp.MaxHDrift)
	return nil
}
