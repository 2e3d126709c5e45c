package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nik6820/mipt-nik-2/labfit"
)

var (
	trials  int
	seed    int64
	scaling bool
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Least squares fit of a lab dataset",
	Long: `Fits y = kx + b on a built-in lab dataset and prints the slope and intercept
with their uncertainties. --head restricts the fit to the first points (the
laminar regime of the tubes); --trials adds a Monte Carlo estimate and
--scaling the flow exponent Q ∝ R^β of the tubes.

Datasets: ` + strings.Join(labfit.DatasetNames(), ", "),
	Args:    cobra.NoArgs,
	PreRunE: bindOnRun(map[string]string{"fit.dataset": "dataset", "fit.head": "head"}),
	RunE:    runFit,
}

func init() {
	f := fitCmd.Flags()
	f.String("dataset", "resonance", "built-in dataset")
	f.Int("head", 0, "only fit the first points, dataset default if zero")
	f.IntVar(&trials, "trials", 0, "Monte Carlo trials, none if zero")
	f.Int64Var(&seed, "seed", 1, "Monte Carlo seed")
	f.BoolVar(&scaling, "scaling", false, "fit the flow exponent of the tubes")
}

func runFit(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := labfit.DatasetFromName(conf.Fit.Dataset)
	if err != nil {
		return err
	}
	if conf.Fit.Head > 0 {
		d = d.Head(conf.Fit.Head)
	}
	fit, err := d.Fit()
	if err != nil {
		return err
	}
	stats.ObserveFit(d.Name)
	fmt.Fprintf(os.Stdout, "%s (%s vs %s): %s\n", d.Name, d.YLabel, d.XLabel, fit)

	if trials > 0 {
		mc, err := d.MonteCarlo(trials, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Monte Carlo: %s\n", mc)
	}
	if scaling {
		for _, regime := range []struct {
			name     string
			gradient float64
		}{{"laminar", labfit.LaminarGradient}, {"turbulent", labfit.TurbulentGradient}} {
			β, err := labfit.ScalingExponent(regime.gradient)
			if err != nil {
				return err
			}
			stats.ObserveFit("scaling-" + regime.name)
			fmt.Fprintf(os.Stdout, "%s (%g Pa/m): β=%.3f±%.3f\n", regime.name, regime.gradient, β.K, β.SigmaK)
		}
	}
	logger.Log("level", "info", "subsys", "fit", "dataset", d.Name, "points", fit.N, "k", fit.K, "b", fit.B)
	return nil
}
