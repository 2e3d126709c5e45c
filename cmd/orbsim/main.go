package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	orbsim "github.com/Nik6820/mipt-nik-2"
	"github.com/Nik6820/mipt-nik-2/metrics"
)

var (
	cfgFile     string
	metricsFile string
	verbose     bool

	v                    = orbsim.NewViper()
	logger kitlog.Logger = kitlog.NewNopLogger()
	stats  *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "orbsim",
	Short: "Two-body orbits, satellite passes and lab fits",
	Long: `orbsim samples Keplerian orbits analytically, cross-checks them by numerical
integration, predicts satellite passes from TLEs and fits lab measurements.

Every option can be set in a TOML scenario (--config), in the environment
(e.g. ORBSIM_ORBIT_R0) or on the command line, the latter winning.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = orbsim.NewLogger(os.Stderr, verbose)
		if metricsFile != "" {
			stats = metrics.New()
		}
		if err := orbsim.ReadConfigFile(v, cfgFile); err != nil {
			return err
		}
		if cfgFile != "" {
			logger.Log("level", "info", "subsys", "config", "file", cfgFile)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if err := stats.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "scenario TOML file")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log info records with timestamps")

	rootCmd.PersistentFlags().String("out-dir", ".", "output directory")
	rootCmd.PersistentFlags().Bool("csv", false, "export CSV files")
	rootCmd.PersistentFlags().Bool("xyzv", false, "export xyzv files (twobody and kepler only)")
	rootCmd.PersistentFlags().Bool("timestamp", false, "add the date to the output file names")
	if err := bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"export.dir":       "out-dir",
		"export.csv":       "csv",
		"export.xyzv":      "xyzv",
		"export.timestamp": "timestamp",
	}); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(keplerCmd, twobodyCmd, passesCmd, fitCmd)
}

// bindFlags binds each configuration key to its flag. Subcommands sharing keys bind in
// their PreRunE since viper keeps a single flag per key.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding %s to --%s: %w", key, name, err)
		}
	}
	return nil
}

// bindOnRun returns a PreRunE binding the keys to the flags of the command being run.
func bindOnRun(keys ...map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for _, k := range keys {
			if err := bindFlags(cmd.Flags(), k); err != nil {
				return err
			}
		}
		return nil
	}
}

func loadConfig() (orbsim.Config, error) {
	return orbsim.ConfigFromViper(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	// cobra prints the error.
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
