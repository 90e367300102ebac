package main

import (
	"fmt"
	"os"
	"strings"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/neurodyn/hh"
	"github.com/spf13/cobra"
)

// This tool reads a scenario, runs it, and hands the trajectory to the exports.

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hhsim",
		Short: "Hodgkin-Huxley membrane simulator",
		Long: `hhsim integrates the Hodgkin-Huxley equations of a single membrane patch
with forward Euler, driven by a stimulus current described in a scenario file.

Without --scenario (or $HH_SCENARIO) the reference scenario is used: 100 ms at
dt=0.001 ms with a 30 µA/cm² pulse between 30 and 50 ms.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("scenario", "", "scenario file (TOML, YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Float64("dt", 0, "override the time step (ms)")
	rootCmd.PersistentFlags().Int("steps", 0, "override the number of steps")
	rootCmd.PersistentFlags().String("policy", "", "override the singularity policy: propagate or limit")

	rootCmd.AddCommand(
		newRunCmd(),
		newPlotCmd(),
		newRatesCmd(),
		newRunsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hhsim version %s\n", version)
		},
	}
}

// newLogger returns a logfmt logger on the command's stderr filtered at the --log-level.
func newLogger(cmd *cobra.Command) (kitlog.Logger, error) {
	lvl, _ := cmd.Flags().GetString("log-level")
	var opt level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		opt = level.AllowDebug()
	case "info", "":
		opt = level.AllowInfo()
	case "warn", "warning":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(cmd.ErrOrStderr()))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	return level.NewFilter(logger, opt), nil
}

// loadScenario reads the scenario of --scenario and applies the command line overrides.
func loadScenario(cmd *cobra.Command) (hh.Scenario, error) {
	path, _ := cmd.Flags().GetString("scenario")
	scn, err := hh.LoadScenario(path)
	if err != nil {
		return scn, err
	}
	flags := cmd.Flags()
	if flags.Changed("dt") {
		scn.Dt, _ = flags.GetFloat64("dt")
	}
	if flags.Changed("steps") {
		scn.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("policy") {
		name, _ := flags.GetString("policy")
		if scn.Policy, err = hh.ParsePolicy(name); err != nil {
			return scn, err
		}
	}
	return scn, scn.Validate()
}

// simulate runs the scenario, warning if the time step is too large for the initial state.
func simulate(scn hh.Scenario, logger kitlog.Logger) (*hh.Trajectory, error) {
	n := scn.Neuron()
	stim := scn.Stimulus()
	if limit, err := n.EulerStepLimit(n.State, stim[0]); err != nil {
		level.Debug(logger).Log("subsys", "stability", "err", err)
	} else if scn.Dt >= limit {
		level.Warn(logger).Log("subsys", "stability", "dt(ms)", scn.Dt, "limit(ms)", limit, "message", "time step above the local Euler stability limit")
	}
	sim, err := hh.NewSimulation(scn.Name, n, stim, scn.Dt, hh.WithLogger(logger), hh.WithExport(scn.Export))
	if err != nil {
		return nil, err
	}
	return sim.Run()
}
