package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Scenario YAML
	policyPath string // Optional policy bundle layered over the scenario
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "missionsim",
	Short: "Time-stepped satellite link mission simulator",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	for _, c := range []*cobra.Command{runCmd, sweepCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Scenario YAML file")
		c.Flags().StringVar(&policyPath, "policy", "", "Policy bundle YAML layered over the scenario")
		_ = c.MarkFlagRequired("config")
	}

	runCmd.Flags().Float64Var(&startS, "start", 0, "Override mission start (s)")
	runCmd.Flags().Float64Var(&endS, "end", 0, "Override mission end (s)")
	runCmd.Flags().Float64Var(&stepS, "step", 0, "Override mission step (s)")
	runCmd.Flags().StringVar(&seriesPath, "series", "", "Write the time series CSV here (.zst compresses)")
	runCmd.Flags().StringVar(&summaryPath, "summary", "", "Write the JSON summary here")
	runCmd.Flags().StringVar(&outDir, "out", "", "Write series, summary and a scenario snapshot into a run directory under this path")
	runCmd.Flags().BoolVar(&traceSpans, "trace-spans", false, "Print OpenTelemetry spans to stderr")

	sweepCmd.Flags().StringArrayVar(&sweepAxes, "set", nil, "Swept parameter: key=v1,v2 or key=lo:hi:n (lhs: key=lo:hi)")
	sweepCmd.Flags().StringVar(&sweepDesign, "design", "full", "Design of experiments (full, lhs)")
	sweepCmd.Flags().IntVar(&sweepSamples, "samples", 16, "Number of Latin hypercube samples")
	sweepCmd.Flags().Int64Var(&sweepSeed, "seed", 42, "Seed for sampled designs")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Concurrent runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus text-format sweep metrics here")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "Write per-case results CSV here")
	sweepCmd.Flags().BoolVar(&traceSpans, "trace-spans", false, "Print OpenTelemetry spans to stderr")

	modcodsCmd.Flags().Float64Var(&targetBLER, "target-bler", 1e-5, "Target block error rate for required Eb/N0")

	rootCmd.AddCommand(runCmd, sweepCmd, modcodsCmd)
}
