package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/export"
	"github.com/opensatcom/missionsim/sim/sweep"
)

var (
	sweepAxes    []string // --set values
	sweepDesign  string   // full or lhs
	sweepSamples int      // LHS sample count
	sweepSeed    int64    // LHS seed
	sweepWorkers int      // Concurrent runs
	metricsFile  string   // Prometheus textfile output
	sweepOut     string   // Per-case CSV output
)

// parseRange reads "key=lo:hi" for sampled designs.
func parseRange(s string) (sweep.Range, error) {
	key, spec, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	lo, hi, ok2 := strings.Cut(spec, ":")
	if !ok || !ok2 || key == "" {
		return sweep.Range{}, fmt.Errorf("range %q: expected key=lo:hi", s)
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return sweep.Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return sweep.Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if !(h >= l) {
		return sweep.Range{}, fmt.Errorf("range %q: hi below lo", s)
	}
	return sweep.Range{Key: key, Lo: l, Hi: h}, nil
}

// designCases builds the case list for the requested design.
func designCases(design string, axes []string, samples int, seed int64) ([]sweep.Case, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("no swept parameters (use --set)")
	}
	switch design {
	case "full":
		parsed := make([]sweep.Axis, 0, len(axes))
		for _, s := range axes {
			a, err := sweep.ParseAxis(s)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, a)
		}
		return sweep.FullFactorial(parsed), nil
	case "lhs":
		ranges := make([]sweep.Range, 0, len(axes))
		for _, s := range axes {
			r, err := parseRange(s)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, r)
		}
		if samples < 1 {
			return nil, fmt.Errorf("--samples must be positive, got %d", samples)
		}
		return sweep.LatinHypercube(ranges, samples, seed), nil
	default:
		return nil, fmt.Errorf("unknown design %q", design)
	}
}

// scenarioBuilder applies each case's overrides to the base scenario.
func scenarioBuilder(base []byte, policy *sim.PolicyBundle) sweep.Builder {
	return func(c sweep.Case) (*sim.Mission, error) {
		data, err := ApplyOverrides(base, c.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sim.ErrConfig, err)
		}
		_, m, err := buildMission(data, policy)
		return m, err
	}
}

// sweepCmd runs a design of experiments over one scenario
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a parameter sweep over a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		base, err := os.ReadFile(configPath)
		if err != nil {
			logrus.Fatalf("Failed to read scenario: %v", err)
		}
		policy := loadPolicy()
		if _, _, err := buildMission(base, policy); err != nil {
			logrus.Fatalf("Invalid base scenario: %v", err)
		}
		cases, err := designCases(sweepDesign, sweepAxes, sweepSamples, sweepSeed)
		if err != nil {
			logrus.Fatalf("Invalid sweep: %v", err)
		}

		ctx := cmd.Context()
		shutdown, err := sweep.InitTracing(ctx, traceSpans, os.Stderr)
		if err != nil {
			logrus.Fatalf("Failed to initialize tracing: %v", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				logrus.Warnf("tracing shutdown: %v", err)
			}
		}()

		reg := prometheus.NewRegistry()
		metrics, err := sweep.NewMetrics(reg)
		if err != nil {
			logrus.Fatalf("Failed to register metrics: %v", err)
		}
		runner := &sweep.Runner{
			Workers: sweepWorkers,
			Build:   scenarioBuilder(base, policy),
			Metrics: metrics,
			RunID:   uuid.NewString(),
		}
		logrus.Infof("sweep %s: %d cases", runner.RunID, len(cases))
		results, err := runner.Run(ctx, cases)
		if err != nil {
			logrus.Fatalf("Sweep stopped: %v", err)
		}

		if sweepOut != "" {
			f, err := os.Create(sweepOut)
			if err != nil {
				logrus.Fatalf("Failed to create %s: %v", sweepOut, err)
			}
			if err := export.WriteSweepCSV(f, results); err != nil {
				f.Close()
				logrus.Fatalf("Failed to write sweep results: %v", err)
			}
			if err := f.Close(); err != nil {
				logrus.Fatalf("Failed to write sweep results: %v", err)
			}
		}
		if metricsFile != "" {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				logrus.Fatalf("Failed to write metrics: %v", err)
			}
		}

		front := sweep.ParetoFront(results, sweep.MaximizeAvailability, sweep.MaximizeThroughput, sweep.MinimizeHandovers)
		fmt.Fprintln(cmd.OutOrStdout(), renderSweep(results, front))
	},
}
