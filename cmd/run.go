package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/export"
	"github.com/opensatcom/missionsim/sim/sweep"
	"github.com/opensatcom/missionsim/sim/trace"
)

var (
	startS      float64 // Mission start override
	endS        float64 // Mission end override
	stepS       float64 // Mission step override
	seriesPath  string  // Time series output
	summaryPath string  // JSON summary output
	outDir      string  // Run directory root
	traceSpans  bool    // Export spans to stderr
)

// buildMission turns scenario YAML into a mission, layering the policy
// bundle (if any) over the scenario's own policy sections.
func buildMission(data []byte, policy *sim.PolicyBundle) (*Scenario, *sim.Mission, error) {
	s, err := ParseScenario(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", sim.ErrConfig, err)
	}
	m, err := s.Build()
	if err != nil {
		return nil, nil, err
	}
	if policy != nil {
		policy.Apply(m)
		if err := m.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return s, m, nil
}

func loadPolicy() *sim.PolicyBundle {
	if policyPath == "" {
		return nil
	}
	bundle, err := sim.LoadPolicyBundle(policyPath)
	if err != nil {
		logrus.Fatalf("Failed to load policy bundle: %v", err)
	}
	if err := bundle.Validate(); err != nil {
		logrus.Fatalf("Invalid policy bundle: %v", err)
	}
	return bundle
}

// runCmd executes one mission and reports its summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one mission scenario",
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			logrus.Fatalf("Failed to read scenario: %v", err)
		}
		overrides := map[string]float64{}
		if cmd.Flags().Changed("start") {
			overrides["mission.start_s"] = startS
		}
		if cmd.Flags().Changed("end") {
			overrides["mission.end_s"] = endS
		}
		if cmd.Flags().Changed("step") {
			overrides["mission.step_s"] = stepS
		}
		if len(overrides) > 0 {
			if data, err = ApplyOverrides(data, overrides); err != nil {
				logrus.Fatalf("Failed to apply overrides: %v", err)
			}
		}

		scenario, m, err := buildMission(data, loadPolicy())
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
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

		runID := uuid.NewString()
		_, span := otel.Tracer(sweep.TracerName).Start(ctx, "mission.run")
		span.SetAttributes(
			attribute.String("run.id", runID),
			attribute.Int("mission.steps", m.Steps()),
			attribute.Int("mission.satellites", len(m.Satellites)),
		)
		logrus.Infof("run %s: %d steps, %d satellite(s)", runID, m.Steps(), len(m.Satellites))
		out, err := m.Run()
		if err != nil {
			span.RecordError(err)
			span.End()
			logrus.Fatalf("Mission aborted: %v", err)
		}
		span.SetAttributes(attribute.Float64("mission.availability", out.Summary.Availability))
		span.End()

		var ts *trace.TraceSummary
		if out.Trace != nil {
			ts = trace.Summarize(out.Trace)
		}
		report := export.NewReport(runID, out.Summary, ts)

		series, summary := seriesPath, summaryPath
		if outDir != "" {
			dir := filepath.Join(outDir, runID)
			if err := export.SaveSnapshot(dir, "scenario.yaml", data); err != nil {
				logrus.Fatalf("Failed to write snapshot: %v", err)
			}
			if series == "" {
				series = filepath.Join(dir, "series.csv.zst")
			}
			if summary == "" {
				summary = filepath.Join(dir, "summary.json")
			}
		}
		if series != "" {
			if err := export.SaveSeries(series, out.Series); err != nil {
				logrus.Fatalf("Failed to write series: %v", err)
			}
			logrus.Infof("series written to %s", series)
		}
		if summary != "" {
			if err := export.SaveReport(summary, report); err != nil {
				logrus.Fatalf("Failed to write summary: %v", err)
			}
			logrus.Infof("summary written to %s", summary)
		}

		name := scenario.Mission.Name
		if name == "" {
			name = runID
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(name, out.Summary, ts))
	},
}
