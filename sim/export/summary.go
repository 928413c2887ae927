package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/trace"
)

// Report is the JSON form of a run summary. Undefined statistics (no
// margin samples, all outage) are null.
type Report struct {
	RunID         string         `json:"run_id,omitempty"`
	Steps         int            `json:"steps"`
	StepS         float64        `json:"step_s"`
	Availability  float64        `json:"availability"`
	OutageMinutes float64        `json:"outage_minutes"`
	OutageSteps   map[string]int `json:"outage_steps"`

	MarginSamples int      `json:"margin_samples"`
	MarginP05DB   *float64 `json:"margin_p05_db"`
	MarginP50DB   *float64 `json:"margin_p50_db"`
	MarginP95DB   *float64 `json:"margin_p95_db"`
	MarginMeanDB  *float64 `json:"margin_mean_db"`
	WorstMarginDB *float64 `json:"worst_margin_db"`

	ThroughputP05Bps  *float64 `json:"throughput_p05_bps"`
	ThroughputP50Bps  *float64 `json:"throughput_p50_bps"`
	ThroughputP95Bps  *float64 `json:"throughput_p95_bps"`
	ThroughputMeanBps *float64 `json:"throughput_mean_bps"`

	ModeOccupancy      map[string]int     `json:"mode_occupancy,omitempty"`
	HandoverCount      int                `json:"handover_count"`
	ContactSeconds     map[string]float64 `json:"contact_seconds,omitempty"`
	DemandSatisfaction map[string]float64 `json:"demand_satisfaction,omitempty"`

	DataUnavailableSteps  int `json:"data_unavailable_steps"`
	EvaluationFailedSteps int `json:"evaluation_failed_steps"`

	Trace *trace.TraceSummary `json:"trace,omitempty"`
}

func num(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NewReport converts a summary. ts may be nil.
func NewReport(runID string, s sim.Summary, ts *trace.TraceSummary) Report {
	r := Report{
		RunID:                 runID,
		Steps:                 s.Steps,
		StepS:                 s.StepS,
		Availability:          s.Availability,
		OutageMinutes:         s.OutageMinutes,
		OutageSteps:           make(map[string]int, len(s.OutageSteps)),
		MarginSamples:         s.MarginSamples,
		MarginP05DB:           num(s.MarginP05DB),
		MarginP50DB:           num(s.MarginP50DB),
		MarginP95DB:           num(s.MarginP95DB),
		MarginMeanDB:          num(s.MarginMeanDB),
		WorstMarginDB:         s.WorstMarginDB,
		ThroughputP05Bps:      num(s.ThroughputP05Bps),
		ThroughputP50Bps:      num(s.ThroughputP50Bps),
		ThroughputP95Bps:      num(s.ThroughputP95Bps),
		ThroughputMeanBps:     num(s.ThroughputMeanBps),
		ModeOccupancy:         s.ModeOccupancy,
		HandoverCount:         s.HandoverCount,
		ContactSeconds:        s.ContactSeconds,
		DemandSatisfaction:    s.DemandSatisfaction,
		DataUnavailableSteps:  s.DataUnavailableSteps,
		EvaluationFailedSteps: s.EvaluationFailedSteps,
		Trace:                 ts,
	}
	for reason, n := range s.OutageSteps {
		r.OutageSteps[string(reason)] = n
	}
	return r
}

// WriteReportJSON writes an indented report.
func WriteReportJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SaveReport writes the report to path.
func SaveReport(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	if err := WriteReportJSON(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	return f.Close()
}

// SaveSnapshot copies the resolved configuration next to the artefacts.
func SaveSnapshot(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
