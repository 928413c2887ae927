package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a finished time series. Margin statistics cover every
// step with an evaluated margin and are NaN when there is none;
// WorstMarginDB covers non-outage steps only and is nil when every step was
// an outage.
type Summary struct {
	Steps         int
	StepS         float64
	Availability  float64
	OutageMinutes float64
	OutageSteps   map[OutageReason]int

	MarginSamples int
	MarginP05DB   float64
	MarginP50DB   float64
	MarginP95DB   float64
	MarginMeanDB  float64
	WorstMarginDB *float64

	ThroughputP05Bps  float64
	ThroughputP50Bps  float64
	ThroughputP95Bps  float64
	ThroughputMeanBps float64

	ModeOccupancy  map[string]int     // mode → non-outage steps spent in it
	HandoverCount  int                // satellite-to-satellite switches (Tier 2)
	ContactSeconds map[string]float64 // satellite → time spent serving

	// DemandSatisfaction is served ÷ requested volume per demand (Tier 3).
	DemandSatisfaction map[string]float64

	DataUnavailableSteps  int
	EvaluationFailedSteps int
}

// Summarize computes the summary of a series sampled every stepS seconds.
// handovers is the Tier 2 decision log, or nil.
func Summarize(series []TimeSeriesSample, stepS float64, handovers []HandoverDecision) Summary {
	s := Summary{
		Steps:          len(series),
		StepS:          stepS,
		OutageSteps:    make(map[OutageReason]int),
		ModeOccupancy:  make(map[string]int),
		ContactSeconds: make(map[string]float64),
	}
	if len(series) == 0 {
		return s
	}

	margins := make([]float64, 0, len(series))
	throughput := make([]float64, 0, len(series))
	outages := 0
	for _, smp := range series {
		if smp.SatelliteID != "" {
			s.ContactSeconds[smp.SatelliteID] += stepS
		}
		if smp.Outage {
			outages++
			s.OutageSteps[smp.OutageReason]++
			continue
		}
		// Margin and throughput statistics cover non-outage steps only.
		throughput = append(throughput, smp.ThroughputBps)
		if !math.IsNaN(smp.MarginDB) {
			margins = append(margins, smp.MarginDB)
		}
		if s.WorstMarginDB == nil || smp.MarginDB < *s.WorstMarginDB {
			worst := smp.MarginDB
			s.WorstMarginDB = &worst
		}
		if smp.Mode != "" {
			s.ModeOccupancy[smp.Mode]++
		}
	}

	s.Availability = float64(len(series)-outages) / float64(len(series))
	s.OutageMinutes = float64(outages) * stepS / 60
	s.DataUnavailableSteps = s.OutageSteps[OutageDataUnavailable]
	s.EvaluationFailedSteps = s.OutageSteps[OutageEvaluationFailed]

	s.MarginSamples = len(margins)
	s.MarginP05DB, s.MarginP50DB, s.MarginP95DB, s.MarginMeanDB = percentiles(margins)
	s.ThroughputP05Bps, s.ThroughputP50Bps, s.ThroughputP95Bps, s.ThroughputMeanBps = percentiles(throughput)

	for _, d := range handovers {
		if d.IsHandover {
			s.HandoverCount++
		}
	}
	return s
}

// percentiles returns p05, p50, p95 and mean of xs, or NaN for all four
// when xs is empty. xs is sorted in place.
func percentiles(xs []float64) (p05, p50, p95, mean float64) {
	if len(xs) == 0 {
		nan := math.NaN()
		return nan, nan, nan, nan
	}
	sort.Float64s(xs)
	return stat.Quantile(0.05, stat.LinInterp, xs, nil),
		stat.Quantile(0.50, stat.LinInterp, xs, nil),
		stat.Quantile(0.95, stat.LinInterp, xs, nil),
		stat.Mean(xs, nil)
}
