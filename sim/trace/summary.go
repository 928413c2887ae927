package trace

// TraceSummary aggregates statistics from a MissionTrace.
type TraceSummary struct {
	ModeSwitches        int
	ForcedModeSwitches  int
	ServingChanges      int
	MeanRegretDB        float64
	MaxRegretDB         float64
	MeanUtilization     float64
	ModeDistribution    map[string]int // mode → count of switches into it
	ServingDistribution map[string]int // satellite ID → count of acquisitions
}

// Summarize computes aggregate statistics from a MissionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(mt *MissionTrace) *TraceSummary {
	summary := &TraceSummary{
		ModeDistribution:    make(map[string]int),
		ServingDistribution: make(map[string]int),
	}
	if mt == nil {
		return summary
	}

	summary.ModeSwitches = len(mt.ModeSwitches)
	for _, m := range mt.ModeSwitches {
		if m.Forced {
			summary.ForcedModeSwitches++
		}
		if m.To != "" {
			summary.ModeDistribution[m.To]++
		}
	}

	summary.ServingChanges = len(mt.Handovers)
	if len(mt.Handovers) > 0 {
		totalRegret := 0.0
		for _, h := range mt.Handovers {
			if h.To != "" {
				summary.ServingDistribution[h.To]++
			}
			totalRegret += h.Regret
			if h.Regret > summary.MaxRegretDB {
				summary.MaxRegretDB = h.Regret
			}
		}
		summary.MeanRegretDB = totalRegret / float64(len(mt.Handovers))
	}

	if len(mt.Allocations) > 0 {
		total := 0.0
		for _, a := range mt.Allocations {
			total += a.Utilization()
		}
		summary.MeanUtilization = total / float64(len(mt.Allocations))
	}

	return summary
}
