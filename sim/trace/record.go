// Package trace provides decision-trace recording for mission analysis.
// This package has no dependencies on sim/; it stores pure data types only.
package trace

// ModeSwitchRecord captures a single ACM mode change.
type ModeSwitchRecord struct {
	TimeS  float64
	From   string // "" = no lock
	To     string
	EbN0DB float64
	Reason string
	Forced bool
}

// CandidateMargin captures one satellite considered by a handover decision.
type CandidateMargin struct {
	SatelliteID string
	MarginDB    float64
	RangeM      float64
	Eligible    bool
}

// HandoverRecord captures a change of serving satellite with the candidate
// set it was chosen from.
type HandoverRecord struct {
	TimeS      float64
	From       string
	To         string // "" = no eligible candidate
	Reason     string
	MarginDB   float64
	Candidates []CandidateMargin // sorted by margin desc (nil if k=0)
	Regret     float64           // best eligible margin - chosen margin; 0 if chosen is best
}

// Grant is one demand's share of an allocation.
type Grant struct {
	DemandID     string
	RequestedBps float64
	AllocatedBps float64
}

// AllocationRecord captures one scheduler decision.
type AllocationRecord struct {
	TimeS       float64
	CapacityBps float64
	Grants      []Grant
}

// Utilization returns the allocated fraction of capacity (0 when capacity is 0).
func (r AllocationRecord) Utilization() float64 {
	if r.CapacityBps <= 0 {
		return 0
	}
	used := 0.0
	for _, g := range r.Grants {
		used += g.AllocatedBps
	}
	return used / r.CapacityBps
}
