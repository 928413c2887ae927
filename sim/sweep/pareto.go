package sweep

import (
	"math"

	"github.com/opensatcom/missionsim/sim"
)

// Objective is one axis of a trade: a summary metric and its direction.
type Objective struct {
	Name     string
	Value    func(sim.Summary) float64
	Minimize bool
}

// Common objectives.
var (
	MaximizeAvailability = Objective{Name: "availability", Value: func(s sim.Summary) float64 { return s.Availability }}
	MinimizeOutage       = Objective{Name: "outage_minutes", Value: func(s sim.Summary) float64 { return s.OutageMinutes }, Minimize: true}
	MaximizeThroughput   = Objective{Name: "throughput_mean_bps", Value: func(s sim.Summary) float64 { return s.ThroughputMeanBps }}
	MinimizeHandovers    = Objective{Name: "handovers", Value: func(s sim.Summary) float64 { return float64(s.HandoverCount) }, Minimize: true}
)

// ParetoFront returns the successful results no other result dominates,
// in input order. A result dominates another when it is at least as good
// on every objective and strictly better on one.
func ParetoFront(results []Result, objectives ...Objective) []Result {
	var ok []Result
	for _, r := range results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	// Scores are minimized; an undefined statistic ranks worst.
	score := func(r Result, o Objective) float64 {
		v := o.Value(r.Summary)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		if o.Minimize {
			return v
		}
		return -v
	}
	dominates := func(a, b Result) bool {
		strictly := false
		for _, o := range objectives {
			sa, sb := score(a, o), score(b, o)
			if sa > sb {
				return false
			}
			if sa < sb {
				strictly = true
			}
		}
		return strictly
	}

	var front []Result
	for i, r := range ok {
		dominated := false
		for j, other := range ok {
			if i != j && dominates(other, r) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, r)
		}
	}
	return front
}
