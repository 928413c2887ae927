package sim

import (
	"fmt"
	"math"
	"sort"
)

// Allocation is the rate granted to one demand for one timestep.
type Allocation struct {
	DemandID     string
	RequestedBps float64
	AllocatedBps float64
}

// Scheduler divides a shared capacity among the active demands of a
// timestep. Allocations are returned in input order and never sum to more
// than capacityBps. Implementations are deterministic given the same demand
// order and prior state.
type Scheduler interface {
	Allocate(tS float64, demands []TrafficDemand, capacityBps float64) []Allocation
}

// DefaultPFDecay is the EMA weight given to the newest served rate.
const DefaultPFDecay = 0.1

// pfRateFloorBps keeps the proportional-fair ratio finite for demands that
// have never been served.
const pfRateFloorBps = 1.0

// RoundRobinScheduler serves demands in rotation; each timestep's rotation
// starts after the last demand served in the previous one.
type RoundRobinScheduler struct {
	lastServedID string
	next         int // fallback start when lastServedID left the demand set
}

func (s *RoundRobinScheduler) Allocate(_ float64, demands []TrafficDemand, capacityBps float64) []Allocation {
	allocs := newAllocations(demands)
	n := len(demands)
	if n == 0 {
		return allocs
	}
	start := s.next % n
	for i, d := range demands {
		if s.lastServedID != "" && d.ID == s.lastServedID {
			start = (i + 1) % n
			break
		}
	}

	remaining := capacityBps
	for k := 0; k < n && remaining > 0; k++ {
		i := (start + k) % n
		req := demands[i].RequestedBps
		if req <= 0 {
			continue
		}
		grant := math.Min(req, remaining)
		allocs[i].AllocatedBps = grant
		remaining -= grant
		s.lastServedID = demands[i].ID
		s.next = i + 1
	}
	return allocs
}

// ProportionalFairScheduler ranks demands by weight × achievable rate ÷ EMA
// of past service and fills greedily. Ties keep input order.
type ProportionalFairScheduler struct {
	Decay float64
	ema   map[string]float64
}

// NewProportionalFairScheduler creates a scheduler with the given EMA decay.
// A decay outside (0, 1] selects DefaultPFDecay.
func NewProportionalFairScheduler(decay float64) *ProportionalFairScheduler {
	if !(decay > 0 && decay <= 1) {
		decay = DefaultPFDecay
	}
	return &ProportionalFairScheduler{Decay: decay, ema: make(map[string]float64)}
}

// AverageBps returns the served-rate EMA of a demand (0 if never seen).
func (s *ProportionalFairScheduler) AverageBps(id string) float64 { return s.ema[id] }

func (s *ProportionalFairScheduler) Allocate(_ float64, demands []TrafficDemand, capacityBps float64) []Allocation {
	allocs := newAllocations(demands)
	capacity := math.Max(capacityBps, 0)

	ratio := make([]float64, len(demands))
	order := make([]int, len(demands))
	for i, d := range demands {
		achievable := math.Min(d.RequestedBps, capacity)
		ratio[i] = d.weight() * achievable / math.Max(s.ema[d.ID], pfRateFloorBps)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ratio[order[a]] > ratio[order[b]]
	})

	remaining := capacity
	for _, i := range order {
		if remaining <= 0 {
			break
		}
		req := demands[i].RequestedBps
		if req <= 0 {
			continue
		}
		grant := math.Min(req, remaining)
		allocs[i].AllocatedBps = grant
		remaining -= grant
	}

	for i, d := range demands {
		s.ema[d.ID] = (1-s.Decay)*s.ema[d.ID] + s.Decay*allocs[i].AllocatedBps
	}
	return allocs
}

func newAllocations(demands []TrafficDemand) []Allocation {
	allocs := make([]Allocation, len(demands))
	for i, d := range demands {
		allocs[i] = Allocation{DemandID: d.ID, RequestedBps: d.RequestedBps}
	}
	return allocs
}

// ValidSchedulers is the set of recognized scheduler names.
// Shared by PolicyBundle.Validate() and NewScheduler().
var ValidSchedulers = map[string]bool{"": true, "round-robin": true, "proportional-fair": true}

// IsValidScheduler reports whether name is a recognized scheduler.
func IsValidScheduler(name string) bool { return ValidSchedulers[name] }

// NewScheduler creates a Scheduler by name. Empty string selects
// proportional-fair. Panics on unrecognized names.
func NewScheduler(name string, pfDecay float64) Scheduler {
	if !IsValidScheduler(name) {
		panic(fmt.Sprintf("unknown scheduler %q", name))
	}
	switch name {
	case "", "proportional-fair":
		return NewProportionalFairScheduler(pfDecay)
	case "round-robin":
		return &RoundRobinScheduler{}
	default:
		panic(fmt.Sprintf("unhandled scheduler %q", name))
	}
}
