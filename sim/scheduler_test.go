package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equalDemands(ids ...string) []TrafficDemand {
	out := make([]TrafficDemand, len(ids))
	for i, id := range ids {
		out[i] = TrafficDemand{ID: id, RequestedBps: 10e6, Weight: 1}
	}
	return out
}

func totalAllocated(allocs []Allocation) float64 {
	sum := 0.0
	for _, a := range allocs {
		sum += a.AllocatedBps
	}
	return sum
}

func TestRoundRobin_ThreeDemandsCapacityForTwo_EachStarvedOnce(t *testing.T) {
	// GIVEN 3 equal demands and capacity for exactly 2 of them
	s := NewScheduler("round-robin", 0)
	demands := equalDemands("u1", "u2", "u3")
	served := map[string]int{}
	starved := map[string]int{}

	// WHEN scheduling 3 consecutive timesteps
	for step := 0; step < 3; step++ {
		allocs := s.Allocate(float64(step), demands, 20e6)
		require.Len(t, allocs, 3)
		assert.InDelta(t, 20e6, totalAllocated(allocs), 1e-6)
		for _, a := range allocs {
			switch a.AllocatedBps {
			case 10e6:
				served[a.DemandID]++
			case 0:
				starved[a.DemandID]++
			default:
				t.Errorf("partial allocation %v for %s", a.AllocatedBps, a.DemandID)
			}
		}
	}

	// THEN each demand is fully served twice and starved once
	for _, id := range []string{"u1", "u2", "u3"} {
		assert.Equal(t, 2, served[id], "served count for %s", id)
		assert.Equal(t, 1, starved[id], "starved count for %s", id)
	}
}

func TestRoundRobin_RotationStartsAfterLastServed(t *testing.T) {
	s := &RoundRobinScheduler{}
	demands := equalDemands("a", "b", "c", "d")

	first := s.Allocate(0, demands, 15e6)
	assert.Equal(t, []float64{10e6, 5e6, 0, 0}, allocated(first))

	// "b" was served last (partially), so the next turn begins at "c".
	second := s.Allocate(1, demands, 15e6)
	assert.Equal(t, []float64{0, 0, 10e6, 5e6}, allocated(second))
}

func TestRoundRobin_SkipsZeroRequestsAndZeroCapacity(t *testing.T) {
	s := &RoundRobinScheduler{}
	demands := []TrafficDemand{{ID: "idle"}, {ID: "busy", RequestedBps: 5}}

	assert.Equal(t, []float64{0, 5}, allocated(s.Allocate(0, demands, 100)))
	assert.Equal(t, []float64{0, 0}, allocated(s.Allocate(1, demands, 0)))
	assert.Empty(t, s.Allocate(2, nil, 100))
}

func TestProportionalFair_LowerHistoryGetsPriority(t *testing.T) {
	// GIVEN "heavy" has been served alone for a while
	pf := NewProportionalFairScheduler(0.1)
	for step := 0; step < 20; step++ {
		pf.Allocate(float64(step), []TrafficDemand{{ID: "heavy", RequestedBps: 10e6}}, 10e6)
	}
	require.Greater(t, pf.AverageBps("heavy"), 1e6)

	// WHEN "light" joins with the same request and capacity covers only one
	allocs := pf.Allocate(20, []TrafficDemand{
		{ID: "heavy", RequestedBps: 10e6},
		{ID: "light", RequestedBps: 10e6},
	}, 10e6)

	// THEN the demand with the lower average wins the scarce capacity
	assert.Equal(t, []float64{0, 10e6}, allocated(allocs))
}

func TestProportionalFair_WeightScalesRatio(t *testing.T) {
	pf := NewProportionalFairScheduler(0.1)
	allocs := pf.Allocate(0, []TrafficDemand{
		{ID: "bronze", RequestedBps: 10e6, Weight: 1},
		{ID: "gold", RequestedBps: 10e6, Weight: 4},
	}, 10e6)
	assert.Equal(t, []float64{0, 10e6}, allocated(allocs))
}

func TestProportionalFair_TiesKeepInputOrderAndEMAUpdates(t *testing.T) {
	pf := NewProportionalFairScheduler(0.5)
	demands := equalDemands("x", "y")

	allocs := pf.Allocate(0, demands, 10e6)
	assert.Equal(t, []float64{10e6, 0}, allocated(allocs))
	assert.InDelta(t, 5e6, pf.AverageBps("x"), 1e-6)
	assert.Zero(t, pf.AverageBps("y"))

	// The starved demand now has the lower average and is served next.
	allocs = pf.Allocate(1, demands, 10e6)
	assert.Equal(t, []float64{0, 10e6}, allocated(allocs))
	assert.InDelta(t, 2.5e6, pf.AverageBps("x"), 1e-6)
}

func TestProportionalFair_NeverExceedsCapacity(t *testing.T) {
	pf := NewProportionalFairScheduler(0)
	assert.Equal(t, DefaultPFDecay, pf.Decay)
	demands := []TrafficDemand{
		{ID: "a", RequestedBps: 3e6}, {ID: "b", RequestedBps: 7e6}, {ID: "c", RequestedBps: 11e6},
	}
	for step := 0; step < 50; step++ {
		capacity := float64(step%7) * 2e6
		allocs := pf.Allocate(float64(step), demands, capacity)
		assert.LessOrEqual(t, totalAllocated(allocs), capacity+1e-6)
		for _, a := range allocs {
			assert.LessOrEqual(t, a.AllocatedBps, a.RequestedBps)
		}
	}
}

func TestNewScheduler_UnknownNamePanics(t *testing.T) {
	assert.IsType(t, &ProportionalFairScheduler{}, NewScheduler("", 0.2))
	assert.IsType(t, &RoundRobinScheduler{}, NewScheduler("round-robin", 0))
	assert.Panics(t, func() { NewScheduler("lottery", 0) })
}

func allocated(allocs []Allocation) []float64 {
	out := make([]float64, len(allocs))
	for i, a := range allocs {
		out[i] = a.AllocatedBps
	}
	return out
}
