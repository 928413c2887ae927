// Package orbit provides the trajectory sources of the mission simulator:
// a tabulated pass, a synthetic rise/fall pass and SGP4 propagation from a
// two-line element set. All of them return ECEF positions in metres, one
// state per requested step.
package orbit

import (
	"math"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/geo"
)

// stepTimes returns t0 + i·dt for i in [0, round((t1−t0)/dt)].
func stepTimes(t0S, t1S, dtS float64) []float64 {
	n := int(math.Round((t1S-t0S)/dtS)) + 1
	if n < 1 {
		return nil
	}
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = t0S + float64(i)*dtS
	}
	return ts
}

// fillVelocities sets VelocityMps from neighbouring positions: central
// differences where both neighbours are available, one-sided at gaps.
func fillVelocities(states []sim.SatState) {
	for i := range states {
		if !states[i].Available {
			continue
		}
		lo, hi := i, i
		if i > 0 && states[i-1].Available {
			lo = i - 1
		}
		if i+1 < len(states) && states[i+1].Available {
			hi = i + 1
		}
		dt := states[hi].TimeS - states[lo].TimeS
		if hi == lo || dt <= 0 {
			continue
		}
		states[i].VelocityMps = states[hi].PositionM.Sub(states[lo].PositionM).Scale(1 / dt)
	}
}

// lookState places a look direction from site into a SatState.
func lookState(tS float64, site geo.Site, look geo.Look) sim.SatState {
	return sim.SatState{TimeS: tS, PositionM: geo.FromLookAngles(site, look), Look: &look, Available: true}
}
