package orbit

import (
	"fmt"
	"math"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/geo"
)

// SyntheticPass sweeps elevation linearly from MinElevationDeg up to
// MaxElevationDeg at mid-pass and back down, at a fixed azimuth. Range
// follows from the satellite altitude. Outside the pass window the
// satellite sits at MinElevationDeg.
type SyntheticPass struct {
	Site            geo.Site
	AltitudeM       float64
	MinElevationDeg float64
	MaxElevationDeg float64
	AzimuthDeg      float64
	// PassStartS and PassEndS bound the sweep; NaN = the requested window.
	PassStartS float64
	PassEndS   float64
}

// ElevationAt returns the pass elevation at tS within [startS, endS].
func (p SyntheticPass) ElevationAt(tS, startS, endS float64) float64 {
	if !(endS > startS) || tS <= startS || tS >= endS {
		return p.MinElevationDeg
	}
	frac := (tS - startS) / (endS - startS)
	if frac > 0.5 {
		frac = 1 - frac
	}
	return p.MinElevationDeg + 2*frac*(p.MaxElevationDeg-p.MinElevationDeg)
}

// States implements sim.TrajectorySource.
func (p SyntheticPass) States(t0S, t1S, dtS float64) ([]sim.SatState, error) {
	start, end := p.PassStartS, p.PassEndS
	if math.IsNaN(start) {
		start = t0S
	}
	if math.IsNaN(end) {
		end = t1S
	}
	ts := stepTimes(t0S, t1S, dtS)
	states := make([]sim.SatState, len(ts))
	for i, t := range ts {
		el := p.ElevationAt(t, start, end)
		states[i] = lookState(t, p.Site, geo.Look{
			AzimuthDeg:   p.AzimuthDeg,
			ElevationDeg: el,
			RangeM:       geo.SlantRangeM(p.Site.AltM, p.AltitudeM, el),
		})
	}
	fillVelocities(states)
	return states, nil
}

func newSyntheticPass(ground sim.Terminal, params sim.Params) (sim.TrajectorySource, error) {
	p := SyntheticPass{Site: ground.Site}
	var err error
	if p.AltitudeM, err = params.Float("altitude_m", 0); err != nil {
		return nil, err
	}
	if !(p.AltitudeM > ground.Site.AltM) {
		return nil, fmt.Errorf("altitude_m must be above the ground terminal, got %g", p.AltitudeM)
	}
	if p.MinElevationDeg, err = params.Float("min_elevation_deg", 5); err != nil {
		return nil, err
	}
	if p.MaxElevationDeg, err = params.Float("max_elevation_deg", 80); err != nil {
		return nil, err
	}
	if p.MinElevationDeg < -90 || p.MaxElevationDeg > 90 || p.MinElevationDeg > p.MaxElevationDeg {
		return nil, fmt.Errorf("elevation sweep [%g, %g] is not within [-90, 90]", p.MinElevationDeg, p.MaxElevationDeg)
	}
	if p.AzimuthDeg, err = params.Float("azimuth_deg", 0); err != nil {
		return nil, err
	}
	if p.PassStartS, err = params.Float("pass_start_s", math.NaN()); err != nil {
		return nil, err
	}
	if p.PassEndS, err = params.Float("pass_end_s", math.NaN()); err != nil {
		return nil, err
	}
	return p, nil
}
