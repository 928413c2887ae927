// Package environment provides propagation-condition sources: fixed
// conditions, scheduled rain events on top of a baseline, and a tabulated
// rain-rate series.
package environment

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/opensatcom/missionsim/sim"
)

// Static returns the same conditions at every step.
type Static struct {
	Base sim.Conditions
}

// Conditions implements sim.EnvironmentSource.
func (s Static) Conditions(_ float64, _, _ sim.Terminal) (sim.Conditions, error) {
	return s.Base, nil
}

// RainEvent is a rain cell over the ground terminal during [StartS, StartS+DurationS).
type RainEvent struct {
	StartS          float64
	DurationS       float64
	RainRateMmPerHr float64
}

func (e RainEvent) active(tS float64) bool {
	return tS >= e.StartS && tS < e.StartS+e.DurationS
}

// RainEvents overlays scheduled rain on baseline conditions. Overlapping
// events take the heaviest rate.
type RainEvents struct {
	Base   sim.Conditions
	Events []RainEvent
}

// Conditions implements sim.EnvironmentSource.
func (r RainEvents) Conditions(tS float64, _, _ sim.Terminal) (sim.Conditions, error) {
	c := r.Base
	for _, e := range r.Events {
		if e.active(tS) && e.RainRateMmPerHr > c.RainRateMmPerHr {
			c.RainRateMmPerHr = e.RainRateMmPerHr
		}
	}
	return c, nil
}

// Table interpolates rain rate over time. Steps outside the table, or
// adjacent to a NaN sample, have no data.
type Table struct {
	Base        sim.Conditions
	times       []float64
	rates       []float64
	first, last float64
	rate        interp.PiecewiseLinear
}

// NewTable fits a rain-rate series. Times must be strictly increasing; NaN
// rates mark gaps in the record.
func NewTable(base sim.Conditions, timesS, ratesMmPerHr []float64) (*Table, error) {
	if len(timesS) < 2 || len(timesS) != len(ratesMmPerHr) {
		return nil, fmt.Errorf("rain table needs at least 2 rows of equal length, got %d times and %d rates", len(timesS), len(ratesMmPerHr))
	}
	for i := 1; i < len(timesS); i++ {
		if !(timesS[i] > timesS[i-1]) {
			return nil, fmt.Errorf("rain table times not strictly increasing at row %d", i)
		}
	}
	for i, r := range ratesMmPerHr {
		if r < 0 {
			return nil, fmt.Errorf("rain table row %d: negative rain rate %g", i, r)
		}
	}
	t := &Table{
		Base:  base,
		times: append([]float64(nil), timesS...),
		rates: append([]float64(nil), ratesMmPerHr...),
		first: timesS[0],
		last:  timesS[len(timesS)-1],
	}
	if err := t.rate.Fit(t.times, t.rates); err != nil {
		return nil, err
	}
	return t, nil
}

// Conditions implements sim.EnvironmentSource.
func (t *Table) Conditions(tS float64, _, _ sim.Terminal) (sim.Conditions, error) {
	if tS < t.first || tS > t.last {
		return sim.Conditions{}, fmt.Errorf("%w: t=%gs outside rain table [%g, %g]", sim.ErrDataUnavailable, tS, t.first, t.last)
	}
	// the bracketing samples must both be present
	hi := sort.SearchFloat64s(t.times, tS)
	lo := hi
	if t.times[hi] != tS {
		lo = hi - 1
	}
	if math.IsNaN(t.rates[lo]) || math.IsNaN(t.rates[hi]) {
		return sim.Conditions{}, fmt.Errorf("%w: rain table gap at t=%gs", sim.ErrDataUnavailable, tS)
	}
	c := t.Base
	c.RainRateMmPerHr = t.rate.Predict(tS)
	return c, nil
}

// baseConditions reads the shared baseline parameters.
func baseConditions(params sim.Params) (sim.Conditions, error) {
	var c sim.Conditions
	var err error
	if c.RainRateMmPerHr, err = params.Float("rain_rate_mm_hr", 0); err != nil {
		return c, err
	}
	if c.RainRateMmPerHr < 0 {
		return c, fmt.Errorf("rain_rate_mm_hr must be non-negative, got %g", c.RainRateMmPerHr)
	}
	if c.ClimateRegion, err = params.String("climate_region", ""); err != nil {
		return c, err
	}
	if c.AvailabilityTarget, err = params.Float("availability_target", 0); err != nil {
		return c, err
	}
	if c.AvailabilityTarget < 0 || c.AvailabilityTarget >= 1 {
		return c, fmt.Errorf("availability_target must be within [0, 1), got %g", c.AvailabilityTarget)
	}
	if c.WaterVaporDensityGM3, err = params.Float("water_vapor_density_g_m3", 0); err != nil {
		return c, err
	}
	return c, nil
}

func newStatic(params sim.Params) (sim.EnvironmentSource, error) {
	base, err := baseConditions(params)
	if err != nil {
		return nil, err
	}
	return Static{Base: base}, nil
}

func newRainEvents(params sim.Params) (sim.EnvironmentSource, error) {
	base, err := baseConditions(params)
	if err != nil {
		return nil, err
	}
	raw, err := params.Maps("events")
	if err != nil {
		return nil, err
	}
	events := make([]RainEvent, len(raw))
	for i, p := range raw {
		var e RainEvent
		if e.StartS, err = p.Float("start_s", 0); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		if e.DurationS, err = p.Float("duration_s", 0); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		if e.RainRateMmPerHr, err = p.Float("rain_mm_hr", 0); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		if !(e.DurationS > 0) || e.RainRateMmPerHr < 0 {
			return nil, fmt.Errorf("events[%d]: duration must be positive and rain rate non-negative", i)
		}
		events[i] = e
	}
	return RainEvents{Base: base, Events: events}, nil
}

func newTable(params sim.Params) (sim.EnvironmentSource, error) {
	base, err := baseConditions(params)
	if err != nil {
		return nil, err
	}
	times, err := params.Floats("times_s")
	if err != nil {
		return nil, err
	}
	rates, err := params.Floats("rain_mm_hr")
	if err != nil {
		return nil, err
	}
	return NewTable(base, times, rates)
}
