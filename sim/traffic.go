package sim

import (
	"fmt"
	"math"
)

// TrafficDemand is one session competing for link capacity.
type TrafficDemand struct {
	ID           string
	RequestedBps float64
	Weight       float64 // priority weight; <= 0 is treated as 1
	StartS       float64 // arrival time
	DurationS    float64 // 0 = until the end of the run
}

// Active reports whether the demand's arrival/duration window contains tS.
func (d TrafficDemand) Active(tS float64) bool {
	if tS < d.StartS {
		return false
	}
	return d.DurationS <= 0 || tS < d.StartS+d.DurationS
}

func (d TrafficDemand) weight() float64 {
	if d.Weight <= 0 {
		return 1
	}
	return d.Weight
}

// TrafficProfile returns the active demands at a timestep, with requested
// rates scaled by the profile's time pattern. Input order is preserved.
type TrafficProfile interface {
	DemandsAt(tS float64) []TrafficDemand
	// Demands returns the unscaled demand set, active or not.
	Demands() []TrafficDemand
}

// TrafficConfig selects and parameterizes a traffic profile.
type TrafficConfig struct {
	Profile         string // "constant" (default), "ramp", "burst"
	Demands         []TrafficDemand
	RampFactor      float64 // ramp: multiplier reached at the end of the run
	BurstPeriodS    float64
	BurstDurationS  float64
	BurstMultiplier float64
}

// ValidTrafficProfiles is the set of recognized profile names.
var ValidTrafficProfiles = map[string]bool{"": true, "constant": true, "ramp": true, "burst": true}

// Validate checks profile name, demand IDs and pattern parameters.
func (c TrafficConfig) Validate() error {
	if !ValidTrafficProfiles[c.Profile] {
		return fmt.Errorf("%w: unknown traffic profile %q", ErrConfig, c.Profile)
	}
	if len(c.Demands) == 0 {
		return fmt.Errorf("%w: traffic profile has no demands", ErrConfig)
	}
	seen := make(map[string]bool, len(c.Demands))
	for _, d := range c.Demands {
		if d.ID == "" {
			return fmt.Errorf("%w: traffic demand without id", ErrConfig)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate traffic demand %q", ErrConfig, d.ID)
		}
		seen[d.ID] = true
		if d.RequestedBps < 0 || math.IsNaN(d.RequestedBps) {
			return fmt.Errorf("%w: demand %q requested rate must be non-negative", ErrConfig, d.ID)
		}
	}
	switch c.Profile {
	case "ramp":
		if c.RampFactor < 0 {
			return fmt.Errorf("%w: ramp_factor must be non-negative, got %g", ErrConfig, c.RampFactor)
		}
	case "burst":
		if c.BurstPeriodS <= 0 {
			return fmt.Errorf("%w: burst_period_s must be positive, got %g", ErrConfig, c.BurstPeriodS)
		}
		if c.BurstDurationS < 0 || c.BurstMultiplier < 0 {
			return fmt.Errorf("%w: burst duration and multiplier must be non-negative", ErrConfig)
		}
	}
	return nil
}

// NewTrafficProfile builds the configured profile for the window [t0S, t1S].
// cfg must have passed Validate.
func NewTrafficProfile(cfg TrafficConfig, t0S, t1S float64) TrafficProfile {
	switch cfg.Profile {
	case "", "constant":
		return &ConstantProfile{demands: cfg.Demands}
	case "ramp":
		factor := cfg.RampFactor
		if factor == 0 {
			factor = 2
		}
		return &RampProfile{demands: cfg.Demands, Factor: factor, StartS: t0S, EndS: t1S}
	case "burst":
		mult := cfg.BurstMultiplier
		if mult == 0 {
			mult = 3
		}
		return &BurstProfile{demands: cfg.Demands, PeriodS: cfg.BurstPeriodS, DurationS: cfg.BurstDurationS, Multiplier: mult}
	default:
		panic(fmt.Sprintf("unhandled traffic profile %q", cfg.Profile))
	}
}

// ConstantProfile serves each demand at its nominal rate.
type ConstantProfile struct {
	demands []TrafficDemand
}

func (p *ConstantProfile) Demands() []TrafficDemand { return p.demands }

func (p *ConstantProfile) DemandsAt(tS float64) []TrafficDemand {
	return scaledActive(p.demands, tS, 1)
}

// RampProfile scales demand linearly from 1 at StartS to Factor at EndS.
type RampProfile struct {
	demands []TrafficDemand
	Factor  float64
	StartS  float64
	EndS    float64
}

func (p *RampProfile) Demands() []TrafficDemand { return p.demands }

func (p *RampProfile) DemandsAt(tS float64) []TrafficDemand {
	scale := 1.0
	if span := p.EndS - p.StartS; span > 0 {
		frac := math.Min(math.Max((tS-p.StartS)/span, 0), 1)
		scale = 1 + (p.Factor-1)*frac
	}
	return scaledActive(p.demands, tS, scale)
}

// BurstProfile multiplies demand by Multiplier for the first DurationS of
// every PeriodS.
type BurstProfile struct {
	demands    []TrafficDemand
	PeriodS    float64
	DurationS  float64
	Multiplier float64
}

func (p *BurstProfile) Demands() []TrafficDemand { return p.demands }

func (p *BurstProfile) DemandsAt(tS float64) []TrafficDemand {
	scale := 1.0
	phase := math.Mod(tS, p.PeriodS)
	if phase < 0 {
		phase += p.PeriodS
	}
	if phase < p.DurationS {
		scale = p.Multiplier
	}
	return scaledActive(p.demands, tS, scale)
}

func scaledActive(demands []TrafficDemand, tS, scale float64) []TrafficDemand {
	out := make([]TrafficDemand, 0, len(demands))
	for _, d := range demands {
		if !d.Active(tS) {
			continue
		}
		d.RequestedBps *= scale
		out = append(out, d)
	}
	return out
}
