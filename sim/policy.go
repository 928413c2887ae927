package sim

import (
	"fmt"
	"math"
)

// OpsPolicy holds the operations thresholds applied to every timestep.
// Supplied once per run and never mutated.
type OpsPolicy struct {
	MinElevationDeg     float64 // link is ineligible below this elevation
	MaxScanDeg          float64 // link is ineligible beyond this off-boresight angle
	HandoverHysteresisS float64 // advantage must persist this long before a handover
	ACMHoldTimeS        float64 // minimum time between non-forced ModCod switches
}

// DefaultOpsPolicy returns the thresholds used when a scenario leaves them unset.
func DefaultOpsPolicy() OpsPolicy {
	return OpsPolicy{
		MinElevationDeg:     10,
		MaxScanDeg:          60,
		HandoverHysteresisS: 5,
		ACMHoldTimeS:        2,
	}
}

// Validate checks that all thresholds are present and in range.
func (p OpsPolicy) Validate() error {
	for name, v := range map[string]float64{
		"min_elevation_deg":     p.MinElevationDeg,
		"max_scan_deg":          p.MaxScanDeg,
		"handover_hysteresis_s": p.HandoverHysteresisS,
		"acm_hold_time_s":       p.ACMHoldTimeS,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: ops policy %s is not set", ErrConfig, name)
		}
	}
	if p.MinElevationDeg < -90 || p.MinElevationDeg > 90 {
		return fmt.Errorf("%w: min_elevation_deg must be within [-90, 90], got %g", ErrConfig, p.MinElevationDeg)
	}
	if p.MaxScanDeg <= 0 || p.MaxScanDeg > 180 {
		return fmt.Errorf("%w: max_scan_deg must be within (0, 180], got %g", ErrConfig, p.MaxScanDeg)
	}
	if p.HandoverHysteresisS < 0 {
		return fmt.Errorf("%w: handover_hysteresis_s must be non-negative, got %g", ErrConfig, p.HandoverHysteresisS)
	}
	if p.ACMHoldTimeS < 0 {
		return fmt.Errorf("%w: acm_hold_time_s must be non-negative, got %g", ErrConfig, p.ACMHoldTimeS)
	}
	return nil
}

// Gate reasons.
const (
	GateEligible          = ""
	GateBelowMinElevation = "below-min-elevation"
	GateScanLimit         = "scan-limit"
)

// Gate is the ops-policy eligibility filter. It is a pure function:
// ineligible geometry forces the timestep into outage regardless of margin.
func Gate(geom Geometry, p OpsPolicy) (eligible bool, reason string) {
	if geom.ElevationDeg < p.MinElevationDeg {
		return false, GateBelowMinElevation
	}
	if geom.ScanDeg > p.MaxScanDeg {
		return false, GateScanLimit
	}
	return true, GateEligible
}
