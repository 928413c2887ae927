package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyBundle holds operations, ACM, handover and scheduling policy,
// loadable from a YAML file. Nil pointer fields mean "not set in YAML";
// they do not override the scenario. String fields use empty string for
// "not set".
type PolicyBundle struct {
	Ops       OpsBundle       `yaml:"ops"`
	ACM       ACMBundle       `yaml:"acm"`
	Handover  HandoverBundle  `yaml:"handover"`
	Scheduler SchedulerBundle `yaml:"scheduler"`
}

// OpsBundle overrides OpsPolicy thresholds.
type OpsBundle struct {
	MinElevationDeg     *float64 `yaml:"min_elevation_deg"`
	MaxScanDeg          *float64 `yaml:"max_scan_deg"`
	HandoverHysteresisS *float64 `yaml:"handover_hysteresis_s"`
	ACMHoldTimeS        *float64 `yaml:"acm_hold_time_s"`
}

// ACMBundle overrides modem switching parameters.
type ACMBundle struct {
	TargetBLER   *float64 `yaml:"target_bler"`
	HysteresisDB *float64 `yaml:"hysteresis_db"`
}

// HandoverBundle overrides the handover margin threshold.
type HandoverBundle struct {
	HysteresisDB *float64 `yaml:"hysteresis_db"`
}

// SchedulerBundle selects the Tier 3 discipline.
type SchedulerBundle struct {
	Policy  string   `yaml:"policy"`
	PFDecay *float64 `yaml:"pf_decay"`
}

// LoadPolicyBundle reads and parses a YAML policy configuration file.
// Unknown keys are rejected.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	var bundle PolicyBundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that all policy names and parameter ranges in the bundle are valid.
func (b *PolicyBundle) Validate() error {
	if !IsValidScheduler(b.Scheduler.Policy) {
		return fmt.Errorf("%w: unknown scheduler %q", ErrConfig, b.Scheduler.Policy)
	}
	// Parameter range validation
	if v := b.Ops.MinElevationDeg; v != nil && (*v < -90 || *v > 90) {
		return fmt.Errorf("%w: min_elevation_deg must be within [-90, 90], got %f", ErrConfig, *v)
	}
	if v := b.Ops.MaxScanDeg; v != nil && (*v <= 0 || *v > 180) {
		return fmt.Errorf("%w: max_scan_deg must be within (0, 180], got %f", ErrConfig, *v)
	}
	if v := b.Ops.HandoverHysteresisS; v != nil && *v < 0 {
		return fmt.Errorf("%w: handover_hysteresis_s must be non-negative, got %f", ErrConfig, *v)
	}
	if v := b.Ops.ACMHoldTimeS; v != nil && *v < 0 {
		return fmt.Errorf("%w: acm_hold_time_s must be non-negative, got %f", ErrConfig, *v)
	}
	if v := b.ACM.TargetBLER; v != nil && (*v <= 0 || *v >= 1) {
		return fmt.Errorf("%w: target_bler must be within (0, 1), got %g", ErrConfig, *v)
	}
	if v := b.ACM.HysteresisDB; v != nil && *v < 0 {
		return fmt.Errorf("%w: acm hysteresis_db must be non-negative, got %f", ErrConfig, *v)
	}
	if v := b.Handover.HysteresisDB; v != nil && *v < 0 {
		return fmt.Errorf("%w: handover hysteresis_db must be non-negative, got %f", ErrConfig, *v)
	}
	if v := b.Scheduler.PFDecay; v != nil && (*v <= 0 || *v > 1) {
		return fmt.Errorf("%w: pf_decay must be within (0, 1], got %f", ErrConfig, *v)
	}
	return nil
}

// Apply overrides the mission's policy with every field set in the bundle.
func (b *PolicyBundle) Apply(m *Mission) {
	setIf(&m.Ops.MinElevationDeg, b.Ops.MinElevationDeg)
	setIf(&m.Ops.MaxScanDeg, b.Ops.MaxScanDeg)
	setIf(&m.Ops.HandoverHysteresisS, b.Ops.HandoverHysteresisS)
	setIf(&m.Ops.ACMHoldTimeS, b.Ops.ACMHoldTimeS)
	if m.Modem != nil {
		setIf(&m.Modem.TargetBLER, b.ACM.TargetBLER)
		setIf(&m.Modem.HysteresisDB, b.ACM.HysteresisDB)
	}
	setIf(&m.HandoverHysteresisDB, b.Handover.HysteresisDB)
	if b.Scheduler.Policy != "" {
		m.Scheduler = b.Scheduler.Policy
	}
	setIf(&m.PFDecay, b.Scheduler.PFDecay)
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
