package modem

import (
	"fmt"

	"github.com/opensatcom/missionsim/sim"
)

// Defaults applied by Build when the spec leaves them unset.
const (
	DefaultTargetBLER   = 1e-5
	DefaultHysteresisDB = 0.5
)

// CustomModCod is a user-defined ModCod with either an analytic reference
// threshold or a measured curve.
type CustomModCod struct {
	Name          string       `yaml:"name"`
	BitsPerSymbol float64      `yaml:"bits_per_symbol"`
	CodeRate      float64      `yaml:"code_rate"`
	Rolloff       *float64     `yaml:"rolloff"`
	PilotOverhead float64      `yaml:"pilot_overhead"`
	ImplMarginDB  float64      `yaml:"impl_margin_db"`
	RefEbN0DB     *float64     `yaml:"ref_ebn0_db"`
	Curve         []CurvePoint `yaml:"curve"`
}

// Spec describes the modem block of a scenario.
type Spec struct {
	Table        string         `yaml:"table"`   // "dvbs2" or "" (custom only)
	ModCods      []string       `yaml:"modcods"` // subset of Table; empty = all
	Custom       []CustomModCod `yaml:"custom"`
	TargetBLER   float64        `yaml:"target_bler"`
	HysteresisDB *float64       `yaml:"hysteresis_db"`
	ImplMarginDB float64        `yaml:"impl_margin_db"` // added to every table entry
}

// Build resolves the spec into an ACM configuration. The hold time is left
// zero; the mission supplies it from its ops policy.
func Build(spec Spec) (*sim.ModemConfig, error) {
	cfg := &sim.ModemConfig{
		TargetBLER:   spec.TargetBLER,
		HysteresisDB: DefaultHysteresisDB,
	}
	if cfg.TargetBLER == 0 {
		cfg.TargetBLER = DefaultTargetBLER
	}
	if spec.HysteresisDB != nil {
		cfg.HysteresisDB = *spec.HysteresisDB
	}

	switch spec.Table {
	case "":
		if len(spec.ModCods) > 0 {
			return nil, fmt.Errorf("modcods listed without a table")
		}
	case "dvbs2", "dvb-s2":
		modes, err := DVBS2Modes(spec.ModCods)
		if err != nil {
			return nil, err
		}
		for i := range modes {
			modes[i].ImplMarginDB += spec.ImplMarginDB
		}
		cfg.Modes = append(cfg.Modes, modes...)
	default:
		return nil, fmt.Errorf("unknown modcod table %q", spec.Table)
	}

	for _, c := range spec.Custom {
		mc := ModCod{
			Name:          c.Name,
			BitsPerSymbol: c.BitsPerSymbol,
			CodeRate:      c.CodeRate,
			Rolloff:       DefaultRolloff,
			PilotOverhead: c.PilotOverhead,
			ImplMarginDB:  c.ImplMarginDB,
		}
		if c.Rolloff != nil {
			mc.Rolloff = *c.Rolloff
		}
		if err := mc.Validate(); err != nil {
			return nil, err
		}
		var curve sim.PerformanceCurve
		switch {
		case len(c.Curve) > 0:
			tc, err := NewTableCurve(c.Curve)
			if err != nil {
				return nil, fmt.Errorf("modcod %s: %w", c.Name, err)
			}
			curve = tc
		case c.RefEbN0DB != nil:
			curve = NewAnalyticCurve(*c.RefEbN0DB)
		default:
			return nil, fmt.Errorf("modcod %s: needs ref_ebn0_db or curve points", c.Name)
		}
		cfg.Modes = append(cfg.Modes, mc.Mode(curve))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
