// Package modem provides ModCod tables and BLER performance curves for the
// ACM policy in sim.
package modem

import (
	"fmt"

	"github.com/opensatcom/missionsim/sim"
)

// DefaultRolloff is the DVB-S2 roll-off used when a ModCod leaves it unset.
const DefaultRolloff = 0.2

// ModCod is a modulation and coding pair.
type ModCod struct {
	Name          string
	BitsPerSymbol float64
	CodeRate      float64
	Rolloff       float64
	PilotOverhead float64 // fraction of symbols spent on pilots
	ImplMarginDB  float64
}

// NetSpectralEff returns information bits/s per Hz of occupied bandwidth.
func (m ModCod) NetSpectralEff() float64 {
	return m.BitsPerSymbol * m.CodeRate * (1 - m.PilotOverhead) / (1 + m.Rolloff)
}

// Validate rejects physically meaningless entries.
func (m ModCod) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("modcod without name")
	}
	if m.BitsPerSymbol <= 0 {
		return fmt.Errorf("modcod %s: bits_per_symbol must be positive", m.Name)
	}
	if m.CodeRate <= 0 || m.CodeRate > 1 {
		return fmt.Errorf("modcod %s: code_rate must be within (0, 1]", m.Name)
	}
	if m.Rolloff < 0 || m.PilotOverhead < 0 || m.PilotOverhead >= 1 {
		return fmt.Errorf("modcod %s: rolloff and pilot overhead out of range", m.Name)
	}
	return nil
}

// Mode binds the ModCod to a curve for use by sim.ACMPolicy.
func (m ModCod) Mode(curve sim.PerformanceCurve) sim.Mode {
	return sim.Mode{
		Name:           m.Name,
		NetSpectralEff: m.NetSpectralEff(),
		ImplMarginDB:   m.ImplMarginDB,
		Curve:          curve,
	}
}
