package link

import (
	"errors"
	"fmt"
	"math"

	"github.com/opensatcom/missionsim/sim"
)

// ReferenceTempK is the IEEE noise reference temperature.
const ReferenceTempK = 290.0

// Stage is one element of an RF chain (LNA, filter, cable, mixer, PA).
// Lossy elements have negative GainDB; a passive loss of L dB has a noise
// figure of L dB.
type Stage struct {
	Name          string   `yaml:"name"`
	GainDB        float64  `yaml:"gain_db"`
	NoiseFigureDB float64  `yaml:"nf_db"`
	IIP3DBm       *float64 `yaml:"iip3_dbm"` // nil = linear
}

// Chain is an ordered list of stages from input to output.
type Chain []Stage

// Validate rejects empty chains and non-physical stages.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return errors.New("rf chain needs at least one stage")
	}
	for i, s := range c {
		if math.IsNaN(s.GainDB) || math.IsInf(s.GainDB, 0) {
			return fmt.Errorf("stage %d (%s): gain must be finite", i, s.Name)
		}
		if !(s.NoiseFigureDB >= 0) || math.IsInf(s.NoiseFigureDB, 0) {
			return fmt.Errorf("stage %d (%s): noise figure must be finite and non-negative, got %g", i, s.Name, s.NoiseFigureDB)
		}
	}
	return nil
}

// GainDB is the end-to-end gain.
func (c Chain) GainDB() float64 {
	var g float64
	for _, s := range c {
		g += s.GainDB
	}
	return g
}

// NoiseFactor is the cascaded noise factor from the Friis formula:
// F = F1 + (F2-1)/G1 + (F3-1)/(G1*G2) + ...
func (c Chain) NoiseFactor() float64 {
	if len(c) == 0 {
		return 1
	}
	f := DBToLin(c[0].NoiseFigureDB)
	g := DBToLin(c[0].GainDB)
	for _, s := range c[1:] {
		f += (DBToLin(s.NoiseFigureDB) - 1) / g
		g *= DBToLin(s.GainDB)
	}
	return f
}

// NoiseFigureDB is the cascaded noise figure.
func (c Chain) NoiseFigureDB() float64 { return LinToDB(c.NoiseFactor()) }

// NoiseTempK is the equivalent input noise temperature, T0*(F-1).
func (c Chain) NoiseTempK() float64 { return ReferenceTempK * (c.NoiseFactor() - 1) }

// IIP3DBm is the cascaded input-referred third-order intercept,
// 1/IIP3 = 1/IIP3_1 + G1/IIP3_2 + G1*G2/IIP3_3 + ...
// ok is false when no stage declares an intercept.
func (c Chain) IIP3DBm() (iip3 float64, ok bool) {
	var inv float64
	g := 1.0
	for _, s := range c {
		if s.IIP3DBm != nil {
			inv += g / DBToLin(*s.IIP3DBm)
			ok = true
		}
		g *= DBToLin(s.GainDB)
	}
	if !ok || inv == 0 {
		return 0, false
	}
	return LinToDB(1 / inv), true
}

// LossDB is the chain's net loss as a positive number; a chain with net
// gain has zero loss.
func (c Chain) LossDB() float64 {
	return math.Max(0, -c.GainDB())
}

// RFChain describes the transmit and receive chains of a link. The receive
// chain's noise temperature adds to the antenna temperature to give the
// system noise temperature; the transmit chain's net loss sits between
// the PA and the antenna feed.
type RFChain struct {
	AntennaTempK float64 `yaml:"antenna_temp_k"`
	Rx           Chain   `yaml:"rx"`
	Tx           Chain   `yaml:"tx"`
}

// SystemNoiseTempK is AntennaTempK plus the receive chain's equivalent
// input noise temperature.
func (r RFChain) SystemNoiseTempK() float64 {
	return r.AntennaTempK + r.Rx.NoiseTempK()
}

// Apply derives cfg.SystemNoiseTempK from the receive chain and
// cfg.TxLossesDB from the transmit chain. A chain and its scalar
// counterpart are mutually exclusive.
func (r RFChain) Apply(cfg *sim.LinkConfig) error {
	if r.AntennaTempK < 0 || math.IsNaN(r.AntennaTempK) {
		return fmt.Errorf("%w: antenna_temp_k must be non-negative, got %g", sim.ErrConfig, r.AntennaTempK)
	}
	if len(r.Rx) > 0 {
		if cfg.SystemNoiseTempK != 0 {
			return fmt.Errorf("%w: system_noise_temp_k and rf_chain.rx are mutually exclusive", sim.ErrConfig)
		}
		if err := r.Rx.Validate(); err != nil {
			return fmt.Errorf("%w: rx %v", sim.ErrConfig, err)
		}
		cfg.SystemNoiseTempK = r.SystemNoiseTempK()
	}
	if len(r.Tx) > 0 {
		if cfg.TxLossesDB != 0 {
			return fmt.Errorf("%w: tx_losses_db and rf_chain.tx are mutually exclusive", sim.ErrConfig)
		}
		if err := r.Tx.Validate(); err != nil {
			return fmt.Errorf("%w: tx %v", sim.ErrConfig, err)
		}
		cfg.TxLossesDB = r.Tx.LossDB()
	}
	return nil
}
