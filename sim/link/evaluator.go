// Package link implements the snapshot link budget used by the mission
// simulator: RF chain arithmetic, propagation losses and antenna scan loss.
package link

import (
	"fmt"
	"math"

	"github.com/opensatcom/missionsim/sim"
)

// Evaluator is the default sim.LinkEvaluator.
type Evaluator struct {
	Defaults ModelDefaults
}

// Evaluate computes EIRP, path loss, C/N0, Eb/N0 and margin for one
// geometry. It has no side effects.
func (e Evaluator) Evaluate(geom sim.Geometry, cfg sim.LinkConfig, cond sim.Conditions) (sim.LinkResult, error) {
	if !(geom.RangeM > 0) || math.IsInf(geom.RangeM, 0) {
		return sim.LinkResult{}, fmt.Errorf("non-physical slant range %g m", geom.RangeM)
	}
	if !(cfg.FrequencyHz > 0) {
		return sim.LinkResult{}, fmt.Errorf("frequency must be positive, got %g", cfg.FrequencyHz)
	}
	if !(cfg.TxPowerW > 0) {
		return sim.LinkResult{}, fmt.Errorf("tx power must be positive, got %g", cfg.TxPowerW)
	}
	if !(cfg.SystemNoiseTempK > 0) {
		return sim.LinkResult{}, fmt.Errorf("system noise temperature must be positive, got %g", cfg.SystemNoiseTempK)
	}
	rate := cfg.DataRateBps
	if rate <= 0 {
		rate = cfg.BandwidthHz
	}
	if !(rate > 0) {
		return sim.LinkResult{}, fmt.Errorf("data rate or bandwidth must be positive")
	}

	losses, err := NewComposite(cfg.Propagation, e.Defaults)
	if err != nil {
		return sim.LinkResult{}, err
	}
	scanLoss, err := ScanLossDB(geom.ScanDeg, cfg.ScanLossExponent)
	if err != nil {
		return sim.LinkResult{}, err
	}

	txPowerDBW := WToDBW(cfg.TxPowerW)
	eirp := txPowerDBW - cfg.TxLossesDB + cfg.TxGainDBi
	pathLoss, parts := losses.LossDB(cfg.FrequencyHz, geom.ElevationDeg, geom.RangeM, cond)
	rxGain := cfg.RxGainDBi - scanLoss
	gt := rxGain - LinToDB(cfg.SystemNoiseTempK)
	cn0 := eirp - pathLoss + gt - BoltzmannDBWPerKHz
	ebn0 := cn0 - LinToDB(rate)

	var margin float64
	switch cfg.RequiredMetric {
	case "", "ebn0_db":
		margin = ebn0 - cfg.RequiredValue
	case "cn0_dbhz":
		margin = cn0 - cfg.RequiredValue
	default:
		return sim.LinkResult{}, fmt.Errorf("unknown required metric %q", cfg.RequiredMetric)
	}

	breakdown := map[string]float64{
		"tx_power_dbw":        txPowerDBW,
		"tx_losses_db":        cfg.TxLossesDB,
		"tx_antenna_gain_dbi": cfg.TxGainDBi,
		"eirp_dbw":            eirp,
		"scan_loss_db":        scanLoss,
		"rx_antenna_gain_dbi": rxGain,
		"rx_system_temp_k":    cfg.SystemNoiseTempK,
		"path_loss_db":        pathLoss,
		"cn0_dbhz":            cn0,
		"ebn0_db":             ebn0,
		"margin_db":           margin,
	}
	for k, v := range parts {
		breakdown[k] = v
	}
	return sim.LinkResult{
		EIRPDBW:    eirp,
		GTDBK:      gt,
		PathLossDB: pathLoss,
		CN0DBHz:    cn0,
		EbN0DB:     ebn0,
		MarginDB:   margin,
		Breakdown:  breakdown,
	}, nil
}
