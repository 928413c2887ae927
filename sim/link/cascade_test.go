package link

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensatcom/missionsim/sim"
)

func float64Ptr(v float64) *float64 { return &v }

func TestChain_FriisTwoStage_HandComputed(t *testing.T) {
	// GIVEN a 20 dB / 1 dB LNA followed by a 10 dB noise figure receiver
	c := Chain{
		{Name: "LNA", GainDB: 20, NoiseFigureDB: 1},
		{Name: "RX", GainDB: 0, NoiseFigureDB: 10},
	}

	// THEN F = 1.2589 + (10-1)/100 = 1.3489 and Te = 290*(F-1) = 101.19 K
	assert.InDelta(t, 1.348925, c.NoiseFactor(), 1e-6)
	assert.InDelta(t, 101.188, c.NoiseTempK(), 1e-3)
	assert.InDelta(t, 20, c.GainDB(), 1e-12)
	assert.Zero(t, c.LossDB())
}

func TestChain_LeadingGainMasksLaterStages(t *testing.T) {
	// LNA, lossy cable, noisy mixer
	c := Chain{
		{Name: "LNA", GainDB: 30, NoiseFigureDB: 0.8, IIP3DBm: float64Ptr(-10)},
		{Name: "cable", GainDB: -2, NoiseFigureDB: 2},
		{Name: "mixer", GainDB: 10, NoiseFigureDB: 8, IIP3DBm: float64Ptr(5)},
	}
	require.NoError(t, c.Validate())

	assert.InDelta(t, 0.8324, c.NoiseFigureDB(), 1e-4)
	assert.InDelta(t, 61.267, c.NoiseTempK(), 1e-3)
	lnaAlone := Chain{c[0]}.NoiseTempK()
	// cable and mixer add 290*(0.585/1000 + 5.310/631) K behind the LNA
	assert.InDelta(t, 2.61, c.NoiseTempK()-lnaAlone, 1e-3)

	iip3, ok := c.IIP3DBm()
	require.True(t, ok)
	assert.InDelta(t, -23.212, iip3, 1e-3)
}

func TestChain_IIP3_AbsentWhenNoStageDeclaresIt(t *testing.T) {
	_, ok := Chain{{Name: "BPF", GainDB: -1, NoiseFigureDB: 1}}.IIP3DBm()
	assert.False(t, ok)
}

func TestChain_PassiveLossNoiseTemp(t *testing.T) {
	// A 3 dB attenuator at 290 K: Te = 290*(2-1) ≈ 288.6 K
	c := Chain{{Name: "pad", GainDB: -3, NoiseFigureDB: 3}}
	assert.InDelta(t, 290*(math.Pow(10, 0.3)-1), c.NoiseTempK(), 1e-9)
	assert.InDelta(t, 3, c.LossDB(), 1e-12)
}

func TestChain_Validate(t *testing.T) {
	assert.Error(t, Chain{}.Validate())
	assert.Error(t, Chain{{Name: "x", GainDB: math.NaN()}}.Validate())
	assert.Error(t, Chain{{Name: "x", NoiseFigureDB: -1}}.Validate())
	assert.NoError(t, Chain{{Name: "x", GainDB: -1, NoiseFigureDB: 1}}.Validate())
}

func TestRFChain_Apply_DerivesNoiseTempAndTxLosses(t *testing.T) {
	// GIVEN a 50 K antenna feeding the two-stage receiver and a lossy TX feed
	r := RFChain{
		AntennaTempK: 50,
		Rx: Chain{
			{Name: "LNA", GainDB: 20, NoiseFigureDB: 1},
			{Name: "RX", GainDB: 0, NoiseFigureDB: 10},
		},
		Tx: Chain{
			{Name: "waveguide", GainDB: -0.5, NoiseFigureDB: 0.5},
			{Name: "diplexer", GainDB: -0.7, NoiseFigureDB: 0.7},
		},
	}
	cfg := kuDownlink()
	cfg.SystemNoiseTempK = 0

	// WHEN applied to the link
	require.NoError(t, r.Apply(&cfg))

	// THEN Tsys = 50 + 101.19 K and the TX chain loses 1.2 dB
	assert.InDelta(t, 151.188, cfg.SystemNoiseTempK, 1e-3)
	assert.InDelta(t, 1.2, cfg.TxLossesDB, 1e-12)

	// AND the evaluator's G/T uses the derived temperature
	res, err := Evaluator{}.Evaluate(sim.Geometry{ElevationDeg: 45, RangeM: 1_000_000}, cfg, sim.Conditions{})
	require.NoError(t, err)
	assert.InDelta(t, 40-10*math.Log10(151.188), res.GTDBK, 1e-4)
}

func TestRFChain_Apply_RejectsConflictingScalars(t *testing.T) {
	rx := RFChain{Rx: Chain{{Name: "LNA", GainDB: 20, NoiseFigureDB: 1}}}
	cfg := kuDownlink()
	assert.ErrorIs(t, rx.Apply(&cfg), sim.ErrConfig, "system_noise_temp_k already set")

	tx := RFChain{Tx: Chain{{Name: "feed", GainDB: -1, NoiseFigureDB: 1}}}
	cfg = kuDownlink()
	cfg.TxLossesDB = 2
	assert.ErrorIs(t, tx.Apply(&cfg), sim.ErrConfig)

	bad := RFChain{Rx: Chain{{Name: "LNA", NoiseFigureDB: -1}}}
	cfg = kuDownlink()
	cfg.SystemNoiseTempK = 0
	assert.ErrorIs(t, bad.Apply(&cfg), sim.ErrConfig)
}
