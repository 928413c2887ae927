package link

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensatcom/missionsim/sim"
)

func kuDownlink() sim.LinkConfig {
	return sim.LinkConfig{
		FrequencyHz:      12e9,
		BandwidthHz:      1e6,
		TxPowerW:         10,
		TxGainDBi:        30,
		RxGainDBi:        40,
		SystemNoiseTempK: 500,
		RequiredValue:    10,
	}
}

func TestFSPLDB_GoldenValue(t *testing.T) {
	// 1000 km at 12 GHz
	assert.InDelta(t, 174.031, FSPLDB(1_000_000, 12e9), 1e-3)
	// doubling range adds 6.02 dB
	assert.InDelta(t, 20*math.Log10(2), FSPLDB(2_000_000, 12e9)-FSPLDB(1_000_000, 12e9), 1e-9)
}

func TestRainP618_MonotoneInRateAndElevation(t *testing.T) {
	r := RainP618{AvailabilityTarget: 0.99}
	at := func(rate, elev float64) float64 {
		return r.LossDB(20e9, elev, 0, sim.Conditions{RainRateMmPerHr: rate})
	}

	assert.Equal(t, 0.0, at(0, 30), "no rain, no loss")
	assert.Less(t, at(5, 30), at(25, 30))
	assert.Less(t, at(25, 60), at(25, 20), "lower elevation, longer path")
	assert.Equal(t, at(25, 5), at(25, 1), "path length clamped near the horizon")
}

func TestRainCoefficients_InterpolatesTable(t *testing.T) {
	k, alpha := RainCoefficients(12)
	assert.InDelta(t, 0.0188, k, 1e-9)
	assert.InDelta(t, 1.217, alpha, 1e-9)

	k, _ = RainCoefficients(11)
	assert.Greater(t, k, 0.0101)
	assert.Less(t, k, 0.0188)
}

func TestGasP676_HigherNearWaterLine(t *testing.T) {
	g := GasP676{}
	dry := g.LossDB(12e9, 30, 0, sim.Conditions{})
	wet := g.LossDB(22.235e9, 30, 0, sim.Conditions{})
	humid := g.LossDB(22.235e9, 30, 0, sim.Conditions{WaterVaporDensityGM3: 15})

	assert.Greater(t, dry, 0.0)
	assert.Greater(t, wet, dry)
	assert.Greater(t, humid, wet)
}

func TestScintillation_ZeroWithoutTarget(t *testing.T) {
	s := Scintillation{}
	assert.Equal(t, 0.0, s.LossDB(12e9, 30, 0, sim.Conditions{}))
	assert.Greater(t, s.LossDB(12e9, 30, 0, sim.Conditions{AvailabilityTarget: 0.999}), 0.0)
}

func TestNewComposite_FreeSpaceFirstAndUnknownRejected(t *testing.T) {
	c, err := NewComposite([]string{"rain", "fspl", "gas", "rain"}, ModelDefaults{})
	require.NoError(t, err)
	require.Len(t, c, 3)
	assert.Equal(t, "fspl", c[0].Name())
	assert.Equal(t, "rain", c[1].Name())
	assert.Equal(t, "gas", c[2].Name())

	_, err = NewComposite([]string{"fog"}, ModelDefaults{})
	assert.Error(t, err)
}

func TestScanLossDB(t *testing.T) {
	loss, err := ScanLossDB(60, 1)
	require.NoError(t, err)
	assert.InDelta(t, 3.0103, loss, 1e-4, "cos 60° halves the gain")

	loss, err = ScanLossDB(60, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loss)

	_, err = ScanLossDB(95, 1.2)
	assert.Error(t, err)
}

func TestEvaluator_BudgetArithmetic(t *testing.T) {
	// GIVEN a free-space-only Ku downlink at 1000 km
	ev := Evaluator{}
	geom := sim.Geometry{ElevationDeg: 40, RangeM: 1_000_000}

	// WHEN the budget is evaluated
	res, err := ev.Evaluate(geom, kuDownlink(), sim.Conditions{})
	require.NoError(t, err)

	// THEN every term follows the closed-form chain
	assert.InDelta(t, 40.0, res.EIRPDBW, 1e-9)
	assert.InDelta(t, 13.0103, res.GTDBK, 1e-4)
	assert.InDelta(t, 107.5789, res.CN0DBHz, 1e-3)
	assert.InDelta(t, 47.5789, res.EbN0DB, 1e-3)
	assert.InDelta(t, 37.5789, res.MarginDB, 1e-3)
	assert.InDelta(t, res.PathLossDB, res.Breakdown["fspl_db"], 1e-12)
	assert.True(t, res.IsFinite())
}

func TestEvaluator_MarginMetric(t *testing.T) {
	cfg := kuDownlink()
	cfg.RequiredMetric = "cn0_dbhz"
	cfg.RequiredValue = 100
	res, err := Evaluator{}.Evaluate(sim.Geometry{ElevationDeg: 40, RangeM: 1_000_000}, cfg, sim.Conditions{})
	require.NoError(t, err)
	assert.InDelta(t, res.CN0DBHz-100, res.MarginDB, 1e-12)

	cfg.RequiredMetric = "snr"
	_, err = Evaluator{}.Evaluate(sim.Geometry{ElevationDeg: 40, RangeM: 1_000_000}, cfg, sim.Conditions{})
	assert.Error(t, err)
}

func TestEvaluator_RainReducesMargin(t *testing.T) {
	cfg := kuDownlink()
	cfg.Propagation = []string{"rain", "gas"}
	geom := sim.Geometry{ElevationDeg: 30, RangeM: 1_200_000}

	dry, err := Evaluator{}.Evaluate(geom, cfg, sim.Conditions{})
	require.NoError(t, err)
	wet, err := Evaluator{}.Evaluate(geom, cfg, sim.Conditions{RainRateMmPerHr: 30})
	require.NoError(t, err)

	assert.Less(t, wet.MarginDB, dry.MarginDB)
	assert.Greater(t, wet.Breakdown["rain_db"], 0.0)
	assert.InDelta(t, wet.Breakdown["fspl_db"]+wet.Breakdown["rain_db"]+wet.Breakdown["gas_db"], wet.PathLossDB, 1e-9)
}

func TestEvaluator_RejectsNonPhysicalInputs(t *testing.T) {
	ev := Evaluator{}
	geom := sim.Geometry{ElevationDeg: 40, RangeM: 1_000_000}

	_, err := ev.Evaluate(sim.Geometry{ElevationDeg: 40, RangeM: 0}, kuDownlink(), sim.Conditions{})
	assert.Error(t, err, "zero range")
	_, err = ev.Evaluate(sim.Geometry{ElevationDeg: 40, RangeM: math.NaN()}, kuDownlink(), sim.Conditions{})
	assert.Error(t, err, "NaN range")

	cfg := kuDownlink()
	cfg.TxPowerW = 0
	_, err = ev.Evaluate(geom, cfg, sim.Conditions{})
	assert.Error(t, err, "no transmit power")

	cfg = kuDownlink()
	cfg.SystemNoiseTempK = 0
	_, err = ev.Evaluate(geom, cfg, sim.Conditions{})
	assert.Error(t, err, "no noise temperature")
}

func TestDefaultEvaluator_Registered(t *testing.T) {
	ev, err := sim.NewLinkEvaluator(sim.ProviderSpec{Params: sim.Params{"availability_target": 0.999}})
	require.NoError(t, err)
	e, ok := ev.(Evaluator)
	require.True(t, ok)
	assert.Equal(t, 0.999, e.Defaults.AvailabilityTarget)

	_, err = sim.NewLinkEvaluator(sim.ProviderSpec{Params: sim.Params{"availability_target": "high"}})
	assert.ErrorIs(t, err, sim.ErrConfig)
}
