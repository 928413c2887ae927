package modem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensatcom/missionsim/sim"
)

func TestDVBS2Table_Complete(t *testing.T) {
	table := DVBS2ModCods()
	require.Len(t, table, 28)
	assert.Equal(t, "QPSK_1/4", table[0].Name)
	assert.Equal(t, "32APSK_9/10", table[27].Name)

	// QPSK 1/2 with 0.2 roll-off: 2 × 0.5 / 1.2
	assert.InDelta(t, 1/1.2, table[3].NetSpectralEff(), 1e-12)
	assert.Len(t, DVBS2Curves(), 28)
}

func TestAnalyticCurve_WaterfallShape(t *testing.T) {
	c := NewAnalyticCurve(1.0)

	assert.InDelta(t, 0.5, c.BLER(1.0), 1e-12, "half BLER at the reference")
	assert.Less(t, c.BLER(3.0), c.BLER(2.0))
	assert.Equal(t, 1e-10, c.BLER(50), "clamped at the floor")
	assert.InDelta(t, 1.0, c.BLER(-50), 1e-12)
}

func TestAnalyticCurve_RequiredEbN0_InvertsBLER(t *testing.T) {
	c := NewAnalyticCurve(4.03)
	for _, target := range []float64{1e-2, 1e-5, 1e-7} {
		req := c.RequiredEbN0DB(target)
		assert.InDelta(t, target, c.BLER(req), target*1e-6, "target %g", target)
	}
	assert.Equal(t, 4.03-5, c.RequiredEbN0DB(0.6))
	assert.Equal(t, 4.03+5, c.RequiredEbN0DB(1e-12))
}

func TestTableCurve_InterpolatesBothWays(t *testing.T) {
	c, err := NewTableCurve([]CurvePoint{
		{EbN0DB: 3, BLER: 1e-4},
		{EbN0DB: 1, BLER: 1e-1},
		{EbN0DB: 2, BLER: 1e-2},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.055, c.BLER(1.5), 1e-12)
	assert.Equal(t, 1e-1, c.BLER(0), "flat below the table")
	assert.Equal(t, 1e-4, c.BLER(9), "flat above the table")
	assert.InDelta(t, 2.0, c.RequiredEbN0DB(1e-2), 1e-12)
	assert.InDelta(t, 1.5, c.RequiredEbN0DB(0.055), 1e-12)
}

func TestTableCurve_RejectsBadTables(t *testing.T) {
	_, err := NewTableCurve([]CurvePoint{{EbN0DB: 1, BLER: 0.1}})
	assert.Error(t, err)
	_, err = NewTableCurve([]CurvePoint{{EbN0DB: 1, BLER: 0.1}, {EbN0DB: 2, BLER: 0.2}})
	assert.Error(t, err, "BLER rising with Eb/N0")
	_, err = NewTableCurve([]CurvePoint{{EbN0DB: 1, BLER: 0.1}, {EbN0DB: 1, BLER: 0.01}})
	assert.Error(t, err, "duplicate Eb/N0")
}

func TestBuild_SubsetAndCustom(t *testing.T) {
	ref := 2.5
	cfg, err := Build(Spec{
		Table:        "dvbs2",
		ModCods:      []string{"QPSK_1/2", "8PSK_3/4"},
		ImplMarginDB: 0.3,
		Custom: []CustomModCod{
			{Name: "BPSK_1/2", BitsPerSymbol: 1, CodeRate: 0.5, RefEbN0DB: &ref},
		},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Modes, 3)
	assert.Equal(t, DefaultTargetBLER, cfg.TargetBLER)
	assert.Equal(t, DefaultHysteresisDB, cfg.HysteresisDB)
	assert.Equal(t, 0.3, cfg.Modes[0].ImplMarginDB)
	assert.Equal(t, "BPSK_1/2", cfg.Modes[2].Name)

	// The policy sees required Eb/N0 = curve threshold + implementation margin.
	acm := sim.NewACMPolicy(*cfg, 1e6)
	want := NewAnalyticCurve(1.00).RequiredEbN0DB(DefaultTargetBLER) + 0.3
	assert.InDelta(t, want, acm.RequiredEbN0DB(0), 1e-12)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Spec{})
	assert.ErrorIs(t, err, sim.ErrConfig, "no modes at all")

	_, err = Build(Spec{Table: "dvbs3"})
	assert.Error(t, err)

	_, err = Build(Spec{Table: "dvbs2", ModCods: []string{"QPSK_7/8"}})
	assert.Error(t, err)

	_, err = Build(Spec{Custom: []CustomModCod{{Name: "x", BitsPerSymbol: 2, CodeRate: 0.5}}})
	assert.Error(t, err, "custom modcod without a curve")
}

func TestDVBS2_ThresholdsIncreaseWithEfficiency(t *testing.T) {
	modes, err := DVBS2Modes(nil)
	require.NoError(t, err)
	// Within one constellation, higher code rate needs more Eb/N0.
	for i := 1; i < 11; i++ {
		prev := modes[i-1].Curve.RequiredEbN0DB(1e-5)
		cur := modes[i].Curve.RequiredEbN0DB(1e-5)
		assert.Greater(t, cur, prev, modes[i].Name)
		assert.False(t, math.IsNaN(cur))
	}
}
