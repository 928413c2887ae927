package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCurve is a brick-wall curve: BLER drops to zero at its threshold.
type fixedCurve float64

func (c fixedCurve) BLER(ebn0DB float64) float64 {
	if ebn0DB >= float64(c) {
		return 0
	}
	return 1
}

func (c fixedCurve) RequiredEbN0DB(float64) float64 { return float64(c) }

func threeModes() ModemConfig {
	return ModemConfig{
		Modes: []Mode{
			{Name: "A", NetSpectralEff: 1, Curve: fixedCurve(2)},
			{Name: "B", NetSpectralEff: 2, Curve: fixedCurve(5)},
			{Name: "C", NetSpectralEff: 3, Curve: fixedCurve(8)},
		},
		TargetBLER:   1e-5,
		HysteresisDB: 0.5,
		HoldTimeS:    2,
	}
}

func TestACM_ColdStartAdoptsBestModeImmediately(t *testing.T) {
	// GIVEN a fresh policy and a constant high Eb/N0
	acm := NewACMPolicy(threeModes(), 1e6)
	assert.Equal(t, NoLock, acm.State().Current)

	// WHEN the first timestep is evaluated
	d := acm.Step(0, 20)

	// THEN the best eligible mode is selected at t=0
	assert.Equal(t, "C", d.ModeName)
	assert.True(t, d.Switched)
	assert.Equal(t, ACMColdStart, d.Reason)
	assert.InDelta(t, 3e6, d.ThroughputBps, 1e-6)
}

func TestACM_OscillatingEbN0_NoFlappingWithinHoldTime(t *testing.T) {
	// GIVEN Eb/N0 alternating just above and just below mode B's threshold
	acm := NewACMPolicy(threeModes(), 1e6)
	var switches []ACMDecision
	for i := 0; i < 40; i++ {
		tS := float64(i) * 0.5
		e := 5.2
		if i%2 == 1 {
			e = 4.9
		}
		d := acm.Step(tS, e)
		if d.Switched {
			switches = append(switches, d)
		}
	}

	// THEN any two switches closer than the hold time are forced downgrades
	require.NotEmpty(t, switches)
	for i := 1; i < len(switches); i++ {
		gap := switches[i].TimeS - switches[i-1].TimeS
		if gap < 2 {
			assert.True(t, switches[i].Forced,
				"non-forced switch at t=%.1f only %.1fs after previous", switches[i].TimeS, gap)
		}
	}
	upgrades := 0
	for _, s := range switches {
		if s.Reason == ACMUpgrade {
			upgrades++
		}
	}
	// 20s of flapping input allows at most one upgrade per 2s hold window.
	assert.LessOrEqual(t, upgrades, 10)
	assert.Greater(t, upgrades, 0)
}

func TestACM_ForcedDowngradeBypassesHold(t *testing.T) {
	acm := NewACMPolicy(threeModes(), 1e6)
	acm.Step(0, 9)

	// WHEN Eb/N0 collapses 0.1s after locking
	d := acm.Step(0.1, 5.5)

	// THEN the downgrade happens immediately
	assert.True(t, d.Switched)
	assert.True(t, d.Forced)
	assert.Equal(t, ACMForcedDowngrade, d.Reason)
	assert.Equal(t, "B", d.ModeName)
}

func TestACM_UpgradeRequiresHysteresisGap(t *testing.T) {
	// GIVEN two modes whose thresholds differ by less than the hysteresis
	cfg := ModemConfig{
		Modes: []Mode{
			{Name: "low", NetSpectralEff: 1, Curve: fixedCurve(2)},
			{Name: "high", NetSpectralEff: 1.2, Curve: fixedCurve(2.3)},
		},
		TargetBLER:   1e-5,
		HysteresisDB: 0.5,
		HoldTimeS:    0,
	}
	acm := NewACMPolicy(cfg, 1e6)
	acm.Step(0, 2.1)

	// WHEN Eb/N0 rises well above both thresholds
	for i := 1; i <= 10; i++ {
		d := acm.Step(float64(i), 10)
		// THEN the policy holds the locked mode
		assert.Equal(t, "low", d.ModeName)
		assert.Equal(t, ACMHold, d.Reason)
	}
	assert.Equal(t, 1, acm.State().Candidate)
}

func TestACM_NoEligibleMode_FallsBackToNoLock(t *testing.T) {
	acm := NewACMPolicy(threeModes(), 1e6)
	acm.Step(0, 6)

	d := acm.Step(1, 0)
	assert.Equal(t, NoLock, d.Mode)
	assert.True(t, d.Forced)
	assert.Equal(t, ACMLostLock, d.Reason)
	assert.Zero(t, d.ThroughputBps)

	// Re-acquisition from no-lock is immediate.
	d = acm.Step(1.5, 6)
	assert.Equal(t, "B", d.ModeName)
	assert.Equal(t, ACMColdStart, d.Reason)
}

func TestACM_DropClearsLock(t *testing.T) {
	acm := NewACMPolicy(threeModes(), 1e6)
	acm.Step(0, 9)

	d := acm.Drop(1)
	assert.True(t, d.Switched)
	assert.Equal(t, NoLock, acm.State().Current)
	assert.Equal(t, 1.0, acm.State().LastSwitchS)

	d = acm.Drop(2)
	assert.False(t, d.Switched, "already unlocked")
}

func TestACM_TieBreakPrefersMostRobust(t *testing.T) {
	cfg := ModemConfig{
		Modes: []Mode{
			{Name: "fragile", NetSpectralEff: 2, Curve: fixedCurve(6)},
			{Name: "robust", NetSpectralEff: 2, Curve: fixedCurve(4)},
		},
		TargetBLER: 1e-5,
	}
	acm := NewACMPolicy(cfg, 1e6)
	assert.Equal(t, "robust", acm.Step(0, 10).ModeName)
}

func TestACM_NaNEbN0IsIneligible(t *testing.T) {
	acm := NewACMPolicy(threeModes(), 1e6)
	acm.Step(0, 9)
	d := acm.Step(1, math.NaN())
	assert.Equal(t, NoLock, d.Mode)
}

func TestModemConfig_Validate(t *testing.T) {
	assert.NoError(t, threeModes().Validate())

	empty := threeModes()
	empty.Modes = nil
	assert.ErrorIs(t, empty.Validate(), ErrConfig)

	noCurve := threeModes()
	noCurve.Modes[1].Curve = nil
	assert.ErrorIs(t, noCurve.Validate(), ErrConfig)

	badBLER := threeModes()
	badBLER.TargetBLER = 0
	assert.ErrorIs(t, badBLER.Validate(), ErrConfig)

	dup := threeModes()
	dup.Modes[2].Name = "A"
	assert.ErrorIs(t, dup.Validate(), ErrConfig)
}
