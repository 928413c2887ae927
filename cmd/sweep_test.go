package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/sweep"
)

func TestParseRange(t *testing.T) {
	r, err := parseRange("link.tx_power_w=1:20")
	require.NoError(t, err)
	assert.Equal(t, sweep.Range{Key: "link.tx_power_w", Lo: 1, Hi: 20}, r)

	for _, bad := range []string{"k", "k=1", "=1:2", "k=a:2", "k=3:1"} {
		_, err := parseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestDesignCases(t *testing.T) {
	// GIVEN two discrete axes
	cases, err := designCases("full", []string{"a=1,2", "b=1,2,3"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, cases, 6)

	// AND a sampled design
	cases, err = designCases("lhs", []string{"a=0:1", "b=10:20"}, 8, 7)
	require.NoError(t, err)
	assert.Len(t, cases, 8)

	_, err = designCases("lhs", []string{"a=0:1"}, 0, 7)
	assert.Error(t, err)
	_, err = designCases("taguchi", []string{"a=1"}, 0, 0)
	assert.Error(t, err)
	_, err = designCases("full", nil, 0, 0)
	assert.Error(t, err)
}

func TestScenarioBuilder_ConfigErrorsStayPerCase(t *testing.T) {
	// GIVEN a builder over the test scenario
	build := scenarioBuilder([]byte(testScenario), nil)

	// WHEN a case overrides a missing list element
	_, err := build(sweep.Case{Params: map[string]float64{"satellites.9.trajectory.params.altitude_m": 1}})

	// THEN the case fails with a configuration error
	assert.ErrorIs(t, err, sim.ErrConfig)

	// AND a valid case builds a fresh mission each time
	c := sweep.Case{Params: map[string]float64{"link.tx_power_w": 20}}
	m1, err := build(c)
	require.NoError(t, err)
	m2, err := build(c)
	require.NoError(t, err)
	assert.NotSame(t, m1, m2)
	assert.Equal(t, 20.0, m1.Link.TxPowerW)
}

func TestScenarioBuilder_PolicyLayeredLast(t *testing.T) {
	minEl := 30.0
	policy := &sim.PolicyBundle{Ops: sim.OpsBundle{MinElevationDeg: &minEl}}
	m, err := scenarioBuilder([]byte(testScenario), policy)(sweep.Case{})
	require.NoError(t, err)
	assert.Equal(t, 30.0, m.Ops.MinElevationDeg)
}
