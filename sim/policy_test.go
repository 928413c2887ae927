package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_ElevationAndScan(t *testing.T) {
	p := OpsPolicy{MinElevationDeg: 10, MaxScanDeg: 60, HandoverHysteresisS: 5, ACMHoldTimeS: 2}

	tests := []struct {
		name     string
		geom     Geometry
		eligible bool
		reason   string
	}{
		{"nominal", Geometry{ElevationDeg: 45, ScanDeg: 45}, true, GateEligible},
		{"at minimum elevation", Geometry{ElevationDeg: 10, ScanDeg: 80}, false, GateScanLimit},
		{"exactly at both limits", Geometry{ElevationDeg: 10, ScanDeg: 60}, true, GateEligible},
		{"below elevation", Geometry{ElevationDeg: 9.99, ScanDeg: 10}, false, GateBelowMinElevation},
		{"elevation checked first", Geometry{ElevationDeg: 5, ScanDeg: 85}, false, GateBelowMinElevation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := Gate(tc.geom, p)
			assert.Equal(t, tc.eligible, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestOpsPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultOpsPolicy().Validate())

	missing := DefaultOpsPolicy()
	missing.MinElevationDeg = math.NaN()
	err := missing.Validate()
	assert.True(t, errors.Is(err, ErrConfig), "NaN threshold must be a config error, got %v", err)

	noScan := DefaultOpsPolicy()
	noScan.MaxScanDeg = 0
	assert.ErrorIs(t, noScan.Validate(), ErrConfig)

	negHold := DefaultOpsPolicy()
	negHold.ACMHoldTimeS = -1
	assert.ErrorIs(t, negHold.Validate(), ErrConfig)
}
