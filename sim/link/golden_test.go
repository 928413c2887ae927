package link

import (
	"testing"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/internal/testutil"
)

func TestEvaluate_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			// GIVEN a free-space budget with hand-computed terms
			cfg := sim.LinkConfig{
				FrequencyHz:      tc.FrequencyHz,
				BandwidthHz:      tc.BandwidthHz,
				DataRateBps:      tc.DataRateBps,
				TxPowerW:         tc.TxPowerW,
				TxLossesDB:       tc.TxLossesDB,
				TxGainDBi:        tc.TxGainDBi,
				RxGainDBi:        tc.RxGainDBi,
				ScanLossExponent: tc.ScanLossExponent,
				SystemNoiseTempK: tc.SystemNoiseTempK,
				RequiredValue:    tc.RequiredValue,
			}
			geom := sim.Geometry{ElevationDeg: 30, RangeM: tc.RangeM, ScanDeg: tc.ScanDeg}

			// WHEN it is evaluated
			res, err := Evaluator{}.Evaluate(geom, cfg, sim.Conditions{})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}

			// THEN every headline term matches within 1e-9 relative
			want := tc.Expected
			testutil.AssertFloat64Equal(t, "eirp_dbw", want.EIRPDBW, res.EIRPDBW, 1e-9)
			testutil.AssertFloat64Equal(t, "path_loss_db", want.PathLossDB, res.PathLossDB, 1e-9)
			testutil.AssertFloat64Equal(t, "gt_dbk", want.GTDBK, res.GTDBK, 1e-9)
			testutil.AssertFloat64Equal(t, "cn0_dbhz", want.CN0DBHz, res.CN0DBHz, 1e-9)
			testutil.AssertFloat64Equal(t, "ebn0_db", want.EbN0DB, res.EbN0DB, 1e-9)
			testutil.AssertFloat64Equal(t, "margin_db", want.MarginDB, res.MarginDB, 1e-9)
		})
	}
}
