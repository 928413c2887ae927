// Package testutil provides shared test infrastructure for the mission
// simulator: the golden link-budget dataset and tolerance helpers used
// across sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_links.json.
type GoldenDataset struct {
	Tests []GoldenLinkCase `json:"tests"`
}

// GoldenLinkCase is one free-space link budget with hand-computed results.
type GoldenLinkCase struct {
	Name             string       `json:"name"`
	RangeM           float64      `json:"range_m"`
	FrequencyHz      float64      `json:"frequency_hz"`
	BandwidthHz      float64      `json:"bandwidth_hz"`
	DataRateBps      float64      `json:"data_rate_bps"`
	TxPowerW         float64      `json:"tx_power_w"`
	TxLossesDB       float64      `json:"tx_losses_db"`
	TxGainDBi        float64      `json:"tx_gain_dbi"`
	RxGainDBi        float64      `json:"rx_gain_dbi"`
	SystemNoiseTempK float64      `json:"system_noise_temp_k"`
	ScanDeg          float64      `json:"scan_deg"`
	ScanLossExponent float64      `json:"scan_loss_exponent"`
	RequiredValue    float64      `json:"required_value"`
	Expected         GoldenBudget `json:"expected"`
}

// GoldenBudget holds the expected headline terms, all in dB units.
type GoldenBudget struct {
	EIRPDBW    float64 `json:"eirp_dbw"`
	PathLossDB float64 `json:"path_loss_db"`
	GTDBK      float64 `json:"gt_dbk"`
	CN0DBHz    float64 `json:"cn0_dbhz"`
	EbN0DB     float64 `json:"ebn0_db"`
	MarginDB   float64 `json:"margin_db"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_links.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Tests) == 0 {
		t.Fatal("golden dataset has no cases")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
