package sim

import (
	"math"

	"github.com/opensatcom/missionsim/sim/geo"
)

// Terminal is one end of a link: a ground terminal or a satellite.
type Terminal struct {
	Name             string
	Site             geo.Site
	SystemNoiseTempK float64   // receive system noise temperature; 0 = use LinkConfig value
	Boresight        *Pointing // antenna boresight for scan-angle checks; nil = zenith
}

// Pointing is an azimuth/elevation direction in degrees.
type Pointing struct {
	AzimuthDeg   float64
	ElevationDeg float64
}

// ScanAngleDeg returns the off-boresight angle of a look direction.
func (t Terminal) ScanAngleDeg(look geo.Look) float64 {
	bs := Pointing{ElevationDeg: 90}
	if t.Boresight != nil {
		bs = *t.Boresight
	}
	return geo.AngularSeparationDeg(bs.AzimuthDeg, bs.ElevationDeg, look.AzimuthDeg, look.ElevationDeg)
}

// Geometry is the per-timestep link geometry seen from the ground terminal.
type Geometry struct {
	ElevationDeg float64
	AzimuthDeg   float64
	RangeM       float64
	ScanDeg      float64
}

// SatState is a time-tagged satellite state produced by a TrajectorySource.
// Available is false when the source could not produce a value for this step.
// Look is set by sources that work in look angles from the ground terminal;
// it is used as-is instead of being recomputed from PositionM.
type SatState struct {
	TimeS       float64
	PositionM   geo.Vec3
	VelocityMps geo.Vec3
	Look        *geo.Look
	Available   bool
}

// Conditions are the propagation conditions for a terminal pair at one time.
type Conditions struct {
	RainRateMmPerHr      float64
	ClimateRegion        string
	AvailabilityTarget   float64 // fraction, e.g. 0.999; 0 = evaluator default
	WaterVaporDensityGM3 float64 // 0 = evaluator default
}

// LinkConfig is the static link configuration handed to the LinkEvaluator on
// every call. Field units are SI; dB-domain fields carry a dB suffix.
type LinkConfig struct {
	FrequencyHz      float64
	BandwidthHz      float64
	DataRateBps      float64 // bit rate for Eb/N0; 0 = BandwidthHz
	TxPowerW         float64
	TxLossesDB       float64
	TxGainDBi        float64
	RxGainDBi        float64
	ScanLossExponent float64 // cosine roll-off exponent applied to the scanning antenna; 0 = none
	SystemNoiseTempK float64
	RequiredMetric   string // "ebn0_db" (default) or "cn0_dbhz"
	RequiredValue    float64
	Propagation      []string // loss components, e.g. ["fspl", "rain", "gas"]; empty = fspl
}

// LinkResult is a snapshot link-budget result.
type LinkResult struct {
	EIRPDBW    float64
	GTDBK      float64
	PathLossDB float64
	CN0DBHz    float64
	EbN0DB     float64
	MarginDB   float64
	Breakdown  map[string]float64
}

// IsFinite reports whether the headline terms of the result are usable numbers.
func (r LinkResult) IsFinite() bool {
	for _, v := range []float64{r.EIRPDBW, r.PathLossDB, r.CN0DBHz, r.EbN0DB, r.MarginDB} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// OutageReason explains why a timestep was flagged as an outage.
type OutageReason string

const (
	OutageNone             OutageReason = ""
	OutagePolicy           OutageReason = "policy-ineligible"
	OutageMargin           OutageReason = "margin-below-requirement"
	OutageNoSatellite      OutageReason = "no-serving-satellite"
	OutageDataUnavailable  OutageReason = "data-unavailable"
	OutageEvaluationFailed OutageReason = "evaluation-failed"
)

// TimeSeriesSample is one row of the mission time series.
// MarginDB and EbN0DB are NaN when the link was not evaluated.
type TimeSeriesSample struct {
	TimeS         float64
	SatelliteID   string
	ElevationDeg  float64
	AzimuthDeg    float64
	RangeM        float64
	MarginDB      float64
	EbN0DB        float64
	ThroughputBps float64 // meaningful only when a modem is configured
	Mode          string  // selected ModCod; empty without modem or lock
	CapacityBps   float64 // Tier 3 scheduling capacity
	Outage        bool
	OutageReason  OutageReason
}
