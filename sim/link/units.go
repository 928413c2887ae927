package link

import "math"

// Physical constants, SI.
const (
	SpeedOfLightMps    = 299_792_458.0
	BoltzmannDBWPerKHz = -228.6
)

// LinToDB converts a power ratio to dB.
func LinToDB(x float64) float64 { return 10 * math.Log10(x) }

// DBToLin converts dB to a power ratio.
func DBToLin(db float64) float64 { return math.Pow(10, db/10) }

// WToDBW converts watts to dBW.
func WToDBW(w float64) float64 { return LinToDB(w) }
