package link

import (
	"fmt"
	"math"
)

// ScanLossDB returns the gain roll-off of a scanning antenna at scanDeg
// off boresight, modelled as cosⁿ. n <= 0 disables the roll-off. Scan
// angles at or beyond 90° have no projected aperture and are an error.
func ScanLossDB(scanDeg, exponent float64) (float64, error) {
	if exponent <= 0 {
		return 0, nil
	}
	c := math.Cos(scanDeg * math.Pi / 180)
	if !(c > 0) {
		return 0, fmt.Errorf("scan angle %.1f° outside the antenna's field of view", scanDeg)
	}
	return -10 * exponent * math.Log10(c), nil
}
