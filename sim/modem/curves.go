package modem

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// BLER bounds reported by the analytic curve.
const (
	minBLER = 1e-10
	maxBLER = 1.0
)

// DefaultSteepness is the waterfall slope typical of DVB-S2 LDPC codes.
const DefaultSteepness = 1.5

// AnalyticCurve is a waterfall BLER curve centred on a reference Eb/N0:
// BLER = ½·erfc(k·(Eb/N0 − ref)).
type AnalyticCurve struct {
	RefEbN0DB float64
	Steepness float64
}

// NewAnalyticCurve returns a curve with the default steepness.
func NewAnalyticCurve(refEbN0DB float64) AnalyticCurve {
	return AnalyticCurve{RefEbN0DB: refEbN0DB, Steepness: DefaultSteepness}
}

func (c AnalyticCurve) k() float64 {
	if c.Steepness <= 0 {
		return DefaultSteepness
	}
	return c.Steepness
}

// BLER returns the block error rate at ebn0DB, clamped to [1e-10, 1].
func (c AnalyticCurve) BLER(ebn0DB float64) float64 {
	v := 0.5 * math.Erfc(c.k()*(ebn0DB-c.RefEbN0DB))
	return math.Min(math.Max(v, minBLER), maxBLER)
}

// RequiredEbN0DB inverts BLER. Targets outside (1e-10, 0.5) saturate at
// ref ± 5 dB.
func (c AnalyticCurve) RequiredEbN0DB(targetBLER float64) float64 {
	if targetBLER >= 0.5 {
		return c.RefEbN0DB - 5
	}
	if targetBLER <= minBLER {
		return c.RefEbN0DB + 5
	}
	return c.RefEbN0DB + math.Erfcinv(2*targetBLER)/c.k()
}

// CurvePoint is one measured (Eb/N0, BLER) pair.
type CurvePoint struct {
	EbN0DB float64 `yaml:"ebn0_db"`
	BLER   float64 `yaml:"bler"`
}

// TableCurve interpolates measured points linearly, flat beyond the ends.
type TableCurve struct {
	forward interp.PiecewiseLinear // Eb/N0 → BLER
	inverse interp.PiecewiseLinear // BLER → Eb/N0
}

// NewTableCurve builds a curve from at least two points whose BLER strictly
// decreases with Eb/N0. Points may be given in any order.
func NewTableCurve(points []CurvePoint) (*TableCurve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("table curve needs at least 2 points, got %d", len(points))
	}
	pts := append([]CurvePoint(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].EbN0DB < pts[j].EbN0DB })

	n := len(pts)
	ebn0 := make([]float64, n)
	bler := make([]float64, n)
	for i, p := range pts {
		if i > 0 && !(p.EbN0DB > pts[i-1].EbN0DB) {
			return nil, fmt.Errorf("table curve: duplicate Eb/N0 %g", p.EbN0DB)
		}
		if i > 0 && !(p.BLER < pts[i-1].BLER) {
			return nil, fmt.Errorf("table curve: BLER must decrease with Eb/N0 (at %g dB)", p.EbN0DB)
		}
		ebn0[i], bler[i] = p.EbN0DB, p.BLER
	}

	c := &TableCurve{}
	if err := c.forward.Fit(ebn0, bler); err != nil {
		return nil, err
	}
	// The inverse needs ascending x: walk the table backwards.
	revBLER := make([]float64, n)
	revEbN0 := make([]float64, n)
	for i := range pts {
		revBLER[i] = bler[n-1-i]
		revEbN0[i] = ebn0[n-1-i]
	}
	if err := c.inverse.Fit(revBLER, revEbN0); err != nil {
		return nil, err
	}
	return c, nil
}

// BLER interpolates the block error rate at ebn0DB.
func (c *TableCurve) BLER(ebn0DB float64) float64 { return c.forward.Predict(ebn0DB) }

// RequiredEbN0DB interpolates the Eb/N0 that achieves targetBLER.
func (c *TableCurve) RequiredEbN0DB(targetBLER float64) float64 {
	return c.inverse.Predict(targetBLER)
}
