package orbit

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/interp"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/geo"
)

// PassTable is a tabulated pass as seen from the ground terminal.
type PassTable struct {
	TimesS       []float64
	ElevationDeg []float64
	AzimuthDeg   []float64
	RangeM       []float64
}

// Validate checks lengths and that times are strictly increasing.
func (t PassTable) Validate() error {
	n := len(t.TimesS)
	if n < 2 {
		return fmt.Errorf("pass table needs at least 2 rows, got %d", n)
	}
	if len(t.ElevationDeg) != n || len(t.AzimuthDeg) != n || len(t.RangeM) != n {
		return fmt.Errorf("pass table columns differ in length")
	}
	for i := 1; i < n; i++ {
		if !(t.TimesS[i] > t.TimesS[i-1]) {
			return fmt.Errorf("pass table times not strictly increasing at row %d", i)
		}
	}
	for i, r := range t.RangeM {
		if !(r > 0) {
			return fmt.Errorf("pass table row %d: range must be positive, got %g", i, r)
		}
	}
	return nil
}

// PrecomputedPass interpolates a PassTable linearly in time. Steps outside
// the table's time span are unavailable.
type PrecomputedPass struct {
	site        geo.Site
	first, last float64
	el, az, rng interp.PiecewiseLinear
}

// NewPrecomputedPass fits interpolators over a validated table. Azimuth is
// unwrapped before fitting so a pass through north does not sweep backwards.
func NewPrecomputedPass(site geo.Site, t PassTable) (*PrecomputedPass, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	p := &PrecomputedPass{site: site, first: t.TimesS[0], last: t.TimesS[len(t.TimesS)-1]}
	if err := p.el.Fit(t.TimesS, t.ElevationDeg); err != nil {
		return nil, err
	}
	if err := p.az.Fit(t.TimesS, unwrapDeg(t.AzimuthDeg)); err != nil {
		return nil, err
	}
	if err := p.rng.Fit(t.TimesS, t.RangeM); err != nil {
		return nil, err
	}
	return p, nil
}

// States implements sim.TrajectorySource.
func (p *PrecomputedPass) States(t0S, t1S, dtS float64) ([]sim.SatState, error) {
	ts := stepTimes(t0S, t1S, dtS)
	states := make([]sim.SatState, len(ts))
	for i, t := range ts {
		if t < p.first || t > p.last {
			states[i] = sim.SatState{TimeS: t}
			continue
		}
		states[i] = lookState(t, p.site, geo.Look{
			AzimuthDeg:   math.Mod(p.az.Predict(t)+360, 360),
			ElevationDeg: p.el.Predict(t),
			RangeM:       p.rng.Predict(t),
		})
	}
	fillVelocities(states)
	return states, nil
}

func unwrapDeg(az []float64) []float64 {
	out := make([]float64, len(az))
	if len(az) == 0 {
		return out
	}
	out[0] = az[0]
	for i := 1; i < len(az); i++ {
		d := math.Mod(az[i]-az[i-1], 360)
		if d > 180 {
			d -= 360
		} else if d < -180 {
			d += 360
		}
		out[i] = out[i-1] + d
	}
	return out
}

// LoadPassTableCSV reads a pass table with header columns time_s, elev_deg,
// az_deg and range_m (any order; az_deg optional).
func LoadPassTableCSV(path string) (PassTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return PassTable{}, fmt.Errorf("open pass CSV: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return PassTable{}, fmt.Errorf("read pass CSV: %w", err)
	}
	if len(records) < 2 {
		return PassTable{}, fmt.Errorf("pass CSV empty or missing header")
	}
	col := map[string]int{}
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"time_s", "elev_deg", "range_m"} {
		if _, ok := col[required]; !ok {
			return PassTable{}, fmt.Errorf("pass CSV missing column %q", required)
		}
	}

	var t PassTable
	for i, record := range records[1:] {
		get := func(name string) (float64, error) {
			j, ok := col[name]
			if !ok {
				return 0, nil
			}
			if j >= len(record) {
				return 0, fmt.Errorf("pass CSV row %d: missing %s", i+2, name)
			}
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return 0, fmt.Errorf("pass CSV row %d: invalid %s: %w", i+2, name, err)
			}
			return v, nil
		}
		var vals [4]float64
		for k, name := range []string{"time_s", "elev_deg", "az_deg", "range_m"} {
			if vals[k], err = get(name); err != nil {
				return PassTable{}, err
			}
		}
		t.TimesS = append(t.TimesS, vals[0])
		t.ElevationDeg = append(t.ElevationDeg, vals[1])
		t.AzimuthDeg = append(t.AzimuthDeg, vals[2])
		t.RangeM = append(t.RangeM, vals[3])
	}
	return t, nil
}

// newPrecomputed builds a pass from params: either "file" (CSV) or inline
// lists times_s, elevation_deg, azimuth_deg and range_m. When range_m is
// omitted, altitude_m derives it from elevation.
func newPrecomputed(ground sim.Terminal, params sim.Params) (sim.TrajectorySource, error) {
	path, err := params.String("file", "")
	if err != nil {
		return nil, err
	}
	if path != "" {
		t, err := LoadPassTableCSV(path)
		if err != nil {
			return nil, err
		}
		return NewPrecomputedPass(ground.Site, t)
	}

	var t PassTable
	if t.TimesS, err = params.Floats("times_s"); err != nil {
		return nil, err
	}
	if t.ElevationDeg, err = params.Floats("elevation_deg"); err != nil {
		return nil, err
	}
	if t.AzimuthDeg, err = params.Floats("azimuth_deg"); err != nil {
		return nil, err
	}
	if t.AzimuthDeg == nil {
		t.AzimuthDeg = make([]float64, len(t.TimesS))
	}
	if t.RangeM, err = params.Floats("range_m"); err != nil {
		return nil, err
	}
	if t.RangeM == nil {
		alt, err := params.Float("altitude_m", 0)
		if err != nil {
			return nil, err
		}
		if !(alt > ground.Site.AltM) {
			return nil, fmt.Errorf("either range_m or altitude_m is required")
		}
		t.RangeM = make([]float64, len(t.ElevationDeg))
		for i, el := range t.ElevationDeg {
			t.RangeM[i] = geo.SlantRangeM(ground.Site.AltM, alt, el)
		}
	}
	return NewPrecomputedPass(ground.Site, t)
}
