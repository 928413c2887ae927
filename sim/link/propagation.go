package link

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/opensatcom/missionsim/sim"
)

// Loss is one additive propagation loss component.
type Loss interface {
	Name() string
	LossDB(freqHz, elevDeg, rangeM float64, cond sim.Conditions) float64
}

// minPathElevDeg bounds the atmospheric path length near the horizon.
const minPathElevDeg = 5.0

func pathSin(elevDeg float64) float64 {
	return math.Sin(math.Max(elevDeg, minPathElevDeg) * math.Pi / 180)
}

// FreeSpace is the Friis free-space path loss.
type FreeSpace struct{}

func (FreeSpace) Name() string { return "fspl" }

func (FreeSpace) LossDB(freqHz, _, rangeM float64, _ sim.Conditions) float64 {
	return FSPLDB(rangeM, freqHz)
}

// FSPLDB returns 20·log10(4πdf/c).
func FSPLDB(rangeM, freqHz float64) float64 {
	return 20 * math.Log10(4*math.Pi*rangeM*freqHz/SpeedOfLightMps)
}

// p838 holds rain regression coefficients (k, α) for horizontal
// polarization at selected frequencies.
var p838 = []struct{ fGHz, k, alpha float64 }{
	{1, 0.0000387, 0.912},
	{2, 0.000154, 0.963},
	{4, 0.000650, 1.121},
	{6, 0.00175, 1.308},
	{7, 0.00301, 1.332},
	{8, 0.00454, 1.327},
	{10, 0.0101, 1.276},
	{12, 0.0188, 1.217},
	{15, 0.0367, 1.154},
	{20, 0.0751, 1.099},
	{25, 0.124, 1.061},
	{30, 0.187, 1.021},
	{35, 0.263, 0.979},
	{40, 0.350, 0.939},
	{45, 0.442, 0.903},
	{50, 0.536, 0.873},
}

// Interpolators over log10(f): log-linear for k, linear for α.
var p838LogK, p838Alpha = func() (*interp.PiecewiseLinear, *interp.PiecewiseLinear) {
	logF := make([]float64, len(p838))
	logK := make([]float64, len(p838))
	alpha := make([]float64, len(p838))
	for i, c := range p838 {
		logF[i] = math.Log10(c.fGHz)
		logK[i] = math.Log10(c.k)
		alpha[i] = c.alpha
	}
	k, a := &interp.PiecewiseLinear{}, &interp.PiecewiseLinear{}
	if err := k.Fit(logF, logK); err != nil {
		panic(err)
	}
	if err := a.Fit(logF, alpha); err != nil {
		panic(err)
	}
	return k, a
}()

// RainCoefficients returns the P.838 (k, α) pair at fGHz, clamped to the
// table's frequency range.
func RainCoefficients(fGHz float64) (k, alpha float64) {
	x := math.Log10(fGHz)
	return math.Pow(10, p838LogK.Predict(x)), p838Alpha.Predict(x)
}

// rainHeightKm is the mid-latitude rain height.
const rainHeightKm = 3.0

// RainP618 is a simplified ITU-R P.618 rain attenuation model.
// Rain rate and availability come from the step's Conditions.
type RainP618 struct {
	AvailabilityTarget float64 // used when Conditions leave it unset
}

func (RainP618) Name() string { return "rain" }

func (r RainP618) LossDB(freqHz, elevDeg, _ float64, cond sim.Conditions) float64 {
	rate := cond.RainRateMmPerHr
	fGHz := freqHz / 1e9
	if rate <= 0 || fGHz < 1 {
		return 0
	}
	k, alpha := RainCoefficients(fGHz)
	gamma := k * math.Pow(rate, alpha) // dB/km

	sinE := pathSin(elevDeg)
	cosE := math.Sqrt(1 - sinE*sinE)
	slantKm := rainHeightKm / sinE
	groundKm := slantKm * cosE
	r001 := 1 / (1 + 0.78*math.Sqrt(groundKm*gamma/fGHz) - 0.38*(1-math.Exp(-2*groundKm)))
	a001 := gamma * slantKm * r001

	avail := cond.AvailabilityTarget
	if avail <= 0 {
		avail = r.AvailabilityTarget
	}
	if avail <= 0 {
		avail = 0.99
	}
	p := (1 - avail) * 100 // percent of time exceeded
	if p <= 0 {
		p = 0.01
	}
	var ap float64
	switch {
	case p >= 1:
		ap = a001 * 0.12 * math.Pow(p, 0.546)
	case p >= 0.01:
		ratio := p / 0.01
		exp := -(0.655 + 0.033*math.Log(ratio) - 0.045*math.Log(math.Max(a001, 0.01)))
		ap = a001 * math.Pow(ratio, exp)
	default:
		ap = a001
	}
	return math.Max(ap, 0)
}

// GasP676 is a simplified ITU-R P.676 dry-air plus water-vapour absorption model.
type GasP676 struct {
	WaterVaporDensityGM3 float64 // used when Conditions leave it unset; 0 = 7.5
}

func (GasP676) Name() string { return "gas" }

func (g GasP676) LossDB(freqHz, elevDeg, _ float64, cond sim.Conditions) float64 {
	fGHz := freqHz / 1e9
	if fGHz < 1 {
		return 0
	}
	rho := cond.WaterVaporDensityGM3
	if rho <= 0 {
		rho = g.WaterVaporDensityGM3
	}
	if rho <= 0 {
		rho = 7.5
	}
	const hDryKm, hWetKm = 6.0, 2.1
	sinE := pathSin(elevDeg)
	return (dryGamma(fGHz)*hDryKm + wetGamma(fGHz, rho)*hWetKm) / sinE
}

func gaussLine(f, centre, width, peak float64) float64 {
	x := (f - centre) / width
	return peak * math.Exp(-0.5*x*x)
}

// dryGamma is the oxygen specific attenuation in dB/km.
func dryGamma(fGHz float64) float64 {
	g := 7.2e-3 + 6.0e-3*(fGHz/57)*(fGHz/57)
	switch {
	case fGHz > 50 && fGHz < 70:
		g += gaussLine(fGHz, 60, 5, 15)
	case fGHz > 118 && fGHz < 120:
		g += gaussLine(fGHz, 118.75, 1, 3)
	}
	return g
}

// wetGamma is the water-vapour specific attenuation in dB/km.
func wetGamma(fGHz, rho float64) float64 {
	scale := rho / 7.5
	g := 0.050*math.Pow(fGHz/100, 1.5)*scale + gaussLine(fGHz, 22.235, 4, 0.067*scale)
	if fGHz > 175 && fGHz < 195 {
		g += gaussLine(fGHz, 183.31, 3, 4*scale)
	}
	return g
}

// Scintillation is a tropospheric scintillation fade margin:
// σ = 0.036·f^(7/12)·(1/sin e)^1.2 scaled by the Gaussian quantile of the
// availability target.
type Scintillation struct {
	AvailabilityTarget float64
}

func (Scintillation) Name() string { return "scintillation" }

func (s Scintillation) LossDB(freqHz, elevDeg, _ float64, cond sim.Conditions) float64 {
	fGHz := freqHz / 1e9
	if fGHz < 1 {
		return 0
	}
	avail := cond.AvailabilityTarget
	if avail <= 0 {
		avail = s.AvailabilityTarget
	}
	if avail <= 0.5 || avail >= 1 {
		return 0
	}
	sigma := 0.036 * math.Pow(fGHz, 7.0/12) * math.Pow(1/pathSin(elevDeg), 1.2)
	return math.Max(sigma*distuv.UnitNormal.Quantile(avail), 0)
}

// Composite sums its components in dB.
type Composite []Loss

// LossDB returns the total and per-component losses keyed "<name>_db".
func (c Composite) LossDB(freqHz, elevDeg, rangeM float64, cond sim.Conditions) (float64, map[string]float64) {
	total := 0.0
	parts := make(map[string]float64, len(c))
	for _, l := range c {
		v := l.LossDB(freqHz, elevDeg, rangeM, cond)
		parts[l.Name()+"_db"] = v
		total += v
	}
	return total, parts
}

// ModelDefaults carries evaluator-level defaults for the loss components.
type ModelDefaults struct {
	AvailabilityTarget   float64
	WaterVaporDensityGM3 float64
}

// NewComposite builds a composite from component names. Free-space loss is
// always included, first.
func NewComposite(names []string, d ModelDefaults) (Composite, error) {
	c := Composite{FreeSpace{}}
	seen := map[string]bool{"fspl": true}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		switch n {
		case "rain":
			c = append(c, RainP618{AvailabilityTarget: d.AvailabilityTarget})
		case "gas":
			c = append(c, GasP676{WaterVaporDensityGM3: d.WaterVaporDensityGM3})
		case "scintillation":
			c = append(c, Scintillation{AvailabilityTarget: d.AvailabilityTarget})
		default:
			return nil, fmt.Errorf("unknown propagation component %q", n)
		}
	}
	return c, nil
}
