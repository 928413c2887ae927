package modem

import (
	"fmt"

	"github.com/opensatcom/missionsim/sim"
)

// dvbs2Entry is one DVB-S2 ModCod with its reference Eb/N0 at BLER 1e-5.
type dvbs2Entry struct {
	name      string
	bps       float64
	codeRate  float64
	refEbN0DB float64
}

var dvbs2Table = []dvbs2Entry{
	{"QPSK_1/4", 2, 1.0 / 4, -2.35},
	{"QPSK_1/3", 2, 1.0 / 3, -1.24},
	{"QPSK_2/5", 2, 2.0 / 5, -0.30},
	{"QPSK_1/2", 2, 1.0 / 2, 1.00},
	{"QPSK_3/5", 2, 3.0 / 5, 2.23},
	{"QPSK_2/3", 2, 2.0 / 3, 3.10},
	{"QPSK_3/4", 2, 3.0 / 4, 4.03},
	{"QPSK_4/5", 2, 4.0 / 5, 4.68},
	{"QPSK_5/6", 2, 5.0 / 6, 5.18},
	{"QPSK_8/9", 2, 8.0 / 9, 6.20},
	{"QPSK_9/10", 2, 9.0 / 10, 6.42},
	{"8PSK_3/5", 3, 3.0 / 5, 5.50},
	{"8PSK_2/3", 3, 2.0 / 3, 6.62},
	{"8PSK_3/4", 3, 3.0 / 4, 7.91},
	{"8PSK_5/6", 3, 5.0 / 6, 9.35},
	{"8PSK_8/9", 3, 8.0 / 9, 10.69},
	{"8PSK_9/10", 3, 9.0 / 10, 10.98},
	{"16APSK_2/3", 4, 2.0 / 3, 8.97},
	{"16APSK_3/4", 4, 3.0 / 4, 10.21},
	{"16APSK_4/5", 4, 4.0 / 5, 11.03},
	{"16APSK_5/6", 4, 5.0 / 6, 11.61},
	{"16APSK_8/9", 4, 8.0 / 9, 12.89},
	{"16APSK_9/10", 4, 9.0 / 10, 13.13},
	{"32APSK_3/4", 5, 3.0 / 4, 12.73},
	{"32APSK_4/5", 5, 4.0 / 5, 13.64},
	{"32APSK_5/6", 5, 5.0 / 6, 14.28},
	{"32APSK_8/9", 5, 8.0 / 9, 15.69},
	{"32APSK_9/10", 5, 9.0 / 10, 16.05},
}

// DVBS2ModCods returns the built-in DVB-S2 table in ascending robustness order.
func DVBS2ModCods() []ModCod {
	out := make([]ModCod, len(dvbs2Table))
	for i, e := range dvbs2Table {
		out[i] = ModCod{Name: e.name, BitsPerSymbol: e.bps, CodeRate: e.codeRate, Rolloff: DefaultRolloff}
	}
	return out
}

// DVBS2Curves returns an analytic waterfall curve per DVB-S2 ModCod name.
func DVBS2Curves() map[string]sim.PerformanceCurve {
	curves := make(map[string]sim.PerformanceCurve, len(dvbs2Table))
	for _, e := range dvbs2Table {
		curves[e.name] = NewAnalyticCurve(e.refEbN0DB)
	}
	return curves
}

// DVBS2Modes returns sim modes for the named subset of the DVB-S2 table,
// or the full table when names is empty.
func DVBS2Modes(names []string) ([]sim.Mode, error) {
	curves := DVBS2Curves()
	table := DVBS2ModCods()
	if len(names) == 0 {
		modes := make([]sim.Mode, len(table))
		for i, mc := range table {
			modes[i] = mc.Mode(curves[mc.Name])
		}
		return modes, nil
	}
	byName := make(map[string]ModCod, len(table))
	for _, mc := range table {
		byName[mc.Name] = mc
	}
	modes := make([]sim.Mode, 0, len(names))
	for _, n := range names {
		mc, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown DVB-S2 modcod %q", n)
		}
		modes = append(modes, mc.Mode(curves[n]))
	}
	return modes, nil
}
