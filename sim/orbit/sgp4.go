package orbit

import (
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/geo"
)

// SGP4 propagates a two-line element set. Mission time 0 maps to Epoch;
// go-satellite resolves times to whole seconds.
type SGP4 struct {
	Epoch time.Time
	sat   satellite.Satellite
}

// NewSGP4 checks the element set and builds a propagator.
func NewSGP4(line1, line2 string, epoch time.Time) (*SGP4, error) {
	if err := checkTLELine(line1, '1'); err != nil {
		return nil, err
	}
	if err := checkTLELine(line2, '2'); err != nil {
		return nil, err
	}
	return &SGP4{Epoch: epoch.UTC(), sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}, nil
}

// PositionAt returns the ECEF position in metres at mission time tS.
func (s *SGP4) PositionAt(tS float64) geo.Vec3 {
	at := s.Epoch.Add(time.Duration(tS * float64(time.Second)))
	year, month, day := at.Date()
	hour, minute, sec := at.Clock()

	posECI, _ := satellite.Propagate(s.sat, year, int(month), day, hour, minute, sec)
	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, minute, sec))
	posECEF := satellite.ECIToECEF(posECI, gmst)

	const kmToM = 1000.0
	return geo.Vec3{X: posECEF.X * kmToM, Y: posECEF.Y * kmToM, Z: posECEF.Z * kmToM}
}

// States implements sim.TrajectorySource. Steps where propagation does not
// yield a finite position are unavailable.
func (s *SGP4) States(t0S, t1S, dtS float64) ([]sim.SatState, error) {
	ts := stepTimes(t0S, t1S, dtS)
	states := make([]sim.SatState, len(ts))
	for i, t := range ts {
		pos := s.PositionAt(t)
		states[i] = sim.SatState{TimeS: t, PositionM: pos, Available: pos.IsFinite() && pos.Norm() > geo.EarthRadiusM}
	}
	fillVelocities(states)
	return states, nil
}

// checkTLELine validates the line number, length and modulo-10 checksum.
// go-satellite exits the process on unparsable fields, so malformed input
// has to be rejected before it gets there.
func checkTLELine(line string, number byte) error {
	line = strings.TrimRight(line, " \r\n")
	if len(line) != 69 {
		return fmt.Errorf("TLE line %c: expected 69 characters, got %d", number, len(line))
	}
	if line[0] != number || line[1] != ' ' {
		return fmt.Errorf("TLE line %c: bad line number %q", number, line[:2])
	}
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	if want := int(line[68] - '0'); sum%10 != want {
		return fmt.Errorf("TLE line %c: checksum %d, expected %d", number, sum%10, want)
	}
	return nil
}

func newSGP4(_ sim.Terminal, params sim.Params) (sim.TrajectorySource, error) {
	l1, err := params.String("tle_line1", "")
	if err != nil {
		return nil, err
	}
	l2, err := params.String("tle_line2", "")
	if err != nil {
		return nil, err
	}
	epochStr, err := params.String("epoch", "")
	if err != nil {
		return nil, err
	}
	epoch, err := time.Parse(time.RFC3339, epochStr)
	if err != nil {
		return nil, fmt.Errorf("epoch must be RFC 3339: %w", err)
	}
	return NewSGP4(l1, l2, epoch)
}
