package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/geo"
	"github.com/opensatcom/missionsim/sim/link"
	"github.com/opensatcom/missionsim/sim/modem"
	"github.com/opensatcom/missionsim/sim/trace"

	// Provider registration.
	_ "github.com/opensatcom/missionsim/sim/environment"
	_ "github.com/opensatcom/missionsim/sim/orbit"
)

// Scenario is the full scenario YAML. Policy sections (ops, acm, handover,
// scheduler) share the policy bundle schema and are layered over the
// built-in defaults; a --policy file is layered over them in turn.
// All top-level sections must be listed to satisfy KnownFields(true).
type Scenario struct {
	Mission     MissionSection     `yaml:"mission"`
	Ground      TerminalSection    `yaml:"ground"`
	Satellites  []SatelliteSection `yaml:"satellites"`
	Environment sim.ProviderSpec   `yaml:"environment"`
	Link        LinkSection        `yaml:"link"`
	Modem       *modem.Spec        `yaml:"modem"`
	Traffic     *TrafficSection    `yaml:"traffic"`
	Trace       TraceSection       `yaml:"trace"`

	sim.PolicyBundle `yaml:",inline"`
}

// MissionSection is the run window.
type MissionSection struct {
	Name                   string  `yaml:"name"`
	StartS                 float64 `yaml:"start_s"`
	EndS                   float64 `yaml:"end_s"`
	StepS                  float64 `yaml:"step_s"`
	MaxEvalFailureFraction float64 `yaml:"max_eval_failure_fraction"`
}

// TerminalSection places a terminal. Boresight is optional (zenith).
type TerminalSection struct {
	Name             string           `yaml:"name"`
	LatDeg           float64          `yaml:"lat_deg"`
	LonDeg           float64          `yaml:"lon_deg"`
	AltM             float64          `yaml:"alt_m"`
	SystemNoiseTempK float64          `yaml:"system_noise_temp_k"`
	Boresight        *PointingSection `yaml:"boresight"`
}

// PointingSection is an antenna boresight direction.
type PointingSection struct {
	AzimuthDeg   float64 `yaml:"azimuth_deg"`
	ElevationDeg float64 `yaml:"elevation_deg"`
}

// SatelliteSection is one candidate satellite.
type SatelliteSection struct {
	ID         string           `yaml:"id"`
	Trajectory sim.ProviderSpec `yaml:"trajectory"`
	Terminal   *TerminalSection `yaml:"terminal"`
}

// LinkSection is the RF configuration and the evaluator to use.
type LinkSection struct {
	Evaluator        sim.ProviderSpec `yaml:"evaluator"`
	FrequencyHz      float64          `yaml:"frequency_hz"`
	BandwidthHz      float64          `yaml:"bandwidth_hz"`
	DataRateBps      float64          `yaml:"data_rate_bps"`
	TxPowerW         float64          `yaml:"tx_power_w"`
	TxLossesDB       float64          `yaml:"tx_losses_db"`
	TxGainDBi        float64          `yaml:"tx_gain_dbi"`
	RxGainDBi        float64          `yaml:"rx_gain_dbi"`
	ScanLossExponent float64          `yaml:"scan_loss_exponent"`
	SystemNoiseTempK float64          `yaml:"system_noise_temp_k"`
	RequiredMetric   string           `yaml:"required_metric"`
	RequiredValue    float64          `yaml:"required_value"`
	Propagation      []string         `yaml:"propagation"`
	RFChain          *link.RFChain    `yaml:"rf_chain"` // derives system_noise_temp_k and tx_losses_db
}

// TrafficSection enables Tier 3 scheduling.
type TrafficSection struct {
	Profile         string          `yaml:"profile"`
	Demands         []DemandSection `yaml:"demands"`
	RampFactor      float64         `yaml:"ramp_factor"`
	BurstPeriodS    float64         `yaml:"burst_period_s"`
	BurstDurationS  float64         `yaml:"burst_duration_s"`
	BurstMultiplier float64         `yaml:"burst_multiplier"`
}

// DemandSection is one traffic demand.
type DemandSection struct {
	ID           string  `yaml:"id"`
	RequestedBps float64 `yaml:"requested_bps"`
	Weight       float64 `yaml:"weight"`
	StartS       float64 `yaml:"start_s"`
	DurationS    float64 `yaml:"duration_s"`
}

// TraceSection configures decision tracing.
type TraceSection struct {
	Level       string `yaml:"level"`
	CandidatesK int    `yaml:"candidates_k"`
}

// ParseScenario decodes scenario YAML, rejecting unknown keys.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, nil, err
	}
	return s, data, nil
}

func (t TerminalSection) terminal(defaultName string) sim.Terminal {
	name := t.Name
	if name == "" {
		name = defaultName
	}
	term := sim.Terminal{
		Name:             name,
		Site:             geo.Site{LatDeg: t.LatDeg, LonDeg: t.LonDeg, AltM: t.AltM},
		SystemNoiseTempK: t.SystemNoiseTempK,
	}
	if t.Boresight != nil {
		term.Boresight = &sim.Pointing{AzimuthDeg: t.Boresight.AzimuthDeg, ElevationDeg: t.Boresight.ElevationDeg}
	}
	return term
}

// Build resolves providers and returns a validated mission. Every call
// returns fresh provider instances.
func (s *Scenario) Build() (*sim.Mission, error) {
	if err := s.PolicyBundle.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	m := &sim.Mission{
		StartS:                 s.Mission.StartS,
		EndS:                   s.Mission.EndS,
		StepS:                  s.Mission.StepS,
		Ops:                    sim.DefaultOpsPolicy(),
		Ground:                 s.Ground.terminal("ground"),
		MaxEvalFailureFraction: s.Mission.MaxEvalFailureFraction,
		Trace:                  trace.TraceConfig{Level: trace.TraceLevel(s.Trace.Level), CandidatesK: s.Trace.CandidatesK},
		Link: sim.LinkConfig{
			FrequencyHz:      s.Link.FrequencyHz,
			BandwidthHz:      s.Link.BandwidthHz,
			DataRateBps:      s.Link.DataRateBps,
			TxPowerW:         s.Link.TxPowerW,
			TxLossesDB:       s.Link.TxLossesDB,
			TxGainDBi:        s.Link.TxGainDBi,
			RxGainDBi:        s.Link.RxGainDBi,
			ScanLossExponent: s.Link.ScanLossExponent,
			SystemNoiseTempK: s.Link.SystemNoiseTempK,
			RequiredMetric:   s.Link.RequiredMetric,
			RequiredValue:    s.Link.RequiredValue,
			Propagation:      s.Link.Propagation,
		},
	}
	if m.Trace.Level == "" {
		m.Trace.Level = trace.TraceLevelNone
	}
	if s.Link.RFChain != nil {
		if err := s.Link.RFChain.Apply(&m.Link); err != nil {
			return nil, fmt.Errorf("link.rf_chain: %w", err)
		}
	}

	for i, sat := range s.Satellites {
		src, err := sim.NewTrajectory(sat.Trajectory, m.Ground)
		if err != nil {
			return nil, fmt.Errorf("satellites[%d] (%s): %w", i, sat.ID, err)
		}
		far := sim.Terminal{Name: sat.ID}
		if sat.Terminal != nil {
			far = sat.Terminal.terminal(sat.ID)
		}
		m.Satellites = append(m.Satellites, sim.Satellite{ID: sat.ID, Trajectory: src, Terminal: far})
	}

	var err error
	if m.Environment, err = sim.NewEnvironment(s.Environment); err != nil {
		return nil, err
	}
	if m.Evaluator, err = sim.NewLinkEvaluator(s.Link.Evaluator); err != nil {
		return nil, err
	}
	if s.Modem != nil {
		if m.Modem, err = modem.Build(*s.Modem); err != nil {
			return nil, fmt.Errorf("%w: modem: %v", sim.ErrConfig, err)
		}
	}
	if s.Traffic != nil {
		tc := &sim.TrafficConfig{
			Profile:         s.Traffic.Profile,
			RampFactor:      s.Traffic.RampFactor,
			BurstPeriodS:    s.Traffic.BurstPeriodS,
			BurstDurationS:  s.Traffic.BurstDurationS,
			BurstMultiplier: s.Traffic.BurstMultiplier,
		}
		for _, d := range s.Traffic.Demands {
			tc.Demands = append(tc.Demands, sim.TrafficDemand{
				ID: d.ID, RequestedBps: d.RequestedBps, Weight: d.Weight, StartS: d.StartS, DurationS: d.DurationS,
			})
		}
		m.Traffic = tc
	}

	s.PolicyBundle.Apply(m)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ApplyOverrides sets dotted keys (e.g. "link.tx_power_w" or
// "satellites.0.trajectory.params.altitude_m") in scenario YAML and returns
// the rewritten document. Missing mapping keys are created; list indices
// must exist.
func ApplyOverrides(data []byte, overrides map[string]float64) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("scenario is empty")
	}
	for key, v := range overrides {
		if err := setPath(doc.Content[0], strings.Split(key, "."), v); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}
	return yaml.Marshal(&doc)
}

func setPath(node *yaml.Node, path []string, v float64) error {
	head := path[0]
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value != head {
				continue
			}
			if len(path) == 1 {
				node.Content[i+1] = scalar(v)
				return nil
			}
			return setPath(node.Content[i+1], path[1:], v)
		}
		child := scalar(v)
		if len(path) > 1 {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			if err := setPath(child, path[1:], v); err != nil {
				return err
			}
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: head}, child)
		return nil
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(node.Content) {
			return fmt.Errorf("no list element %q", head)
		}
		if len(path) == 1 {
			node.Content[idx] = scalar(v)
			return nil
		}
		return setPath(node.Content[idx], path[1:], v)
	default:
		return fmt.Errorf("%q is not a mapping or list", head)
	}
}

func scalar(v float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'g', -1, 64)}
}
