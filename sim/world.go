package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opensatcom/missionsim/sim/geo"
	"github.com/opensatcom/missionsim/sim/trace"
)

// DefaultMaxEvalFailureFraction is the share of evaluation-failed steps a run
// tolerates before it is aborted.
const DefaultMaxEvalFailureFraction = 0.25

// Satellite is one candidate serving satellite.
type Satellite struct {
	ID         string
	Trajectory TrajectorySource
	Terminal   Terminal // far-end terminal handed to the environment source
}

// Mission is the complete, resolved configuration of one run. One satellite
// runs Tier 1, several run Tier 2 with handover, and a Traffic block adds
// Tier 3 scheduling on top of either.
type Mission struct {
	StartS float64
	EndS   float64
	StepS  float64

	Ops         OpsPolicy
	Ground      Terminal
	Satellites  []Satellite
	Environment EnvironmentSource
	Evaluator   LinkEvaluator
	Link        LinkConfig

	// Modem enables ACM. Its hold time is taken from Ops.ACMHoldTimeS.
	Modem *ModemConfig

	HandoverHysteresisDB float64

	Traffic   *TrafficConfig
	Scheduler string  // "round-robin" or "proportional-fair" (default)
	PFDecay   float64 // 0 = DefaultPFDecay

	MaxEvalFailureFraction float64 // 0 = DefaultMaxEvalFailureFraction
	Trace                  trace.TraceConfig
}

// Steps returns the number of timesteps in [StartS, EndS] inclusive.
func (m *Mission) Steps() int {
	return int(math.Round((m.EndS-m.StartS)/m.StepS)) + 1
}

// TimeAt returns the time of step i.
func (m *Mission) TimeAt(i int) float64 {
	return m.StartS + float64(i)*m.StepS
}

// Validate reports configuration errors. All returned errors wrap ErrConfig.
func (m *Mission) Validate() error {
	if math.IsNaN(m.StartS) || math.IsNaN(m.EndS) || !(m.EndS > m.StartS) {
		return fmt.Errorf("%w: degenerate time window [%g, %g]", ErrConfig, m.StartS, m.EndS)
	}
	if !(m.StepS > 0) {
		return fmt.Errorf("%w: step must be positive, got %g", ErrConfig, m.StepS)
	}
	if err := m.Ops.Validate(); err != nil {
		return err
	}
	if len(m.Satellites) == 0 {
		return fmt.Errorf("%w: no satellites configured", ErrConfig)
	}
	seen := make(map[string]bool, len(m.Satellites))
	for _, s := range m.Satellites {
		if s.ID == "" {
			return fmt.Errorf("%w: satellite without id", ErrConfig)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate satellite %q", ErrConfig, s.ID)
		}
		seen[s.ID] = true
		if s.Trajectory == nil {
			return fmt.Errorf("%w: satellite %q has no trajectory source", ErrConfig, s.ID)
		}
	}
	if m.Environment == nil {
		return fmt.Errorf("%w: no environment source", ErrConfig)
	}
	if m.Evaluator == nil {
		return fmt.Errorf("%w: no link evaluator", ErrConfig)
	}
	if m.Modem != nil {
		if err := m.Modem.Validate(); err != nil {
			return err
		}
	}
	if (m.Modem != nil || m.Traffic != nil) && !(m.Link.BandwidthHz > 0) {
		return fmt.Errorf("%w: bandwidth_hz must be positive when a modem or traffic is configured", ErrConfig)
	}
	if err := (HandoverConfig{HysteresisDB: m.HandoverHysteresisDB, HysteresisS: m.Ops.HandoverHysteresisS}).Validate(); err != nil {
		return err
	}
	if m.Traffic != nil {
		if err := m.Traffic.Validate(); err != nil {
			return err
		}
		if !IsValidScheduler(m.Scheduler) {
			return fmt.Errorf("%w: unknown scheduler %q", ErrConfig, m.Scheduler)
		}
	}
	if m.MaxEvalFailureFraction < 0 || m.MaxEvalFailureFraction > 1 {
		return fmt.Errorf("%w: max_eval_failure_fraction must be within [0, 1], got %g", ErrConfig, m.MaxEvalFailureFraction)
	}
	if !trace.IsValidTraceLevel(string(m.Trace.Level)) {
		return fmt.Errorf("%w: unknown trace level %q", ErrConfig, m.Trace.Level)
	}
	return nil
}

// Outputs is the result of a completed run.
type Outputs struct {
	Series      []TimeSeriesSample
	Summary     Summary
	Handovers   []HandoverDecision // Tier 2 decision log; nil for one satellite
	Allocations [][]Allocation     // Tier 3 per-step allocations; nil without traffic
	Trace       *trace.MissionTrace
}

// candidateEval is one satellite's state at one timestep.
type candidateEval struct {
	sat     *Satellite
	geom    Geometry
	hasGeom bool
	result  LinkResult
	reason  OutageReason // OutageNone when the link was evaluated
	gate    string       // Gate reason when reason is OutagePolicy
}

// run holds the mutable state of one Run call. Nothing in it is shared.
type run struct {
	m         *Mission
	link      LinkConfig
	states    map[string][]SatState
	acm       *ACMPolicy
	handover  *HandoverPolicy
	profile   TrafficProfile
	scheduler Scheduler
	trace     *trace.MissionTrace

	served    map[string]float64
	requested map[string]float64
	failed    int
	maxFailed float64
}

// Run executes the mission from StartS to EndS inclusive. Per-step data
// gaps and evaluation failures become outage samples; only configuration
// errors and an exhausted evaluation budget are returned as errors.
func (m *Mission) Run() (*Outputs, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	n := m.Steps()
	r := &run{
		m:         m,
		link:      m.Link,
		states:    make(map[string][]SatState, len(m.Satellites)),
		served:    make(map[string]float64),
		requested: make(map[string]float64),
	}
	frac := m.MaxEvalFailureFraction
	if frac == 0 {
		frac = DefaultMaxEvalFailureFraction
	}
	r.maxFailed = frac * float64(n)
	if m.Ground.SystemNoiseTempK > 0 {
		r.link.SystemNoiseTempK = m.Ground.SystemNoiseTempK
	}

	for i := range m.Satellites {
		s := &m.Satellites[i]
		states, err := s.Trajectory.States(m.StartS, m.EndS, m.StepS)
		if err != nil {
			if !errors.Is(err, ErrDataUnavailable) {
				return nil, fmt.Errorf("trajectory for %s: %w", s.ID, err)
			}
			logrus.Warnf("trajectory for %s unavailable; all steps marked data-unavailable", s.ID)
			states = nil
		}
		r.states[s.ID] = states
	}
	if m.Modem != nil {
		cfg := *m.Modem
		cfg.HoldTimeS = m.Ops.ACMHoldTimeS
		r.acm = NewACMPolicy(cfg, m.Link.BandwidthHz)
	}
	if len(m.Satellites) > 1 {
		r.handover = NewHandoverPolicy(HandoverConfig{HysteresisDB: m.HandoverHysteresisDB, HysteresisS: m.Ops.HandoverHysteresisS})
	}
	if m.Traffic != nil {
		r.profile = NewTrafficProfile(*m.Traffic, m.StartS, m.EndS)
		r.scheduler = NewScheduler(m.Scheduler, m.PFDecay)
	}
	if m.Trace.Enabled() {
		r.trace = trace.NewMissionTrace(m.Trace)
	}

	out := &Outputs{Series: make([]TimeSeriesSample, 0, n), Trace: r.trace}
	if r.profile != nil {
		out.Allocations = make([][]Allocation, 0, n)
	}
	for i := 0; i < n; i++ {
		sample, allocs := r.step(i)
		out.Series = append(out.Series, sample)
		if r.profile != nil {
			out.Allocations = append(out.Allocations, allocs)
		}
		if float64(r.failed) > r.maxFailed {
			return nil, fmt.Errorf("%w: %d of %d steps failed by t=%gs (limit %.0f%%)",
				ErrEvaluationBudget, r.failed, n, sample.TimeS, frac*100)
		}
	}
	if r.handover != nil {
		out.Handovers = r.handover.Log()
	}
	out.Summary = Summarize(out.Series, m.StepS, out.Handovers)
	if r.profile != nil {
		out.Summary.DemandSatisfaction = make(map[string]float64, len(r.requested))
		for id, req := range r.requested {
			if req > 0 {
				out.Summary.DemandSatisfaction[id] = r.served[id] / req
			}
		}
	}
	return out, nil
}

// evaluate samples geometry, gate, environment and link for one satellite.
func (r *run) evaluate(i int, tS float64, s *Satellite) candidateEval {
	ev := candidateEval{sat: s}
	states := r.states[s.ID]
	if i >= len(states) || !states[i].Available || !states[i].PositionM.IsFinite() {
		ev.reason = OutageDataUnavailable
		return ev
	}
	var look geo.Look
	if states[i].Look != nil {
		look = *states[i].Look
	} else {
		look = geo.LookAngles(r.m.Ground.Site, states[i].PositionM)
	}
	ev.geom = Geometry{
		ElevationDeg: look.ElevationDeg,
		AzimuthDeg:   look.AzimuthDeg,
		RangeM:       look.RangeM,
		ScanDeg:      r.m.Ground.ScanAngleDeg(look),
	}
	ev.hasGeom = true
	if ok, why := Gate(ev.geom, r.m.Ops); !ok {
		ev.reason = OutagePolicy
		ev.gate = why
		return ev
	}
	cond, err := r.m.Environment.Conditions(tS, r.m.Ground, s.Terminal)
	if err != nil {
		logrus.Debugf("[t=%.1f] %s: environment: %v", tS, s.ID, err)
		ev.reason = OutageDataUnavailable
		return ev
	}
	res, err := r.m.Evaluator.Evaluate(ev.geom, r.link, cond)
	if err == nil && !res.IsFinite() {
		err = errors.New("non-finite link result")
	}
	if err != nil {
		logrus.Debugf("[t=%.1f] %s: link evaluation failed: %v", tS, s.ID, err)
		ev.reason = OutageEvaluationFailed
		return ev
	}
	ev.result = res
	return ev
}

// step advances every state machine by one timestep.
func (r *run) step(i int) (TimeSeriesSample, []Allocation) {
	tS := r.m.TimeAt(i)
	evals := make([]candidateEval, len(r.m.Satellites))
	for k := range r.m.Satellites {
		evals[k] = r.evaluate(i, tS, &r.m.Satellites[k])
	}

	sample := TimeSeriesSample{
		TimeS:        tS,
		ElevationDeg: math.NaN(),
		AzimuthDeg:   math.NaN(),
		RangeM:       math.NaN(),
		MarginDB:     math.NaN(),
		EbN0DB:       math.NaN(),
	}

	var serving *candidateEval
	if r.handover == nil {
		if evals[0].reason == OutageNone {
			serving = &evals[0]
		} else {
			sample.OutageReason = evals[0].reason
		}
		if evals[0].hasGeom {
			r.fillGeometry(&sample, &evals[0])
		}
	} else {
		serving = r.selectServing(tS, evals, &sample)
	}

	if serving != nil {
		sample.SatelliteID = serving.sat.ID
		r.fillGeometry(&sample, serving)
		sample.MarginDB = serving.result.MarginDB
		sample.EbN0DB = serving.result.EbN0DB
		if serving.result.MarginDB < 0 {
			sample.OutageReason = OutageMargin
		}
	}
	sample.Outage = sample.OutageReason != OutageNone
	if sample.OutageReason == OutageEvaluationFailed {
		r.failed++
	}

	if r.acm != nil {
		prev := r.acm.ModeName(r.acm.State().Current)
		var d ACMDecision
		if serving != nil {
			d = r.acm.Step(tS, sample.EbN0DB)
		} else {
			d = r.acm.Drop(tS)
		}
		sample.Mode = d.ModeName
		if !sample.Outage {
			sample.ThroughputBps = d.ThroughputBps
		}
		if d.Switched && r.trace != nil {
			r.trace.RecordModeSwitch(trace.ModeSwitchRecord{
				TimeS: tS, From: prev, To: d.ModeName, EbN0DB: sample.EbN0DB, Reason: d.Reason, Forced: d.Forced,
			})
		}
	}

	if r.profile == nil {
		return sample, nil
	}
	sample.CapacityBps = r.capacity(&sample)
	demands := r.profile.DemandsAt(tS)
	allocs := r.scheduler.Allocate(tS, demands, sample.CapacityBps)
	for _, a := range allocs {
		r.requested[a.DemandID] += a.RequestedBps
		r.served[a.DemandID] += a.AllocatedBps
	}
	if r.trace != nil {
		grants := make([]trace.Grant, len(allocs))
		for k, a := range allocs {
			grants[k] = trace.Grant{DemandID: a.DemandID, RequestedBps: a.RequestedBps, AllocatedBps: a.AllocatedBps}
		}
		r.trace.RecordAllocation(trace.AllocationRecord{TimeS: tS, CapacityBps: sample.CapacityBps, Grants: grants})
	}
	return sample, allocs
}

// selectServing runs the handover policy over all candidates.
func (r *run) selectServing(tS float64, evals []candidateEval, sample *TimeSeriesSample) *candidateEval {
	prev := r.handover.Current()
	cands := make([]Candidate, len(evals))
	for k, ev := range evals {
		cands[k] = Candidate{
			ID:       ev.sat.ID,
			Eligible: ev.reason == OutageNone,
			MarginDB: ev.result.MarginDB,
			RangeM:   ev.geom.RangeM,
			Cause:    string(ev.reason),
		}
		if ev.gate != "" {
			cands[k].Cause = ev.gate
		}
	}
	d := r.handover.Decide(tS, cands)
	if d.SatelliteID != prev {
		if d.IsHandover {
			logrus.Debugf("[t=%.1f] handover %s -> %s (%s, margin %.2f dB)", tS, prev, d.SatelliteID, d.Reason, d.MarginDB)
		}
		if r.trace != nil {
			r.trace.RecordHandover(r.handoverRecord(prev, d, cands))
		}
	}
	if d.SatelliteID == "" {
		sample.OutageReason = noCandidateReason(evals)
		return nil
	}
	for k := range evals {
		if evals[k].sat.ID == d.SatelliteID {
			return &evals[k]
		}
	}
	return nil
}

func (r *run) handoverRecord(prev string, d HandoverDecision, cands []Candidate) trace.HandoverRecord {
	rec := trace.HandoverRecord{TimeS: d.TimeS, From: prev, To: d.SatelliteID, Reason: d.Reason, MarginDB: d.MarginDB}
	ranked := rankCandidates(cands)
	if len(ranked) > 0 && d.SatelliteID != "" {
		rec.Regret = math.Max(ranked[0].MarginDB-d.MarginDB, 0)
	}
	k := min(r.m.Trace.CandidatesK, len(ranked))
	if k > 0 {
		rec.Candidates = make([]trace.CandidateMargin, k)
		for j := 0; j < k; j++ {
			rec.Candidates[j] = trace.CandidateMargin{
				SatelliteID: ranked[j].ID, MarginDB: ranked[j].MarginDB, RangeM: ranked[j].RangeM, Eligible: true,
			}
		}
	}
	return rec
}

// noCandidateReason picks the outage reason for a Tier 2 step with no
// eligible satellite: evaluation failures first, then data gaps.
func noCandidateReason(evals []candidateEval) OutageReason {
	reason := OutageNoSatellite
	for _, ev := range evals {
		switch ev.reason {
		case OutageEvaluationFailed:
			return OutageEvaluationFailed
		case OutageDataUnavailable:
			reason = OutageDataUnavailable
		}
	}
	return reason
}

func (r *run) fillGeometry(sample *TimeSeriesSample, ev *candidateEval) {
	sample.ElevationDeg = ev.geom.ElevationDeg
	sample.AzimuthDeg = ev.geom.AzimuthDeg
	sample.RangeM = ev.geom.RangeM
}

// capacity is the scheduling ceiling for a step: the ACM throughput when a
// modem is configured, otherwise the Shannon bound at the measured Eb/N0.
func (r *run) capacity(sample *TimeSeriesSample) float64 {
	if sample.Outage {
		return 0
	}
	if r.acm != nil {
		return sample.ThroughputBps
	}
	if math.IsNaN(sample.EbN0DB) {
		return 0
	}
	return r.m.Link.BandwidthHz * math.Log2(1+math.Pow(10, sample.EbN0DB/10))
}
