package sim

import (
	"fmt"
	"math"
	"sort"
)

// HandoverConfig sets the hysteresis applied before switching satellites.
type HandoverConfig struct {
	HysteresisDB float64 // margin advantage a challenger must exceed
	HysteresisS  float64 // how long the advantage must persist
}

// Validate rejects negative or missing thresholds.
func (c HandoverConfig) Validate() error {
	if c.HysteresisDB < 0 || math.IsNaN(c.HysteresisDB) {
		return fmt.Errorf("%w: handover hysteresis_db must be non-negative, got %g", ErrConfig, c.HysteresisDB)
	}
	if c.HysteresisS < 0 || math.IsNaN(c.HysteresisS) {
		return fmt.Errorf("%w: handover hysteresis_s must be non-negative, got %g", ErrConfig, c.HysteresisS)
	}
	return nil
}

// Candidate is one satellite's evaluated state at a timestep.
// Eligible combines the ops gate with a successful link evaluation.
// Cause says why an ineligible candidate dropped out: a Gate reason, or
// the outage reason of a failed evaluation.
type Candidate struct {
	ID       string
	Eligible bool
	MarginDB float64
	RangeM   float64
	Cause    string
}

// Handover reason codes.
const (
	HandoverInitial        = "initial-acquisition"
	HandoverImprovedMargin = "improved-margin"
	HandoverHold           = "hysteresis-hold"
	HandoverRetained       = "retained"
	HandoverForced         = "forced-elevation-loss"
	HandoverForcedScan     = "forced-scan-limit"
	HandoverForcedLinkLoss = "forced-link-loss"
	HandoverNoCandidate    = "no-candidate"
)

// HandoverDecision is one entry of the run's handover log.
// SatelliteID is empty when no eligible candidate existed.
type HandoverDecision struct {
	SatelliteID string
	TimeS       float64
	MarginDB    float64
	Reason      string
	IsHandover  bool // serving satellite changed from one locked satellite to another
}

// HandoverPolicy tracks the serving satellite and each challenger's
// advantage streak. Owned by a single run.
type HandoverPolicy struct {
	cfg         HandoverConfig
	current     string
	streakStart map[string]float64
	log         []HandoverDecision
}

// NewHandoverPolicy creates a policy with no satellite locked.
func NewHandoverPolicy(cfg HandoverConfig) *HandoverPolicy {
	return &HandoverPolicy{cfg: cfg, streakStart: make(map[string]float64)}
}

// Current returns the locked satellite ID, or "" when unlocked.
func (h *HandoverPolicy) Current() string { return h.current }

// Log returns the decision log in timestep order.
func (h *HandoverPolicy) Log() []HandoverDecision { return h.log }

// rankCandidates returns eligible candidates ordered by margin descending,
// then range ascending, then ID ascending.
func rankCandidates(cands []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Eligible && !math.IsNaN(c.MarginDB) {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MarginDB != ranked[j].MarginDB {
			return ranked[i].MarginDB > ranked[j].MarginDB
		}
		if ranked[i].RangeM != ranked[j].RangeM {
			return ranked[i].RangeM < ranked[j].RangeM
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// Decide selects the serving satellite for timestep tS and appends the
// decision to the log.
func (h *HandoverPolicy) Decide(tS float64, cands []Candidate) HandoverDecision {
	ranked := rankCandidates(cands)

	if len(ranked) == 0 {
		h.current = ""
		clear(h.streakStart)
		return h.record(HandoverDecision{TimeS: tS, MarginDB: math.NaN(), Reason: HandoverNoCandidate})
	}

	if h.current == "" {
		return h.switchTo(tS, ranked[0], HandoverInitial, false)
	}

	serving, ok := findCandidate(ranked, h.current)
	if !ok {
		lost, _ := findCandidate(cands, h.current)
		return h.switchTo(tS, ranked[0], forcedReason(lost.Cause), true)
	}

	// Update advantage streaks; drop any challenger that fell back.
	advantaged := make(map[string]bool, len(ranked))
	for _, c := range ranked {
		if c.ID == serving.ID || c.MarginDB-serving.MarginDB <= h.cfg.HysteresisDB {
			continue
		}
		advantaged[c.ID] = true
		if _, running := h.streakStart[c.ID]; !running {
			h.streakStart[c.ID] = tS
		}
	}
	for id := range h.streakStart {
		if !advantaged[id] {
			delete(h.streakStart, id)
		}
	}

	for _, c := range ranked {
		start, running := h.streakStart[c.ID]
		if running && tS-start >= h.cfg.HysteresisS {
			return h.switchTo(tS, c, HandoverImprovedMargin, true)
		}
	}

	reason := HandoverRetained
	if len(h.streakStart) > 0 {
		reason = HandoverHold
	}
	return h.record(HandoverDecision{SatelliteID: serving.ID, TimeS: tS, MarginDB: serving.MarginDB, Reason: reason})
}

func (h *HandoverPolicy) switchTo(tS float64, c Candidate, reason string, isHandover bool) HandoverDecision {
	h.current = c.ID
	clear(h.streakStart)
	return h.record(HandoverDecision{
		SatelliteID: c.ID,
		TimeS:       tS,
		MarginDB:    c.MarginDB,
		Reason:      reason,
		IsHandover:  isHandover,
	})
}

func (h *HandoverPolicy) record(d HandoverDecision) HandoverDecision {
	h.log = append(h.log, d)
	return d
}

// forcedReason names a forced switch after the serving satellite dropped
// out for cause.
func forcedReason(cause string) string {
	switch cause {
	case GateScanLimit:
		return HandoverForcedScan
	case string(OutageEvaluationFailed), string(OutageDataUnavailable):
		return HandoverForcedLinkLoss
	default:
		return HandoverForced
	}
}

func findCandidate(cands []Candidate, id string) (Candidate, bool) {
	for _, c := range cands {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
