package sim

import (
	"fmt"
	"math"
)

// PerformanceCurve maps Eb/N0 to block error rate for one ModCod.
type PerformanceCurve interface {
	BLER(ebn0DB float64) float64
	RequiredEbN0DB(targetBLER float64) float64
}

// Mode is one selectable coding/modulation configuration.
type Mode struct {
	Name           string
	NetSpectralEff float64 // information bits/s/Hz after coding, pilots and roll-off
	ImplMarginDB   float64 // added to the curve's required Eb/N0
	Curve          PerformanceCurve
}

// ModemConfig configures the ACM policy for one run.
type ModemConfig struct {
	Modes        []Mode
	TargetBLER   float64
	HysteresisDB float64
	HoldTimeS    float64
}

// Validate rejects a modem without a usable mode table.
func (c ModemConfig) Validate() error {
	if len(c.Modes) == 0 {
		return fmt.Errorf("%w: modem enabled without a mode table", ErrConfig)
	}
	if !(c.TargetBLER > 0 && c.TargetBLER < 1) {
		return fmt.Errorf("%w: target BLER must be within (0, 1), got %g", ErrConfig, c.TargetBLER)
	}
	if c.HysteresisDB < 0 || math.IsNaN(c.HysteresisDB) {
		return fmt.Errorf("%w: ACM hysteresis must be non-negative, got %g", ErrConfig, c.HysteresisDB)
	}
	if c.HoldTimeS < 0 || math.IsNaN(c.HoldTimeS) {
		return fmt.Errorf("%w: ACM hold time must be non-negative, got %g", ErrConfig, c.HoldTimeS)
	}
	seen := make(map[string]bool, len(c.Modes))
	for i, m := range c.Modes {
		if m.Curve == nil {
			return fmt.Errorf("%w: mode %d (%q) has no performance curve", ErrConfig, i, m.Name)
		}
		if !(m.NetSpectralEff > 0) {
			return fmt.Errorf("%w: mode %q spectral efficiency must be positive", ErrConfig, m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate mode %q", ErrConfig, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// NoLock is the ModeState.Current value before the first lock and after an outage.
const NoLock = -1

// ModeState is the ACM state machine state. Current and Candidate index the
// mode table.
type ModeState struct {
	Current     int
	LastSwitchS float64
	Candidate   int
}

// ACM decision reasons.
const (
	ACMColdStart       = "cold-start"
	ACMUpgrade         = "upgrade"
	ACMForcedDowngrade = "forced-downgrade"
	ACMLostLock        = "no-eligible-mode"
	ACMOutage          = "outage"
	ACMHold            = "hold"
	ACMRetained        = "retained"
)

// ACMDecision is the outcome of one ACM step.
type ACMDecision struct {
	TimeS         float64
	Mode          int // NoLock when no mode is selected
	ModeName      string
	ThroughputBps float64
	Switched      bool
	Forced        bool
	Reason        string
}

// ACMPolicy selects a mode per timestep with hysteresis and a hold time.
// Owned by a single run.
type ACMPolicy struct {
	modes        []Mode
	required     []float64
	hysteresisDB float64
	holdS        float64
	bandwidthHz  float64
	state        ModeState
}

// NewACMPolicy builds the policy. cfg must have passed Validate.
func NewACMPolicy(cfg ModemConfig, bandwidthHz float64) *ACMPolicy {
	req := make([]float64, len(cfg.Modes))
	for i, m := range cfg.Modes {
		req[i] = m.Curve.RequiredEbN0DB(cfg.TargetBLER) + m.ImplMarginDB
	}
	return &ACMPolicy{
		modes:        cfg.Modes,
		required:     req,
		hysteresisDB: cfg.HysteresisDB,
		holdS:        cfg.HoldTimeS,
		bandwidthHz:  bandwidthHz,
		state:        ModeState{Current: NoLock, LastSwitchS: math.Inf(-1), Candidate: NoLock},
	}
}

// State returns a copy of the current state.
func (a *ACMPolicy) State() ModeState { return a.state }

// RequiredEbN0DB returns the switching threshold of mode i.
func (a *ACMPolicy) RequiredEbN0DB(i int) float64 { return a.required[i] }

// ModeName returns the name of mode i, or "" for NoLock.
func (a *ACMPolicy) ModeName(i int) string {
	if i == NoLock {
		return ""
	}
	return a.modes[i].Name
}

// throughput of mode i over the configured bandwidth.
func (a *ACMPolicy) throughput(i int) float64 {
	if i == NoLock {
		return 0
	}
	return a.modes[i].NetSpectralEff * a.bandwidthHz
}

// best returns the highest-throughput mode supported at ebn0DB, ties broken
// by lowest required Eb/N0 then table order. NoLock if none qualifies.
func (a *ACMPolicy) best(ebn0DB float64) int {
	best := NoLock
	for i, req := range a.required {
		if req > ebn0DB {
			continue
		}
		if best == NoLock {
			best = i
			continue
		}
		bi, bb := a.modes[i].NetSpectralEff, a.modes[best].NetSpectralEff
		if bi > bb || (bi == bb && req < a.required[best]) {
			best = i
		}
	}
	return best
}

// Step advances the state machine to time tS with the measured Eb/N0.
func (a *ACMPolicy) Step(tS, ebn0DB float64) ACMDecision {
	cand := NoLock
	if !math.IsNaN(ebn0DB) {
		cand = a.best(ebn0DB)
	}
	a.state.Candidate = cand
	cur := a.state.Current

	switch {
	case cur == NoLock:
		if cand == NoLock {
			return a.decide(tS, false, false, ACMRetained)
		}
		return a.switchTo(tS, cand, false, ACMColdStart)

	case !(a.required[cur] <= ebn0DB):
		if cand == NoLock {
			return a.switchTo(tS, NoLock, true, ACMLostLock)
		}
		return a.switchTo(tS, cand, true, ACMForcedDowngrade)

	case cand != cur:
		if tS-a.state.LastSwitchS >= a.holdS && a.required[cand]-a.required[cur] > a.hysteresisDB {
			return a.switchTo(tS, cand, false, ACMUpgrade)
		}
		return a.decide(tS, false, false, ACMHold)
	}
	return a.decide(tS, false, false, ACMRetained)
}

// Drop forces the policy out of lock for an outage timestep.
func (a *ACMPolicy) Drop(tS float64) ACMDecision {
	a.state.Candidate = NoLock
	if a.state.Current == NoLock {
		return a.decide(tS, false, false, ACMOutage)
	}
	return a.switchTo(tS, NoLock, true, ACMOutage)
}

func (a *ACMPolicy) switchTo(tS float64, mode int, forced bool, reason string) ACMDecision {
	a.state.Current = mode
	a.state.LastSwitchS = tS
	return a.decide(tS, true, forced, reason)
}

func (a *ACMPolicy) decide(tS float64, switched, forced bool, reason string) ACMDecision {
	cur := a.state.Current
	return ACMDecision{
		TimeS:         tS,
		Mode:          cur,
		ModeName:      a.ModeName(cur),
		ThroughputBps: a.throughput(cur),
		Switched:      switched,
		Forced:        forced,
		Reason:        reason,
	}
}
