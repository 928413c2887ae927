package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures mode switches, handovers and allocations.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level       TraceLevel
	CandidatesK int // number of candidates kept per handover record
}

// Enabled reports whether decisions should be recorded.
func (c TraceConfig) Enabled() bool { return c.Level == TraceLevelDecisions }

// MissionTrace collects decision records during a mission run.
type MissionTrace struct {
	Config       TraceConfig
	ModeSwitches []ModeSwitchRecord
	Handovers    []HandoverRecord
	Allocations  []AllocationRecord
}

// NewMissionTrace creates a MissionTrace ready for recording.
func NewMissionTrace(config TraceConfig) *MissionTrace {
	return &MissionTrace{
		Config:       config,
		ModeSwitches: make([]ModeSwitchRecord, 0),
		Handovers:    make([]HandoverRecord, 0),
		Allocations:  make([]AllocationRecord, 0),
	}
}

// RecordModeSwitch appends an ACM mode switch record.
func (mt *MissionTrace) RecordModeSwitch(record ModeSwitchRecord) {
	mt.ModeSwitches = append(mt.ModeSwitches, record)
}

// RecordHandover appends a serving-satellite change record.
func (mt *MissionTrace) RecordHandover(record HandoverRecord) {
	mt.Handovers = append(mt.Handovers, record)
}

// RecordAllocation appends a scheduler decision record.
func (mt *MissionTrace) RecordAllocation(record AllocationRecord) {
	mt.Allocations = append(mt.Allocations, record)
}
