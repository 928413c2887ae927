// Package sim provides the time-stepped mission simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - world.go: Mission configuration, the per-step loop and Tier 1/2/3 composition
//   - acm.go: ModCod selection state machine with hysteresis and hold time
//   - handover.go: serving-satellite selection with advantage streaks
//   - scheduler.go: round-robin and proportional-fair capacity sharing
//
// # Architecture
//
// The sim package defines the capability interfaces and the engine; provider
// implementations live in sub-packages:
//   - sim/orbit/: trajectory sources (precomputed passes, synthetic passes, SGP4)
//   - sim/environment/: propagation conditions (static, rain events, tables)
//   - sim/link/: link budget evaluation and propagation losses
//   - sim/modem/: ModCod tables and BLER performance curves
//   - sim/trace/: decision trace recording
//   - sim/sweep/: parallel batch runs with metrics
//   - sim/export/: series and summary writers
//
// Provider sub-packages register their factories via init() functions into
// name-keyed lookup tables (RegisterTrajectory, RegisterEnvironment,
// RegisterLinkEvaluator). A Mission resolves each name once before the loop.
//
// # Key Interfaces
//
//   - TrajectorySource: satellite states for the run window
//   - EnvironmentSource: propagation conditions per step and terminal pair
//   - LinkEvaluator: pure snapshot link budget
//   - PerformanceCurve: BLER versus Eb/N0 for one ModCod
//   - Scheduler: per-step allocation of shared capacity
//   - TrafficProfile: active demands per step
package sim
