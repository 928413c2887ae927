package sim

import (
	"fmt"
	"sort"
)

// TrajectorySource produces satellite states for the simulation window,
// one entry per requested timestep in ascending time order. Entries the
// source cannot produce are returned with Available=false (or omitted from
// the tail of the slice); a returned error is treated as fatal.
type TrajectorySource interface {
	States(t0S, t1S, dtS float64) ([]SatState, error)
}

// EnvironmentSource returns propagation conditions for a terminal pair.
// Returning an error wrapping ErrDataUnavailable marks the step as an outage.
type EnvironmentSource interface {
	Conditions(tS float64, a, b Terminal) (Conditions, error)
}

// LinkEvaluator computes a snapshot link budget. It must be free of side
// effects; an error marks the timestep "evaluation-failed".
type LinkEvaluator interface {
	Evaluate(geom Geometry, cfg LinkConfig, cond Conditions) (LinkResult, error)
}

// ProviderSpec names a registered provider and its parameters.
type ProviderSpec struct {
	Provider string `yaml:"provider"`
	Params   Params `yaml:"params"`
}

// TrajectoryFactory builds a TrajectorySource for a ground site.
type TrajectoryFactory func(ground Terminal, params Params) (TrajectorySource, error)

// EnvironmentFactory builds an EnvironmentSource.
type EnvironmentFactory func(params Params) (EnvironmentSource, error)

// LinkEvaluatorFactory builds a LinkEvaluator.
type LinkEvaluatorFactory func(params Params) (LinkEvaluator, error)

// Provider lookup tables. Sub-packages (sim/orbit, sim/environment, sim/link)
// fill them from init(); they are read-only once main starts.
var (
	trajectoryFactories  = map[string]TrajectoryFactory{}
	environmentFactories = map[string]EnvironmentFactory{}
	evaluatorFactories   = map[string]LinkEvaluatorFactory{}
)

// RegisterTrajectory adds a trajectory provider. Panics on duplicate names.
func RegisterTrajectory(name string, f TrajectoryFactory) {
	if _, dup := trajectoryFactories[name]; dup {
		panic(fmt.Sprintf("trajectory provider %q registered twice", name))
	}
	trajectoryFactories[name] = f
}

// RegisterEnvironment adds an environment provider. Panics on duplicate names.
func RegisterEnvironment(name string, f EnvironmentFactory) {
	if _, dup := environmentFactories[name]; dup {
		panic(fmt.Sprintf("environment provider %q registered twice", name))
	}
	environmentFactories[name] = f
}

// RegisterLinkEvaluator adds a link evaluator. Panics on duplicate names.
func RegisterLinkEvaluator(name string, f LinkEvaluatorFactory) {
	if _, dup := evaluatorFactories[name]; dup {
		panic(fmt.Sprintf("link evaluator %q registered twice", name))
	}
	evaluatorFactories[name] = f
}

// NewTrajectory resolves a trajectory provider by name.
func NewTrajectory(spec ProviderSpec, ground Terminal) (TrajectorySource, error) {
	f, ok := trajectoryFactories[spec.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown trajectory provider %q (known: %v)", ErrConfig, spec.Provider, TrajectoryProviderNames())
	}
	src, err := f(ground, spec.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: trajectory provider %q: %v", ErrConfig, spec.Provider, err)
	}
	return src, nil
}

// NewEnvironment resolves an environment provider by name.
// An empty name selects "static".
func NewEnvironment(spec ProviderSpec) (EnvironmentSource, error) {
	name := spec.Provider
	if name == "" {
		name = "static"
	}
	f, ok := environmentFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown environment provider %q (known: %v)", ErrConfig, name, EnvironmentProviderNames())
	}
	src, err := f(spec.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: environment provider %q: %v", ErrConfig, name, err)
	}
	return src, nil
}

// NewLinkEvaluator resolves a link evaluator by name.
// An empty name selects "default".
func NewLinkEvaluator(spec ProviderSpec) (LinkEvaluator, error) {
	name := spec.Provider
	if name == "" {
		name = "default"
	}
	f, ok := evaluatorFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown link evaluator %q (known: %v)", ErrConfig, name, LinkEvaluatorNames())
	}
	ev, err := f(spec.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: link evaluator %q: %v", ErrConfig, name, err)
	}
	return ev, nil
}

// TrajectoryProviderNames returns registered trajectory provider names, sorted.
func TrajectoryProviderNames() []string { return sortedKeys(trajectoryFactories) }

// EnvironmentProviderNames returns registered environment provider names, sorted.
func EnvironmentProviderNames() []string { return sortedKeys(environmentFactories) }

// LinkEvaluatorNames returns registered link evaluator names, sorted.
func LinkEvaluatorNames() []string { return sortedKeys(evaluatorFactories) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
