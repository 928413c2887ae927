package sweep

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors updated after every case.
type Metrics struct {
	gatherer prometheus.Gatherer

	Runs         *prometheus.CounterVec
	Availability *prometheus.GaugeVec
	Durations    prometheus.Histogram
	OutageSteps  *prometheus.CounterVec
	Handovers    prometheus.Counter
}

// NewMetrics registers the sweep collectors against reg, defaulting to the
// global registry when nil. Registering twice returns the existing
// collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "missionsim_sweep_runs_total",
		Help: "Completed sweep cases, labeled by status.",
	}, []string{"status"}), "missionsim_sweep_runs_total")
	if err != nil {
		return nil, err
	}
	availability, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "missionsim_sweep_availability_ratio",
		Help: "Link availability of each completed case.",
	}, []string{"case"}), "missionsim_sweep_availability_ratio")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "missionsim_sweep_run_duration_seconds",
		Help:    "Wall-clock time to build and run one case.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}), "missionsim_sweep_run_duration_seconds")
	if err != nil {
		return nil, err
	}
	outages, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "missionsim_sweep_outage_steps_total",
		Help: "Outage timesteps across all cases, labeled by reason.",
	}, []string{"reason"}), "missionsim_sweep_outage_steps_total")
	if err != nil {
		return nil, err
	}
	handovers, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "missionsim_sweep_handovers_total",
		Help: "Handovers across all cases.",
	}), "missionsim_sweep_handovers_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:     gatherer,
		Runs:         runs,
		Availability: availability,
		Durations:    durations,
		OutageSteps:  outages,
		Handovers:    handovers,
	}, nil
}

// Observe records one case result. Safe on a nil receiver.
func (m *Metrics) Observe(r Result) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(r.Status()).Inc()
	m.Durations.Observe(r.Duration.Seconds())
	if r.Err != nil {
		return
	}
	m.Availability.WithLabelValues(r.Case.ID).Set(r.Summary.Availability)
	for reason, n := range r.Summary.OutageSteps {
		m.OutageSteps.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.Handovers.Add(float64(r.Summary.HandoverCount))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			return c, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return c, err
	}
	return c, nil
}
