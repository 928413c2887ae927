package sweep

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/opensatcom/missionsim/sim"
	"github.com/opensatcom/missionsim/sim/environment"
	"github.com/opensatcom/missionsim/sim/geo"
	"github.com/opensatcom/missionsim/sim/link"
	"github.com/opensatcom/missionsim/sim/orbit"
)

// passBuilder builds a 10-minute Ku pass whose transmit power is the swept
// "tx_power_w" parameter.
func passBuilder(c Case) (*sim.Mission, error) {
	power, ok := c.Params["tx_power_w"]
	if !ok {
		return nil, errors.New("tx_power_w not swept")
	}
	site := geo.Site{LatDeg: 45, LonDeg: 7, AltM: 200}
	return &sim.Mission{
		StartS: 0, EndS: 600, StepS: 10,
		Ops:    sim.DefaultOpsPolicy(),
		Ground: sim.Terminal{Name: "gs", Site: site},
		Satellites: []sim.Satellite{{
			ID: "leo-1",
			Trajectory: orbit.SyntheticPass{
				Site: site, AltitudeM: 500_000, MinElevationDeg: 5, MaxElevationDeg: 80,
				PassStartS: math.NaN(), PassEndS: math.NaN(),
			},
		}},
		Environment: environment.Static{},
		Evaluator:   link.Evaluator{},
		Link: sim.LinkConfig{
			FrequencyHz: 12e9, BandwidthHz: 1e6, TxPowerW: power,
			TxGainDBi: 30, RxGainDBi: 40, SystemNoiseTempK: 500, RequiredValue: 10,
		},
	}, nil
}

func TestParseAxis(t *testing.T) {
	a, err := ParseAxis("link.tx_power_w=1, 10,100")
	require.NoError(t, err)
	assert.Equal(t, Axis{Key: "link.tx_power_w", Values: []float64{1, 10, 100}}, a)

	a, err = ParseAxis("ops.min_elevation_deg=0:20:5")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10, 15, 20}, a.Values)

	for _, bad := range []string{"nokey", "=1,2", "k=", "k=a,b", "k=0:1:0"} {
		_, err := ParseAxis(bad)
		assert.Error(t, err, bad)
	}
}

func TestFullFactorial_LastAxisFastest(t *testing.T) {
	cases := FullFactorial([]Axis{
		{Key: "a", Values: []float64{1, 2}},
		{Key: "b", Values: []float64{10, 20, 30}},
	})
	require.Len(t, cases, 6)
	assert.Equal(t, map[string]float64{"a": 1, "b": 10}, cases[0].Params)
	assert.Equal(t, map[string]float64{"a": 1, "b": 20}, cases[1].Params)
	assert.Equal(t, map[string]float64{"a": 2, "b": 30}, cases[5].Params)
	assert.Equal(t, "a=2,b=30", cases[5].Key())

	ids := map[string]bool{}
	for i, c := range cases {
		assert.Equal(t, i, c.Index)
		ids[c.ID] = true
	}
	assert.Len(t, ids, 6, "IDs are unique")
	assert.Equal(t, cases[0].ID, FullFactorial([]Axis{{Key: "a", Values: []float64{1}}, {Key: "b", Values: []float64{10}}})[0].ID,
		"IDs derive from the overrides")
}

func TestLatinHypercube_OneSamplePerStratum(t *testing.T) {
	cases := LatinHypercube([]Range{{Key: "x", Lo: 0, Hi: 10}, {Key: "y", Lo: -1, Hi: 1}}, 5, 42)
	require.Len(t, cases, 5)

	strata := map[int]bool{}
	for _, c := range cases {
		x := c.Params["x"]
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 10.0)
		strata[int(x/2)] = true
	}
	assert.Len(t, strata, 5)

	again := LatinHypercube([]Range{{Key: "x", Lo: 0, Hi: 10}, {Key: "y", Lo: -1, Hi: 1}}, 5, 42)
	for i := range cases {
		assert.Equal(t, cases[i].Params, again[i].Params, "seeded design is reproducible")
	}
}

func TestRunner_RunsCasesInOrderWithMetricsAndSpans(t *testing.T) {
	// GIVEN a three-level power sweep with an isolated registry and span recorder
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cases := FullFactorial([]Axis{{Key: "tx_power_w", Values: []float64{1e-4, 1, 10}}})
	r := &Runner{Workers: 2, Build: passBuilder, Metrics: metrics, Tracer: tp.Tracer("test"), RunID: "run-1"}

	// WHEN the sweep runs
	results, err := r.Run(context.Background(), cases)
	require.NoError(t, err)

	// THEN results are in case order and availability grows with power
	require.Len(t, results, 3)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, i, res.Case.Index)
		assert.Equal(t, StatusOK, res.Status())
	}
	assert.Equal(t, 0.0, results[0].Summary.Availability, "starved link never closes")
	assert.Greater(t, results[2].Summary.Availability, 0.0)
	assert.GreaterOrEqual(t, results[2].Summary.Availability, results[1].Summary.Availability)

	// AND every case is counted and traced
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(StatusOK)))
	assert.Equal(t, results[2].Summary.Availability, testutil.ToFloat64(metrics.Availability.WithLabelValues(cases[2].ID)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Durations))
	require.Len(t, recorder.Ended(), 3)
	for _, span := range recorder.Ended() {
		assert.Equal(t, "sweep.case", span.Name())
	}
}

func TestRunner_CaseFailureDoesNotStopSweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cases := []Case{
		newCase(0, map[string]float64{"tx_power_w": 10}),
		newCase(1, map[string]float64{"other": 1}),
		newCase(2, map[string]float64{"tx_power_w": -1}),
	}
	results, err := (&Runner{Workers: 1, Build: passBuilder, Metrics: metrics, Tracer: tp.Tracer("test")}).Run(context.Background(), cases)
	require.NoError(t, err)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, StatusFailed, results[1].Status(), "builder error")
	assert.Equal(t, StatusAborted, results[2].Status(), "every evaluation fails")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues(StatusAborted)))

	var errored int
	for _, span := range recorder.Ended() {
		if span.Status().Code == codes.Error {
			errored++
		}
	}
	assert.Equal(t, 2, errored)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Runner{Workers: 1, Build: passBuilder}).Run(ctx, FullFactorial([]Axis{{Key: "tx_power_w", Values: []float64{1, 2}}}))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = (&Runner{}).Run(context.Background(), nil)
	assert.ErrorIs(t, err, sim.ErrConfig)
}

func TestMetrics_RegisterTwiceAndTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.Runs, second.Runs, "existing collectors are reused")

	second.Observe(Result{Summary: sim.Summary{Availability: 0.5, OutageSteps: map[sim.OutageReason]int{sim.OutageMargin: 3}}})
	assert.Equal(t, 3.0, testutil.ToFloat64(first.OutageSteps.WithLabelValues(string(sim.OutageMargin))))

	path := filepath.Join(t.TempDir(), "sweep.prom")
	require.NoError(t, first.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "missionsim_sweep_runs_total"))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.Observe(Result{}) })
}

func TestParetoFront(t *testing.T) {
	mk := func(avail float64, handovers int) Result {
		return Result{Summary: sim.Summary{Availability: avail, HandoverCount: handovers}}
	}
	results := []Result{
		mk(0.90, 1),
		mk(0.95, 3),
		mk(0.85, 2), // dominated by the first
		mk(0.99, 5),
		{Err: errors.New("failed")},
	}
	front := ParetoFront(results, MaximizeAvailability, MinimizeHandovers)
	require.Len(t, front, 3)
	assert.Equal(t, 0.90, front[0].Summary.Availability)
	assert.Equal(t, 0.95, front[1].Summary.Availability)
	assert.Equal(t, 0.99, front[2].Summary.Availability)
}

func TestParetoFront_UndefinedStatisticRanksWorst(t *testing.T) {
	// GIVEN an all-outage case whose throughput statistic is undefined
	served := Result{Summary: sim.Summary{Availability: 0.5, ThroughputMeanBps: 1e6}}
	dark := Result{Summary: sim.Summary{Availability: 0, ThroughputMeanBps: math.NaN()}}

	// THEN it is dominated
	front := ParetoFront([]Result{dark, served}, MaximizeAvailability, MaximizeThroughput)
	require.Len(t, front, 1)
	assert.Equal(t, 0.5, front[0].Summary.Availability)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), false, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
