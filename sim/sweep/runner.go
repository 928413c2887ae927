package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/opensatcom/missionsim/sim"
)

// TracerName names the tracer used for per-case spans.
const TracerName = "github.com/opensatcom/missionsim/sim/sweep"

// Case result statuses.
const (
	StatusOK          = "ok"
	StatusConfigError = "config-error"
	StatusAborted     = "aborted"
	StatusFailed      = "failed"
)

// Builder turns a case into a runnable mission. It must return a fresh
// Mission each call; missions are not shared between workers.
type Builder func(c Case) (*sim.Mission, error)

// Result is the outcome of one case. Err is set when the case could not be
// built or its run was aborted; the other cases are unaffected.
type Result struct {
	Case     Case
	Summary  sim.Summary
	Duration time.Duration
	Err      error
}

// Status classifies the result for metrics and reports.
func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return StatusOK
	case errors.Is(r.Err, sim.ErrConfig):
		return StatusConfigError
	case errors.Is(r.Err, sim.ErrEvaluationBudget):
		return StatusAborted
	default:
		return StatusFailed
	}
}

// Runner executes cases on a bounded pool of workers.
type Runner struct {
	Workers int // 0 = GOMAXPROCS
	Build   Builder
	Metrics *Metrics     // optional
	Tracer  trace.Tracer // nil = the global provider's tracer
	RunID   string       // attached to every span
}

// Run executes every case and returns results in case order. Per-case
// failures are reported in Result.Err; only context cancellation stops
// the sweep early.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Result, error) {
	if r.Build == nil {
		return nil, fmt.Errorf("%w: sweep runner has no builder", sim.ErrConfig)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	tracer := r.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}

	results := make([]Result, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runCase(gctx, tracer, c)
			r.Metrics.Observe(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, tracer trace.Tracer, c Case) Result {
	attrs := []attribute.KeyValue{
		attribute.String("sweep.run_id", r.RunID),
		attribute.String("sweep.case_id", c.ID),
		attribute.Int("sweep.case_index", c.Index),
	}
	for k, v := range c.Params {
		attrs = append(attrs, attribute.Float64("sweep.param."+k, v))
	}
	_, span := tracer.Start(ctx, "sweep.case", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	res := Result{Case: c}
	m, err := r.Build(c)
	if err == nil {
		var out *sim.Outputs
		if out, err = m.Run(); err == nil {
			res.Summary = out.Summary
		}
	}
	res.Duration = time.Since(start)
	res.Err = err

	if err != nil {
		logrus.Warnf("sweep case %d (%s): %v", c.Index, c.Key(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, res.Status())
		return res
	}
	span.SetAttributes(
		attribute.Float64("mission.availability", res.Summary.Availability),
		attribute.Int("mission.handovers", res.Summary.HandoverCount),
	)
	logrus.Debugf("sweep case %d (%s): availability %.4f", c.Index, c.Key(), res.Summary.Availability)
	return res
}
