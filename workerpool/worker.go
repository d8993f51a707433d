// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workerpool

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/z5labs/tinyserve/internal/slogfield"
	"github.com/z5labs/tinyserve/internal/try"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle state of a [Worker].
type State int32

const (
	// Running workers are waiting for or executing a job.
	Running State = iota

	// Stopped workers have seen the queue closed and drained, and will
	// not run any more jobs.
	Stopped
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker owns one goroutine of a [Pool]. It runs jobs one at a time
// until the dispatch queue is closed and drained.
type Worker struct {
	id    int
	log   *slog.Logger
	jobs  metric.Int64Counter
	state atomic.Int32
}

func newWorker(id int, log *slog.Logger, jobs metric.Int64Counter) *Worker {
	return &Worker{
		id:   id,
		log:  log.With(slogfield.Int("worker_id", id)),
		jobs: jobs,
	}
}

// ID returns the index of the worker within its pool.
func (w *Worker) ID() int {
	return w.id
}

// State returns the current lifecycle state of the worker.
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) run(jobs <-chan Job) {
	for job := range jobs {
		w.execute(job)
	}

	w.state.Store(int32(Stopped))
	w.log.Debug("worker was told to terminate")
}

func (w *Worker) execute(job Job) {
	ctx := job.context(context.Background())
	spanCtx, span := otel.Tracer("workerpool").Start(
		ctx,
		"Worker.execute",
		trace.WithAttributes(attribute.Int("worker.id", w.id)),
	)
	defer span.End()

	w.log.DebugContext(spanCtx, "worker got a job; executing")

	outcome := "completed"
	err := runJob(spanCtx, job)
	if err != nil {
		outcome = "panicked"
		span.RecordError(err)
		w.log.ErrorContext(spanCtx, "job panicked", slogfield.Error(err))
	}
	w.jobs.Add(spanCtx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func runJob(ctx context.Context, job Job) (err error) {
	defer try.Recover(&err)

	job.run(ctx)
	return nil
}
