// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workerpool

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Job is a single unit of deferred work. It is created by [Pool.Submit]
// and executed exactly once by whichever worker receives it.
type Job struct {
	run func(context.Context)

	// the submitter and the worker live on different goroutines
	// so the trace context travels with the job
	carrier propagation.MapCarrier
}

func newJob(ctx context.Context, f func(context.Context)) Job {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return Job{
		run:     f,
		carrier: carrier,
	}
}

func (j Job) context(parent context.Context) context.Context {
	return otel.GetTextMapPropagator().Extract(parent, j.carrier)
}
