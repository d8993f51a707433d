// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/z5labs/tinyserve/internal/otelslog"
	"github.com/z5labs/tinyserve/internal/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by [Pool.Submit] once [Pool.Shutdown] was called.
var ErrPoolClosed = errors.New("workerpool: pool is shut down")

// InvalidSizeError is returned by [New] for pool sizes smaller than one.
type InvalidSizeError struct {
	Size int
}

// Error implements the [builtin.error] interface.
func (e InvalidSizeError) Error() string {
	return fmt.Sprintf("workerpool: size must be at least 1: %d", e.Size)
}

// Pool is a fixed size set of workers sharing one dispatch queue.
type Pool struct {
	log     *slog.Logger
	queue   *Queue[Job]
	workers []*Worker
	done    chan struct{}

	shutdownOnce sync.Once
	pendingReg   metric.Registration
}

// New starts a [Pool] of exactly size workers.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, InvalidSizeError{Size: size}
	}

	o := &options{
		logHandler:    otelslog.NoopHandler{},
		meterProvider: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}

	meter := o.meterProvider.Meter("workerpool")
	jobs, err := meter.Int64Counter(
		"tinyserve.workerpool.jobs",
		metric.WithDescription("Number of jobs executed by the worker pool."),
	)
	if err != nil {
		return nil, err
	}
	pending, err := meter.Int64ObservableGauge(
		"tinyserve.workerpool.pending",
		metric.WithDescription("Number of jobs waiting in the dispatch queue."),
	)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		log:     slog.New(o.logHandler),
		queue:   NewQueue[Job](),
		workers: make([]*Worker, size),
		done:    make(chan struct{}),
	}

	p.pendingReg, err = meter.RegisterCallback(func(ctx context.Context, ob metric.Observer) error {
		ob.ObserveInt64(pending, int64(p.queue.Len()))
		return nil
	}, pending)
	if err != nil {
		p.queue.Close()
		return nil, err
	}

	var g errgroup.Group
	for i := range p.workers {
		w := newWorker(i, p.log, jobs)
		p.workers[i] = w
		g.Go(func() error {
			w.run(p.queue.Out())
			return nil
		})
	}
	go func() {
		defer close(p.done)

		g.Wait()
		err := p.pendingReg.Unregister()
		if err != nil {
			p.log.Warn("failed to unregister pending jobs callback", slogfield.Error(err))
		}
	}()

	return p, nil
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Pending returns the number of jobs which have not been picked up yet.
func (p *Pool) Pending() int {
	return p.queue.Len()
}

// Workers returns the workers of the pool ordered by id.
func (p *Pool) Workers() []*Worker {
	ws := make([]*Worker, len(p.workers))
	copy(ws, p.workers)
	return ws
}

// Submit wraps f in a [Job] and enqueues it. It never waits for a worker
// to become available. The trace context of ctx is propagated to the
// context f is called with.
func (p *Pool) Submit(ctx context.Context, f func(context.Context)) error {
	err := p.queue.Enqueue(newJob(ctx, f))
	if errors.Is(err, ErrQueueClosed) {
		return ErrPoolClosed
	}
	return err
}

// Shutdown stops accepting jobs and waits until every worker has exited.
// Jobs submitted before Shutdown still run. If ctx is done first its error
// is returned and the workers keep draining in the background.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.log.InfoContext(ctx, "shutting down all workers", slogfield.Int("workers", len(p.workers)))
		p.queue.Close()
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return nil
	}
}
