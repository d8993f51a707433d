// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tcp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"
	"github.com/z5labs/tinyserve/internal/otelslog"
	"github.com/z5labs/tinyserve/internal/slogfield"
	"github.com/z5labs/tinyserve/internal/try"
	"github.com/z5labs/tinyserve/workerpool"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// BuildListener creates a tinyserve.Builder that listens on the TCP address
// read from addr.
func BuildListener(addr config.Reader[string]) tinyserve.Builder[net.Listener] {
	return tinyserve.BuilderFunc[net.Listener](func(ctx context.Context) (net.Listener, error) {
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", config.Must(ctx, addr))
		if err != nil {
			return nil, err
		}
		return ln, nil
	})
}

// Handler serves a single accepted connection. It owns conn and
// must close it.
type Handler interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// HandlerFunc is a func implementation of [Handler].
type HandlerFunc func(context.Context, net.Conn) error

// ServeConn implements the [Handler] interface.
func (f HandlerFunc) ServeConn(ctx context.Context, conn net.Conn) error {
	return f(ctx, conn)
}

type options struct {
	logHandler      slog.Handler
	shutdownTimeout config.Reader[time.Duration]
}

// Option configures the [Runtime] created by [Build].
type Option func(*options)

// LogHandler sets the handler for listener lifecycle logs.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// ShutdownTimeout bounds how long Run waits for queued and in-flight
// connections once its context is cancelled. The default is 30 seconds.
func ShutdownTimeout(d config.Reader[time.Duration]) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}

// Runtime accepts connections and submits one job per connection to a
// worker pool.
type Runtime struct {
	log             *slog.Logger
	ls              net.Listener
	pool            *workerpool.Pool
	handler         Handler
	shutdownTimeout time.Duration
}

// Build creates a tinyserve.Builder which constructs a [Runtime] from the
// given listener, pool and handler.
func Build[H Handler](
	listener tinyserve.Builder[net.Listener],
	pool tinyserve.Builder[*workerpool.Pool],
	handler tinyserve.Builder[H],
	opts ...Option,
) tinyserve.Builder[Runtime] {
	return tinyserve.BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		o := options{
			logHandler: otelslog.NoopHandler{},
		}
		for _, opt := range opts {
			opt(&o)
		}

		h := tinyserve.MustBuild(ctx, handler)
		ls := tinyserve.MustBuild(ctx, listener)
		p, err := buildPool(ctx, pool)
		if err != nil {
			return Runtime{}, errors.Join(err, ls.Close())
		}

		rt := Runtime{
			log:             otelslog.New(o.logHandler),
			ls:              ls,
			pool:            p,
			handler:         h,
			shutdownTimeout: config.MustOr(ctx, 30*time.Second, o.shutdownTimeout),
		}
		return rt, nil
	})
}

// buildPool turns a panicking pool builder into an error so the listener
// can be closed before Build gives up.
func buildPool(ctx context.Context, b tinyserve.Builder[*workerpool.Pool]) (_ *workerpool.Pool, err error) {
	defer try.Recover(&err)

	return b.Build(ctx)
}

// Addr returns the address the runtime is listening on.
func (r Runtime) Addr() net.Addr {
	return r.ls.Addr()
}

// Run accepts connections until ctx is cancelled or accepting fails.
// Before returning it shuts the pool down, which waits for every
// submitted connection to be served.
func (r Runtime) Run(ctx context.Context) error {
	r.log.InfoContext(
		ctx,
		"listening",
		slogfield.String("addr", r.ls.Addr().String()),
		slogfield.Int("workers", r.pool.Size()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.accept(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return r.ls.Close()
	})
	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
	defer cancel()

	shutdownErr := r.pool.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		r.log.ErrorContext(ctx, "failed to wait for workers", slogfield.Error(shutdownErr))
	}

	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return shutdownErr
	}
	return errors.Join(err, shutdownErr)
}

func (r Runtime) accept(ctx context.Context) error {
	bo := newAcceptBackOff()
	for {
		conn, err := r.ls.Accept()
		if isTemporary(err) {
			wait := bo.NextBackOff()
			r.log.WarnContext(
				ctx,
				"temporary accept failure; retrying",
				slogfield.Duration("retry_in", wait),
				slogfield.Error(err),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		if err != nil {
			return err
		}
		bo.Reset()

		err = r.pool.Submit(ctx, r.serve(conn))
		if err != nil {
			return errors.Join(err, conn.Close())
		}
	}
}

func (r Runtime) serve(conn net.Conn) func(context.Context) {
	return func(ctx context.Context) {
		err := r.handler.ServeConn(ctx, conn)
		if err != nil {
			r.log.WarnContext(
				ctx,
				"failed to serve connection",
				slogfield.String("remote_addr", conn.RemoteAddr().String()),
				slogfield.Error(err),
			)
		}
	}
}

// newAcceptBackOff starts at 5ms, caps at 1s and never gives up.
func newAcceptBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// isTemporary reports errors such as EMFILE after which the listener
// is still usable.
func isTemporary(err error) bool {
	var terr interface{ Temporary() bool }
	return errors.As(err, &terr) && terr.Temporary()
}
