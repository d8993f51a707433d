// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tinyserve

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/z5labs/tinyserve/internal/try"
)

// Builder constructs a value of type T.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func implementation of [Builder].
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// BuilderOf returns a [Builder] which always returns v.
func BuilderOf[T any](v T) Builder[T] {
	return BuilderFunc[T](func(_ context.Context) (T, error) {
		return v, nil
	})
}

// MustBuild builds a value from b and panics if b returns an error.
// It is meant to be used inside other builders which are executed
// by a [Runner] wrapped with [RecoverPanics].
func MustBuild[T any](ctx context.Context, b Builder[T]) T {
	v, err := b.Build(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// MemoizeBuilder returns a [Builder] which only calls b once. Subsequent calls
// return the value and error of the first call.
func MemoizeBuilder[T any](b Builder[T]) Builder[T] {
	var (
		once sync.Once
		v    T
		err  error
	)
	return BuilderFunc[T](func(ctx context.Context) (T, error) {
		once.Do(func() {
			v, err = b.Build(ctx)
		})
		return v, err
	})
}

// Map transforms the output of b with f. f is not called if b fails.
func Map[T, U any](b Builder[T], f func(context.Context, T) (U, error)) Builder[U] {
	return BuilderFunc[U](func(ctx context.Context) (U, error) {
		var zero U
		t, err := b.Build(ctx)
		if err != nil {
			return zero, err
		}
		u, err := f(ctx, t)
		if err != nil {
			return zero, err
		}
		return u, nil
	})
}

// Bind chains b with the [Builder] returned by f.
func Bind[T, U any](b Builder[T], f func(context.Context, T) Builder[U]) Builder[U] {
	return BuilderFunc[U](func(ctx context.Context) (U, error) {
		var zero U
		t, err := b.Build(ctx)
		if err != nil {
			return zero, err
		}
		return f(ctx, t).Build(ctx)
	})
}

// Runtime is the long running part of an application e.g. a TCP server.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func implementation of [Runtime].
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner builds a [Runtime] and runs it.
type Runner[T Runtime] interface {
	Run(context.Context, Builder[T]) error
}

// RunnerFunc is a func implementation of [Runner].
type RunnerFunc[T Runtime] func(context.Context, Builder[T]) error

// Run implements the [Runner] interface.
func (f RunnerFunc[T]) Run(ctx context.Context, b Builder[T]) error {
	return f(ctx, b)
}

// BuildError is returned by [DefaultRunner] when the [Runtime] could not be built.
type BuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BuildError) Error() string {
	return "failed to build runtime: " + e.Cause.Error()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BuildError) Unwrap() error {
	return e.Cause
}

// DefaultRunner returns a [Runner] which builds the [Runtime] and then runs it.
func DefaultRunner[T Runtime]() Runner[T] {
	return RunnerFunc[T](func(ctx context.Context, b Builder[T]) error {
		rt, err := b.Build(ctx)
		if err != nil {
			return BuildError{Cause: err}
		}
		return rt.Run(ctx)
	})
}

// RecoverPanics wraps r so that any panic raised while building or running
// the [Runtime] is returned as a [try.PanicError].
func RecoverPanics[T Runtime](r Runner[T]) Runner[T] {
	return RunnerFunc[T](func(ctx context.Context, b Builder[T]) (err error) {
		defer try.Recover(&err)

		return r.Run(ctx, b)
	})
}

// NotifyOnSignal wraps r so that the [context.Context] given to the [Runtime]
// is cancelled once any of the given signals is received.
func NotifyOnSignal[T Runtime](r Runner[T], signals ...os.Signal) Runner[T] {
	return RunnerFunc[T](func(ctx context.Context, b Builder[T]) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return r.Run(sigCtx, b)
	})
}
