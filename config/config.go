// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"sync"
)

// Value is a configuration value which may or may not be set.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a set [Value] holding v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader reads a configuration value.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is a func implementation of [Reader].
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// ReaderOf returns a [Reader] which always returns a set value of v.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(_ context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// ErrValueNotSet is returned by [Read] when the [Reader] did not produce a value.
var ErrValueNotSet = errors.New("config: value not set")

// Read reads a value from r and returns [ErrValueNotSet] if it was unset.
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	var zero T
	val, err := r.Read(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := val.Value()
	if !ok {
		return zero, ErrValueNotSet
	}
	return v, nil
}

// Must is like [Read] but panics on any error.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

// MustOr returns def if r is nil or unset and panics if r fails.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	if r == nil {
		return def
	}
	return Must(ctx, Default(def, r))
}

// Default returns a [Reader] which falls back to def when r is unset.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		val, err := r.Read(ctx)
		if err != nil {
			return Value[T]{}, err
		}
		if _, ok := val.Value(); ok {
			return val, nil
		}
		return ValueOf(def), nil
	})
}

// Or returns the first set value of the given readers. Readers are
// tried in order and the first error is returned immediately.
func Or[T any](rs ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range rs {
			val, err := r.Read(ctx)
			if err != nil {
				return Value[T]{}, err
			}
			if _, ok := val.Value(); ok {
				return val, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Map transforms a set value of r with f. Unset values stay unset.
func Map[T, U any](r Reader[T], f func(context.Context, T) (U, error)) Reader[U] {
	return ReaderFunc[U](func(ctx context.Context) (Value[U], error) {
		val, err := r.Read(ctx)
		if err != nil {
			return Value[U]{}, err
		}
		t, ok := val.Value()
		if !ok {
			return Value[U]{}, nil
		}
		u, err := f(ctx, t)
		if err != nil {
			return Value[U]{}, err
		}
		return ValueOf(u), nil
	})
}

// Bind reads the [Reader] returned by f for a set value of r.
func Bind[T, U any](r Reader[T], f func(context.Context, T) Reader[U]) Reader[U] {
	return ReaderFunc[U](func(ctx context.Context) (Value[U], error) {
		val, err := r.Read(ctx)
		if err != nil {
			return Value[U]{}, err
		}
		t, ok := val.Value()
		if !ok {
			return Value[U]{}, nil
		}
		return f(ctx, t).Read(ctx)
	})
}

// Memoize returns a [Reader] which only reads r once.
func Memoize[T any](r Reader[T]) Reader[T] {
	var (
		once sync.Once
		val  Value[T]
		err  error
	)
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		once.Do(func() {
			val, err = r.Read(ctx)
		})
		return val, err
	})
}
