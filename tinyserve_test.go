// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tinyserve

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/z5labs/tinyserve/internal/try"

	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	testCases := []struct {
		name               string
		builder            Builder[int]
		mapper             func(context.Context, int) (string, error)
		expectedVal        string
		expectErr          bool
		expectMapperCalled bool
	}{
		{
			name:    "maps value successfully",
			builder: BuilderOf(42),
			mapper: func(_ context.Context, i int) (string, error) {
				return fmt.Sprintf("%d", i), nil
			},
			expectedVal:        "42",
			expectMapperCalled: true,
		},
		{
			name: "propagates builder error",
			builder: BuilderFunc[int](func(ctx context.Context) (int, error) {
				return 0, errors.New("builder failed")
			}),
			mapper: func(_ context.Context, i int) (string, error) {
				return "should not be called", nil
			},
			expectErr: true,
		},
		{
			name:    "propagates mapper error",
			builder: BuilderOf(5),
			mapper: func(_ context.Context, i int) (string, error) {
				return "ignored", errors.New("mapper failed")
			},
			expectErr:          true,
			expectMapperCalled: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mapperCalled := false
			mapped := Map(tc.builder, func(ctx context.Context, i int) (string, error) {
				mapperCalled = true
				return tc.mapper(ctx, i)
			})

			val, err := mapped.Build(context.Background())
			require.Equal(t, tc.expectMapperCalled, mapperCalled)
			if tc.expectErr {
				require.Error(t, err)
				require.Zero(t, val)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedVal, val)
		})
	}
}

func TestBind(t *testing.T) {
	t.Run("chains builders", func(t *testing.T) {
		bound := Bind(BuilderOf("root"), func(_ context.Context, s string) Builder[int] {
			return BuilderOf(len(s))
		})

		n, err := bound.Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, 4, n)
	})

	t.Run("does not call binder on error", func(t *testing.T) {
		called := false
		bound := Bind(
			BuilderFunc[string](func(ctx context.Context) (string, error) {
				return "", errors.New("failed")
			}),
			func(_ context.Context, s string) Builder[int] {
				called = true
				return BuilderOf(1)
			},
		)

		_, err := bound.Build(context.Background())
		require.Error(t, err)
		require.False(t, called)
	})
}

func TestMemoizeBuilder(t *testing.T) {
	var calls atomic.Int32
	b := MemoizeBuilder(BuilderFunc[int](func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}))

	for range 3 {
		v, err := b.Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, v)
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestDefaultRunner(t *testing.T) {
	testCases := []struct {
		name      string
		builder   Builder[Runtime]
		expectErr error
	}{
		{
			name:    "runs the built runtime",
			builder: BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error { return nil })),
		},
		{
			name: "wraps build errors",
			builder: BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
				return nil, errors.New("build failed")
			}),
			expectErr: BuildError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := DefaultRunner[Runtime]().Run(context.Background(), tc.builder)
			if tc.expectErr == nil {
				require.NoError(t, err)
				return
			}
			var berr BuildError
			require.ErrorAs(t, err, &berr)
		})
	}
}

func TestRecoverPanics(t *testing.T) {
	t.Run("recovers a panic while building", func(t *testing.T) {
		cause := errors.New("bad config")
		b := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
			return MustBuild(ctx, BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
				return nil, cause
			})), nil
		})

		err := RecoverPanics(DefaultRunner[Runtime]()).Run(context.Background(), b)

		var perr try.PanicError
		require.ErrorAs(t, err, &perr)
		require.ErrorIs(t, err, cause)
	})

	t.Run("recovers a panic while running", func(t *testing.T) {
		b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
			panic("boom")
		}))

		err := RecoverPanics(DefaultRunner[Runtime]()).Run(context.Background(), b)

		var perr try.PanicError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "boom", perr.Value)
	})
}

func TestNotifyOnSignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals work differently on Windows")
	}

	b := BuilderOf[Runtime](RuntimeFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	runner := NotifyOnSignal(DefaultRunner[Runtime](), syscall.SIGUSR1)

	go func() {
		time.Sleep(100 * time.Millisecond)
		syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- runner.Run(context.Background(), b)
	}()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}
