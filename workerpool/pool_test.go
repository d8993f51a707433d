// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workerpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type failingMeter struct {
	noop.Meter
	err error
}

func (m failingMeter) RegisterCallback(_ metric.Callback, _ ...metric.Observable) (metric.Registration, error) {
	return nil, m.err
}

type failingMeterProvider struct {
	noop.MeterProvider
	err error
}

func (mp failingMeterProvider) Meter(_ string, _ ...metric.MeterOption) metric.Meter {
	return failingMeter{err: mp.err}
}

func TestNew(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		testCases := []struct {
			Name string
			Size int
		}{
			{Name: "if the size is zero", Size: 0},
			{Name: "if the size is negative", Size: -3},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				_, err := New(testCase.Size)

				var iserr InvalidSizeError
				require.ErrorAs(t, err, &iserr)
				assert.Equal(t, testCase.Size, iserr.Size)
			})
		}

		t.Run("and stop the queue if the metrics callback can not be registered", func(t *testing.T) {
			regErr := errors.New("failed to register callback")
			before := runtime.NumGoroutine()

			_, err := New(2, MeterProvider(failingMeterProvider{err: regErr}))
			require.ErrorIs(t, err, regErr)

			require.Eventually(t, func() bool {
				return runtime.NumGoroutine() <= before
			}, 5*time.Second, 10*time.Millisecond)
		})
	})

	t.Run("will start exactly size workers", func(t *testing.T) {
		p, err := New(4)
		require.Nil(t, err)

		assert.Equal(t, 4, p.Size())
		for i, w := range p.Workers() {
			assert.Equal(t, i, w.ID())
			assert.Equal(t, Running, w.State())
		}

		err = p.Shutdown(context.Background())
		require.Nil(t, err)
	})
}

func TestPool_Submit(t *testing.T) {
	t.Run("will execute every job exactly once", func(t *testing.T) {
		testCases := []struct {
			Size int
			Jobs int
		}{
			{Size: 1, Jobs: 0},
			{Size: 1, Jobs: 1},
			{Size: 1, Jobs: 100},
			{Size: 4, Jobs: 0},
			{Size: 4, Jobs: 3},
			{Size: 4, Jobs: 500},
			{Size: 16, Jobs: 1000},
			{Size: 64, Jobs: 10},
			{Size: 64, Jobs: 2000},
		}

		for _, testCase := range testCases {
			t.Run(fmt.Sprintf("if the pool has %d workers and %d jobs are submitted", testCase.Size, testCase.Jobs), func(t *testing.T) {
				p, err := New(testCase.Size)
				require.Nil(t, err)

				counts := make([]atomic.Int32, testCase.Jobs)
				for i := 0; i < testCase.Jobs; i++ {
					err := p.Submit(context.Background(), func(_ context.Context) {
						counts[i].Add(1)
					})
					require.Nil(t, err)
				}

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				err = p.Shutdown(ctx)
				require.Nil(t, err)

				for i := range counts {
					assert.Equal(t, int32(1), counts[i].Load(), "job %d", i)
				}
				assert.Equal(t, 0, p.Pending())
				for _, w := range p.Workers() {
					assert.Equal(t, Stopped, w.State())
				}
			})
		}
	})

	t.Run("will return ErrPoolClosed", func(t *testing.T) {
		t.Run("if the pool was shut down", func(t *testing.T) {
			p, err := New(2)
			require.Nil(t, err)

			err = p.Shutdown(context.Background())
			require.Nil(t, err)

			var ran atomic.Bool
			err = p.Submit(context.Background(), func(_ context.Context) {
				ran.Store(true)
			})
			assert.ErrorIs(t, err, ErrPoolClosed)
			assert.False(t, ran.Load())
		})
	})

	t.Run("will not block", func(t *testing.T) {
		t.Run("if every worker is busy", func(t *testing.T) {
			p, err := New(1)
			require.Nil(t, err)

			release := make(chan struct{})
			for i := 0; i < 10; i++ {
				err := p.Submit(context.Background(), func(_ context.Context) {
					<-release
				})
				require.Nil(t, err)
			}

			assert.GreaterOrEqual(t, p.Pending(), 9)

			close(release)
			err = p.Shutdown(context.Background())
			require.Nil(t, err)
		})
	})

	t.Run("will keep the worker alive", func(t *testing.T) {
		t.Run("if a job panics", func(t *testing.T) {
			var buf syncBuffer
			p, err := New(1, LogHandler(slog.NewJSONHandler(&buf, nil)))
			require.Nil(t, err)

			err = p.Submit(context.Background(), func(_ context.Context) {
				panic("boom")
			})
			require.Nil(t, err)

			var ran atomic.Bool
			err = p.Submit(context.Background(), func(_ context.Context) {
				ran.Store(true)
			})
			require.Nil(t, err)

			err = p.Shutdown(context.Background())
			require.Nil(t, err)

			assert.True(t, ran.Load())
			assert.Contains(t, buf.String(), "job panicked")
		})
	})
}

func TestPool_Shutdown(t *testing.T) {
	t.Run("will wait for in-flight jobs", func(t *testing.T) {
		p, err := New(2)
		require.Nil(t, err)

		started := make(chan struct{})
		var finished atomic.Bool
		err = p.Submit(context.Background(), func(_ context.Context) {
			close(started)
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
		})
		require.Nil(t, err)
		<-started

		err = p.Shutdown(context.Background())
		require.Nil(t, err)
		assert.True(t, finished.Load())
	})

	t.Run("will return the context error", func(t *testing.T) {
		t.Run("if the context is done before the workers exit", func(t *testing.T) {
			p, err := New(1)
			require.Nil(t, err)

			release := make(chan struct{})
			err = p.Submit(context.Background(), func(_ context.Context) {
				<-release
			})
			require.Nil(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			err = p.Shutdown(ctx)
			assert.ErrorIs(t, err, context.DeadlineExceeded)

			close(release)
			err = p.Shutdown(context.Background())
			assert.Nil(t, err)
		})
	})

	t.Run("will be safe to call concurrently", func(t *testing.T) {
		p, err := New(8)
		require.Nil(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Nil(t, p.Shutdown(context.Background()))
			}()
		}
		wg.Wait()
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
