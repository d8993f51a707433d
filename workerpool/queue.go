// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workerpool

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed is returned when enqueueing onto a closed [Queue].
var ErrQueueClosed = errors.New("workerpool: queue is closed")

// Queue is an unbounded multi-producer multi-consumer FIFO queue.
//
// Producers never block on consumers. Consumers receive from [Queue.Out],
// which delivers every enqueued value to exactly one receiver and is closed
// once the queue has been closed and drained.
type Queue[T any] struct {
	mu      sync.RWMutex
	closed  bool
	in      chan T
	out     chan T
	pending atomic.Int64
}

// NewQueue returns an open [Queue].
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	go q.pump()
	return q
}

// Enqueue adds v to the back of the queue.
func (q *Queue[T]) Enqueue(v T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.pending.Add(1)
	q.in <- v
	return nil
}

// Out returns the consumer end of the queue.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Len returns the number of values waiting to be received.
func (q *Queue[T]) Len() int {
	return int(q.pending.Load())
}

// Close stops accepting new values. Values which were already enqueued
// are still delivered before [Queue.Out] is closed. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}

// pump moves values from in to out, buffering as many as needed.
func (q *Queue[T]) pump() {
	defer close(q.out)

	var (
		zero T
		buf  []T
	)
	in := q.in
	for in != nil || len(buf) > 0 {
		var (
			out  chan<- T
			next T
		)
		if len(buf) > 0 {
			out = q.out
			next = buf[0]
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, v)
		case out <- next:
			buf[0] = zero
			buf = buf[1:]
			q.pending.Add(-1)
		}
	}
}
