// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package workerpool implements a fixed size pool of workers fed by an
// unbounded dispatch queue.
//
// Every value submitted to the pool is delivered to exactly one worker.
// Shutting the pool down closes the queue: workers first drain the jobs
// which were submitted before the shutdown and then exit. A job which
// already started always runs to completion.
package workerpool
