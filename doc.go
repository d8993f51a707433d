// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tinyserve provides the composition primitives used to assemble and
// run the tinyserve static content responder.
//
// Every component of the server (listener, worker pool, connection handler,
// telemetry providers) is described by a Builder[T]. Builders are composed
// with Map and Bind and the final Runtime is executed by a Runner:
//
//	runner := tinyserve.NotifyOnSignal(
//	    tinyserve.RecoverPanics(
//	        tinyserve.DefaultRunner[tcp.Runtime](),
//	    ),
//	    os.Interrupt,
//	    syscall.SIGTERM,
//	)
//	err := runner.Run(ctx, runtimeBuilder)
//
// Builders are allowed to panic through MustBuild and config.Must. Wrapping the
// runner with RecoverPanics turns such panics back into errors so that
// configuration problems surface before any connection is accepted.
package tinyserve
