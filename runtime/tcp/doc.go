// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tcp provides a tinyserve.Runtime which accepts TCP connections
// and hands each one to a worker pool.
//
// # Basic Usage
//
//	listenerBuilder := tcp.BuildListener(config.ReaderOf("127.0.0.1:8000"))
//
//	poolBuilder := tinyserve.BuilderFunc[*workerpool.Pool](func(ctx context.Context) (*workerpool.Pool, error) {
//	    return workerpool.New(8)
//	})
//
//	handlerBuilder := tinyserve.BuilderFunc[tcp.Handler](func(ctx context.Context) (tcp.Handler, error) {
//	    return static.NewHandler(static.NewResolver("/srv/www"))
//	})
//
//	runtimeBuilder := tcp.Build(
//	    listenerBuilder,
//	    poolBuilder,
//	    handlerBuilder,
//	    tcp.ShutdownTimeout(config.ReaderOf(30*time.Second)),
//	)
//
//	err := tinyserve.DefaultRunner[tcp.Runtime]().Run(ctx, runtimeBuilder)
//
// # Graceful Shutdown
//
// Once the context given to Run is cancelled the listener is closed, no
// further connections are accepted and the pool is shut down. Connections
// which were already accepted are still served before Run returns.
package tcp
