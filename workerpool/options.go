// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workerpool

import (
	"log/slog"

	"github.com/z5labs/tinyserve/internal/otelslog"

	"go.opentelemetry.io/otel/metric"
)

type options struct {
	logHandler    slog.Handler
	meterProvider metric.MeterProvider
}

// Option configures a [Pool].
type Option func(*options)

// LogHandler sets the handler used for worker lifecycle logs.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = otelslog.NewHandler(h)
	}
}

// MeterProvider sets the provider for the jobs counter and the queue
// depth gauge. The global provider is used by default.
func MeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
