// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel wraps a tinyserve.Runtime with OpenTelemetry tracing,
// metrics and logging providers.
//
// # Basic Usage
//
//	resourceB := otel.BuildResource(config.ReaderOf("tinyserve"), config.ReaderOf(version))
//
//	tracerProviderB := otel.BuildTracerProvider(
//	    resourceB,
//	    otel.BuildTraceIDRatioBasedSampler(config.ReaderOf(1.0)),
//	    otel.BuildBatchSpanProcessor(stdout.BuildSpanExporter(tinyserve.BuilderOf(os.Stdout))),
//	)
//
//	meterProviderB := otel.BuildMeterProvider(
//	    resourceB,
//	    otel.BuildPeriodicReader(stdout.BuildMetricExporter(tinyserve.BuilderOf(os.Stdout)), nil),
//	)
//
//	loggerProviderB := otel.BuildLoggerProvider(
//	    resourceB,
//	    otel.BuildBatchLogProcessor(stdout.BuildLogExporter(tinyserve.BuilderOf(os.Stdout))),
//	)
//
//	runtimeB := otel.BuildRuntime(
//	    otel.BuildLogErrorHandler(logger),
//	    otel.BuildTextMapPropagator(),
//	    tracerProviderB,
//	    meterProviderB,
//	    loggerProviderB,
//	    tcpRuntimeB,
//	)
//
// Instruments and tracers obtained from the global providers before Run
// is called forward to the providers registered by Run.
//
// # Exporters
//
//   - otel/otlp: OTLP exporters over gRPC
//   - otel/stdout: exporters writing to an io.Writer
//   - otel/noop: exporters discarding everything
//
// Provider shutdown errors are joined with the error of the wrapped runtime.
package otel
