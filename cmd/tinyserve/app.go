// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"
	"github.com/z5labs/tinyserve/internal/otelslog"
	"github.com/z5labs/tinyserve/internal/slogfield"
	"github.com/z5labs/tinyserve/runtime/otel"
	"github.com/z5labs/tinyserve/runtime/otel/noop"
	"github.com/z5labs/tinyserve/runtime/otel/otlp"
	"github.com/z5labs/tinyserve/runtime/otel/stdout"
	"github.com/z5labs/tinyserve/runtime/tcp"
	"github.com/z5labs/tinyserve/static"
	"github.com/z5labs/tinyserve/workerpool"

	slogmulti "github.com/samber/slog-multi"
	bridge "go.opentelemetry.io/contrib/bridges/otelslog"
	gootel "go.opentelemetry.io/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

const serviceName = "tinyserve"

type serverRuntime = otel.Runtime[
	gootel.ErrorHandler,
	*sdktrace.TracerProvider,
	*sdkmetric.MeterProvider,
	*sdklog.LoggerProvider,
	tcp.Runtime,
]

// app is the fully resolved process wiring.
type app struct {
	settings  settings
	logger    *slog.Logger
	telemetry io.Writer
	grpcConn  tinyserve.Builder[*grpc.ClientConn]
}

func newApp(s settings, logger *slog.Logger, telemetry io.Writer) app {
	return app{
		settings:  s,
		logger:    logger,
		telemetry: telemetry,
		grpcConn:  otlp.BuildGrpcConn(s.otlpEndpoint),
	}
}

// newLogHandler writes JSON to w and, when an exporter is configured, also
// hands every record to the OpenTelemetry log bridge. Both outputs share
// the level picked by verbose.
func newLogHandler(w io.Writer, verbose bool, exporter string, opts ...bridge.Option) slog.Handler {
	lvl := slog.LevelInfo
	if verbose {
		lvl = slog.LevelDebug
	}

	var h slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: verbose,
		Level:     lvl,
	})
	if exporter != ExporterNone {
		h = slogmulti.Fanout(
			h,
			slogmulti.Pipe(otelslog.MinLevel(lvl)).Handler(bridge.NewHandler(serviceName, opts...)),
		)
	}
	return otelslog.NewHandler(h)
}

func (a app) buildPool() tinyserve.Builder[*workerpool.Pool] {
	return tinyserve.BuilderFunc[*workerpool.Pool](func(ctx context.Context) (*workerpool.Pool, error) {
		return workerpool.New(
			config.Must(ctx, a.settings.workers),
			workerpool.LogHandler(a.logger.Handler()),
		)
	})
}

func (a app) buildHandler() tinyserve.Builder[*static.Handler] {
	return tinyserve.BuilderFunc[*static.Handler](func(ctx context.Context) (*static.Handler, error) {
		root := config.Must(ctx, a.settings.webroot)
		err := static.ValidateRoot(root)
		if err != nil {
			return nil, err
		}

		a.logger.InfoContext(ctx, "serving files", slogfield.String("webroot", root))

		return static.NewHandler(
			static.NewResolver(root),
			static.ReadTimeout(config.Must(ctx, a.settings.readTimeout)),
			static.WriteTimeout(config.Must(ctx, a.settings.writeTimeout)),
			static.LogHandler(a.logger.Handler()),
		)
	})
}

func (a app) buildTCPRuntime() tinyserve.Builder[tcp.Runtime] {
	return tcp.Build(
		tcp.BuildListener(a.settings.listenAddr()),
		a.buildPool(),
		a.buildHandler(),
		tcp.LogHandler(a.logger.Handler()),
	)
}

// buildRuntime wraps the tcp runtime with the telemetry providers for the
// configured exporter.
func (a app) buildRuntime() tinyserve.Builder[serverRuntime] {
	resourceB := otel.BuildResource(config.ReaderOf(serviceName), config.ReaderOf(version))

	return otel.BuildRuntime(
		otel.BuildLogErrorHandler(a.logger),
		otel.BuildTextMapPropagator(),
		otel.BuildTracerProvider(
			resourceB,
			otel.BuildTraceIDRatioBasedSampler(config.ReaderOf(1.0)),
			a.buildSpanProcessor(),
		),
		otel.BuildMeterProvider(resourceB, a.buildMetricReader()),
		otel.BuildLoggerProvider(resourceB, a.buildLogProcessor()),
		a.buildTCPRuntime(),
	)
}

func (a app) exporter(ctx context.Context) string {
	return config.Must(ctx, a.settings.exporter)
}

func (a app) buildSpanProcessor() tinyserve.Builder[sdktrace.SpanProcessor] {
	return tinyserve.BuilderFunc[sdktrace.SpanProcessor](func(ctx context.Context) (sdktrace.SpanProcessor, error) {
		switch a.exporter(ctx) {
		case ExporterStdout:
			return otel.BuildBatchSpanProcessor(stdout.BuildSpanExporter(tinyserve.BuilderOf(a.telemetry), nil)).Build(ctx)
		case ExporterOTLP:
			return otel.BuildBatchSpanProcessor(otlp.BuildGrpcSpanExporter(a.grpcConn)).Build(ctx)
		default:
			return otel.BuildBatchSpanProcessor(noop.BuildSpanExporter()).Build(ctx)
		}
	})
}

func (a app) buildMetricReader() tinyserve.Builder[*sdkmetric.PeriodicReader] {
	return tinyserve.BuilderFunc[*sdkmetric.PeriodicReader](func(ctx context.Context) (*sdkmetric.PeriodicReader, error) {
		switch a.exporter(ctx) {
		case ExporterStdout:
			return otel.BuildPeriodicReader(stdout.BuildMetricExporter(tinyserve.BuilderOf(a.telemetry), nil), nil).Build(ctx)
		case ExporterOTLP:
			return otel.BuildPeriodicReader(otlp.BuildGrpcMetricExporter(a.grpcConn), nil).Build(ctx)
		default:
			return otel.BuildPeriodicReader(noop.BuildMetricExporter(), nil).Build(ctx)
		}
	})
}

func (a app) buildLogProcessor() tinyserve.Builder[*sdklog.BatchProcessor] {
	return tinyserve.BuilderFunc[*sdklog.BatchProcessor](func(ctx context.Context) (*sdklog.BatchProcessor, error) {
		switch a.exporter(ctx) {
		case ExporterStdout:
			return otel.BuildBatchLogProcessor(stdout.BuildLogExporter(tinyserve.BuilderOf(a.telemetry), nil)).Build(ctx)
		case ExporterOTLP:
			return otel.BuildBatchLogProcessor(otlp.BuildGrpcLogExporter(a.grpcConn)).Build(ctx)
		default:
			return otel.BuildBatchLogProcessor(noop.BuildLogExporter()).Build(ctx)
		}
	})
}
