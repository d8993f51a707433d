// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"
	"github.com/z5labs/tinyserve/internal/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// shutdownTimeout bounds provider shutdown once the wrapped runtime returned.
const shutdownTimeout = 10 * time.Second

// BuildResource describes the running service.
func BuildResource(serviceName, serviceVersion config.Reader[string]) tinyserve.Builder[*resource.Resource] {
	return tinyserve.MemoizeBuilder(tinyserve.BuilderFunc[*resource.Resource](func(ctx context.Context) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithHost(),
			resource.WithProcessPID(),
			resource.WithAttributes(
				semconv.ServiceName(config.Must(ctx, serviceName)),
				semconv.ServiceVersion(config.MustOr(ctx, "dev", serviceVersion)),
			),
		)
	}))
}

// BuildTextMapPropagator returns the W3C trace context and baggage propagators.
func BuildTextMapPropagator() tinyserve.Builder[propagation.TextMapPropagator] {
	return tinyserve.BuilderFunc[propagation.TextMapPropagator](func(_ context.Context) (propagation.TextMapPropagator, error) {
		return propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		), nil
	})
}

// BuildLogErrorHandler reports internal OpenTelemetry errors to logger.
func BuildLogErrorHandler(logger *slog.Logger) tinyserve.Builder[otel.ErrorHandler] {
	return tinyserve.BuilderFunc[otel.ErrorHandler](func(_ context.Context) (otel.ErrorHandler, error) {
		return otel.ErrorHandlerFunc(func(err error) {
			logger.Warn("opentelemetry reported an error", slogfield.Error(err))
		}), nil
	})
}

func BuildTraceIDRatioBasedSampler(ratio config.Reader[float64]) tinyserve.Builder[sdktrace.Sampler] {
	return tinyserve.BuilderFunc[sdktrace.Sampler](func(ctx context.Context) (sdktrace.Sampler, error) {
		sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.Must(ctx, ratio)))

		return sampler, nil
	})
}

func BuildBatchSpanProcessor[E sdktrace.SpanExporter](exporterBuilder tinyserve.Builder[E]) tinyserve.Builder[sdktrace.SpanProcessor] {
	return tinyserve.BuilderFunc[sdktrace.SpanProcessor](func(ctx context.Context) (sdktrace.SpanProcessor, error) {
		bsp := sdktrace.NewBatchSpanProcessor(
			tinyserve.MustBuild(ctx, exporterBuilder),
		)

		return bsp, nil
	})
}

func BuildTracerProvider[S sdktrace.Sampler, P sdktrace.SpanProcessor](
	resourceBuilder tinyserve.Builder[*resource.Resource],
	samplerBuilder tinyserve.Builder[S],
	spanProcessorBuilder tinyserve.Builder[P],
) tinyserve.Builder[*sdktrace.TracerProvider] {
	return tinyserve.BuilderFunc[*sdktrace.TracerProvider](func(ctx context.Context) (*sdktrace.TracerProvider, error) {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(tinyserve.MustBuild(ctx, resourceBuilder)),
			sdktrace.WithSampler(tinyserve.MustBuild(ctx, samplerBuilder)),
			sdktrace.WithSpanProcessor(tinyserve.MustBuild(ctx, spanProcessorBuilder)),
		)

		return tp, nil
	})
}

// BuildPeriodicReader exports metrics every interval, 60 seconds by default.
func BuildPeriodicReader[E sdkmetric.Exporter](
	exporterBuilder tinyserve.Builder[E],
	interval config.Reader[time.Duration],
) tinyserve.Builder[*sdkmetric.PeriodicReader] {
	return tinyserve.BuilderFunc[*sdkmetric.PeriodicReader](func(ctx context.Context) (*sdkmetric.PeriodicReader, error) {
		pr := sdkmetric.NewPeriodicReader(
			tinyserve.MustBuild(ctx, exporterBuilder),
			sdkmetric.WithInterval(config.MustOr(ctx, 60*time.Second, interval)),
		)

		return pr, nil
	})
}

func BuildMeterProvider[R sdkmetric.Reader](
	resourceBuilder tinyserve.Builder[*resource.Resource],
	readerBuilder tinyserve.Builder[R],
) tinyserve.Builder[*sdkmetric.MeterProvider] {
	return tinyserve.BuilderFunc[*sdkmetric.MeterProvider](func(ctx context.Context) (*sdkmetric.MeterProvider, error) {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(tinyserve.MustBuild(ctx, resourceBuilder)),
			sdkmetric.WithReader(tinyserve.MustBuild(ctx, readerBuilder)),
		)

		return mp, nil
	})
}

func BuildBatchLogProcessor[E sdklog.Exporter](exporterBuilder tinyserve.Builder[E]) tinyserve.Builder[*sdklog.BatchProcessor] {
	return tinyserve.BuilderFunc[*sdklog.BatchProcessor](func(ctx context.Context) (*sdklog.BatchProcessor, error) {
		bp := sdklog.NewBatchProcessor(
			tinyserve.MustBuild(ctx, exporterBuilder),
		)

		return bp, nil
	})
}

func BuildLoggerProvider[P sdklog.Processor](
	resourceBuilder tinyserve.Builder[*resource.Resource],
	processorBuilder tinyserve.Builder[P],
) tinyserve.Builder[*sdklog.LoggerProvider] {
	return tinyserve.BuilderFunc[*sdklog.LoggerProvider](func(ctx context.Context) (*sdklog.LoggerProvider, error) {
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(tinyserve.MustBuild(ctx, resourceBuilder)),
			sdklog.WithProcessor(tinyserve.MustBuild(ctx, processorBuilder)),
		)

		return lp, nil
	})
}

// Runtime registers its providers globally for the lifetime of the
// wrapped runtime and shuts them down afterwards.
type Runtime[
	E otel.ErrorHandler,
	T trace.TracerProvider,
	M metric.MeterProvider,
	L log.LoggerProvider,
	R tinyserve.Runtime,
] struct {
	errorHandler      E
	textMapPropagator propagation.TextMapPropagator
	tracerProvider    T
	meterProvider     M
	loggerProvider    L
	runtime           R
}

func BuildRuntime[
	E otel.ErrorHandler,
	T trace.TracerProvider,
	M metric.MeterProvider,
	L log.LoggerProvider,
	R tinyserve.Runtime,
](
	errorHandlerBuilder tinyserve.Builder[E],
	textMapPropagatorBuilder tinyserve.Builder[propagation.TextMapPropagator],
	tracerProviderBuilder tinyserve.Builder[T],
	meterProviderBuilder tinyserve.Builder[M],
	loggerProviderBuilder tinyserve.Builder[L],
	runtimeBuilder tinyserve.Builder[R],
) tinyserve.Builder[Runtime[E, T, M, L, R]] {
	return tinyserve.BuilderFunc[Runtime[E, T, M, L, R]](func(ctx context.Context) (Runtime[E, T, M, L, R], error) {
		rt := Runtime[E, T, M, L, R]{
			errorHandler:      tinyserve.MustBuild(ctx, errorHandlerBuilder),
			textMapPropagator: tinyserve.MustBuild(ctx, textMapPropagatorBuilder),
			tracerProvider:    tinyserve.MustBuild(ctx, tracerProviderBuilder),
			meterProvider:     tinyserve.MustBuild(ctx, meterProviderBuilder),
			loggerProvider:    tinyserve.MustBuild(ctx, loggerProviderBuilder),
			runtime:           tinyserve.MustBuild(ctx, runtimeBuilder),
		}

		return rt, nil
	})
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func (r Runtime[E, T, M, L, R]) Run(ctx context.Context) (err error) {
	otel.SetErrorHandler(r.errorHandler)
	otel.SetTextMapPropagator(r.textMapPropagator)
	otel.SetTracerProvider(r.tracerProvider)
	otel.SetMeterProvider(r.meterProvider)
	global.SetLoggerProvider(r.loggerProvider)

	defer func() {
		// ctx is usually already cancelled here but the providers still
		// need to flush.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		providers := []any{r.tracerProvider, r.meterProvider, r.loggerProvider}
		shutdownErrs := make([]error, len(providers))
		for i, p := range providers {
			sd, ok := p.(shutdowner)
			if !ok {
				continue
			}
			shutdownErrs[i] = sd.Shutdown(shutdownCtx)
		}
		err = errors.Join(err, errors.Join(shutdownErrs...))
	}()

	return r.runtime.Run(ctx)
}
