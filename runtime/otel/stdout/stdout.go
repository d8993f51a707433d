// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package stdout

import (
	"context"
	"io"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
)

// BuildSpanExporter writes spans to the built writer as JSON.
func BuildSpanExporter[W io.Writer](writerB tinyserve.Builder[W], prettyPrint config.Reader[bool]) tinyserve.Builder[*stdouttrace.Exporter] {
	return tinyserve.BuilderFunc[*stdouttrace.Exporter](func(ctx context.Context) (*stdouttrace.Exporter, error) {
		opts := []stdouttrace.Option{
			stdouttrace.WithWriter(tinyserve.MustBuild(ctx, writerB)),
		}
		if config.MustOr(ctx, false, prettyPrint) {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		return stdouttrace.New(opts...)
	})
}

// BuildMetricExporter writes metrics to the built writer as JSON.
func BuildMetricExporter[W io.Writer](writerB tinyserve.Builder[W], prettyPrint config.Reader[bool]) tinyserve.Builder[metric.Exporter] {
	return tinyserve.BuilderFunc[metric.Exporter](func(ctx context.Context) (metric.Exporter, error) {
		opts := []stdoutmetric.Option{
			stdoutmetric.WithWriter(tinyserve.MustBuild(ctx, writerB)),
		}
		if config.MustOr(ctx, false, prettyPrint) {
			opts = append(opts, stdoutmetric.WithPrettyPrint())
		}
		return stdoutmetric.New(opts...)
	})
}

// BuildLogExporter writes log records to the built writer as JSON.
func BuildLogExporter[W io.Writer](writerB tinyserve.Builder[W], prettyPrint config.Reader[bool]) tinyserve.Builder[*stdoutlog.Exporter] {
	return tinyserve.BuilderFunc[*stdoutlog.Exporter](func(ctx context.Context) (*stdoutlog.Exporter, error) {
		opts := []stdoutlog.Option{
			stdoutlog.WithWriter(tinyserve.MustBuild(ctx, writerB)),
		}
		if config.MustOr(ctx, false, prettyPrint) {
			opts = append(opts, stdoutlog.WithPrettyPrint())
		}
		return stdoutlog.New(opts...)
	})
}
