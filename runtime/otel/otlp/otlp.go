// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// BuildGrpcConn creates a single plaintext gRPC client for the collector at
// endpoint. The connection is established lazily and shared by every
// exporter built from the returned builder.
func BuildGrpcConn(endpoint config.Reader[string]) tinyserve.Builder[*grpc.ClientConn] {
	return tinyserve.MemoizeBuilder(tinyserve.BuilderFunc[*grpc.ClientConn](func(ctx context.Context) (*grpc.ClientConn, error) {
		return grpc.NewClient(
			config.MustOr(ctx, "localhost:4317", endpoint),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}))
}

// BuildGrpcSpanExporter sends spans over the built connection.
func BuildGrpcSpanExporter(grpcConnB tinyserve.Builder[*grpc.ClientConn]) tinyserve.Builder[*otlptrace.Exporter] {
	return tinyserve.BuilderFunc[*otlptrace.Exporter](func(ctx context.Context) (*otlptrace.Exporter, error) {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithGRPCConn(tinyserve.MustBuild(ctx, grpcConnB)),
		)
	})
}

// BuildGrpcMetricExporter sends metrics over the built connection.
func BuildGrpcMetricExporter(grpcConnB tinyserve.Builder[*grpc.ClientConn]) tinyserve.Builder[*otlpmetricgrpc.Exporter] {
	return tinyserve.BuilderFunc[*otlpmetricgrpc.Exporter](func(ctx context.Context) (*otlpmetricgrpc.Exporter, error) {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithGRPCConn(tinyserve.MustBuild(ctx, grpcConnB)),
		)
	})
}

// BuildGrpcLogExporter sends log records over the built connection.
func BuildGrpcLogExporter(grpcConnB tinyserve.Builder[*grpc.ClientConn]) tinyserve.Builder[*otlploggrpc.Exporter] {
	return tinyserve.BuilderFunc[*otlploggrpc.Exporter](func(ctx context.Context) (*otlploggrpc.Exporter, error) {
		return otlploggrpc.New(
			ctx,
			otlploggrpc.WithGRPCConn(tinyserve.MustBuild(ctx, grpcConnB)),
		)
	})
}
