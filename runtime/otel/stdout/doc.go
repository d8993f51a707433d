// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stdout provides builders for OpenTelemetry exporters that write
// telemetry to an io.Writer. They are selected with --otel-exporter=stdout.
package stdout
