// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp provides builders for OTLP exporters sending traces, metrics
// and logs to a collector over a shared gRPC connection.
package otlp
