// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop provides exporters which discard all telemetry. They back
// the providers when no exporter is configured.
package noop
