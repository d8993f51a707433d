// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides a functional approach to reading and composing configuration values.
//
// The package is built around the concept of a Reader[T], which represents a source of
// configuration values that may or may not be present. Readers can be composed using
// functional combinators to build complex configuration logic from simple building blocks.
//
// # Core Concepts
//
// Value[T] represents a configuration value that may or may not be set. This distinguishes
// between "not set" and "set to zero value", which is important for configuration with defaults.
//
// Reader[T] is an interface for reading configuration values. Readers are composable and
// can be chained together using combinators like Or, Map, Bind, and Default.
//
// # Basic Usage
//
// Read the worker count from an environment variable with a default:
//
//	workers, err := config.Read(ctx,
//	    config.Default(8, config.IntFromString(config.Env("TINYSERVE_WORKERS"))),
//	)
//
// Try multiple sources in order, e.g. a command line flag before an environment variable:
//
//	root := config.Or(
//	    flagReader,
//	    config.Env("TINYSERVE_WEBROOT"),
//	)
//
// # Files
//
// YamlFile parses a YAML document once and Lookup extracts typed values from it
// by dotted key:
//
//	doc := config.YamlFile(config.Env("TINYSERVE_CONFIG"))
//	readTimeout := config.Lookup[time.Duration](doc, "timeouts.read")
//
// # Error Handling
//
// Readers distinguish between three states:
//   - Value is set (returns Value with set=true)
//   - Value is not set (returns Value with set=false, no error)
//   - Error occurred (returns error)
//
// The Read function converts "not set" to ErrValueNotSet for convenience.
package config
