// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/z5labs/tinyserve/config"

	"github.com/spf13/pflag"
)

const envPrefix = "TINYSERVE_"

// Exporter names accepted by --otel-exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// UnknownExporterError is returned for an --otel-exporter value which is
// not one of none, stdout or otlp.
type UnknownExporterError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown opentelemetry exporter: %s", e.Name)
}

// InvalidPortError is returned for ports outside of [0, 65535].
type InvalidPortError struct {
	Port int
}

// Error implements the [builtin.error] interface.
func (e InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port: %d", e.Port)
}

type settings struct {
	webroot      config.Reader[string]
	address      config.Reader[string]
	port         config.Reader[int]
	workers      config.Reader[int]
	verbose      config.Reader[bool]
	readTimeout  config.Reader[time.Duration]
	writeTimeout config.Reader[time.Duration]
	exporter     config.Reader[string]
	otlpEndpoint config.Reader[string]
}

func registerFlags(fs *pflag.FlagSet) {
	fs.StringP("webroot", "r", "", "directory to serve files from (default <user config dir>/tinyserve)")
	fs.StringP("address", "a", "127.0.0.1", "address to bind to")
	fs.IntP("port", "p", 8000, "port to listen on")
	fs.IntP("workers", "n", 8, "number of workers serving connections")
	fs.BoolP("verbose", "v", false, "log every request and worker event")
	fs.Duration("read-timeout", 5*time.Second, "time allowed for reading a request line")
	fs.Duration("write-timeout", 10*time.Second, "time allowed for writing a response")
	fs.String("otel-exporter", ExporterNone, "telemetry exporter: none, stdout or otlp")
	fs.String("otlp-endpoint", "localhost:4317", "OTLP collector gRPC endpoint")
	fs.StringP("config", "c", "", "YAML config file")
}

// newSettings resolves every setting from, in order, an explicitly set flag,
// an environment variable and the YAML config file, before falling back to
// its default.
func newSettings(fs *pflag.FlagSet) settings {
	doc := config.YamlFile(config.Or(
		flagValue(fs, "config", fs.GetString),
		config.Env(envPrefix+"CONFIG"),
	))

	return settings{
		webroot: config.Or(
			flagValue(fs, "webroot", fs.GetString),
			config.Env(envPrefix+"WEBROOT"),
			config.Lookup[string](doc, "webroot"),
			defaultWebroot(),
		),
		address: config.Default("127.0.0.1", config.Or(
			flagValue(fs, "address", fs.GetString),
			config.Env(envPrefix+"ADDRESS"),
			config.Lookup[string](doc, "address"),
		)),
		port: config.Default(8000, config.Or(
			flagValue(fs, "port", fs.GetInt),
			config.IntFromString(config.Env(envPrefix+"PORT")),
			config.Lookup[int](doc, "port"),
		)),
		workers: config.Default(8, config.Or(
			flagValue(fs, "workers", fs.GetInt),
			config.IntFromString(config.Env(envPrefix+"WORKERS")),
			config.Lookup[int](doc, "workers"),
		)),
		verbose: config.Default(false, config.Or(
			flagValue(fs, "verbose", fs.GetBool),
			config.BoolFromString(config.Env(envPrefix+"VERBOSE")),
			config.Lookup[bool](doc, "verbose"),
		)),
		readTimeout: config.Default(5*time.Second, config.Or(
			flagValue(fs, "read-timeout", fs.GetDuration),
			config.DurationFromString(config.Env(envPrefix+"READ_TIMEOUT")),
			config.Lookup[time.Duration](doc, "timeouts.read"),
		)),
		writeTimeout: config.Default(10*time.Second, config.Or(
			flagValue(fs, "write-timeout", fs.GetDuration),
			config.DurationFromString(config.Env(envPrefix+"WRITE_TIMEOUT")),
			config.Lookup[time.Duration](doc, "timeouts.write"),
		)),
		exporter: config.Map(
			config.Default(ExporterNone, config.Or(
				flagValue(fs, "otel-exporter", fs.GetString),
				config.Env(envPrefix+"OTEL_EXPORTER"),
				config.Lookup[string](doc, "otel.exporter"),
			)),
			validateExporter,
		),
		otlpEndpoint: config.Default("localhost:4317", config.Or(
			flagValue(fs, "otlp-endpoint", fs.GetString),
			config.Env(envPrefix+"OTLP_ENDPOINT"),
			config.Lookup[string](doc, "otel.endpoint"),
		)),
	}
}

// listenAddr joins address and port.
func (s settings) listenAddr() config.Reader[string] {
	return config.Bind(s.address, func(_ context.Context, host string) config.Reader[string] {
		return config.Map(s.port, func(_ context.Context, port int) (string, error) {
			if port < 0 || port > 65535 {
				return "", InvalidPortError{Port: port}
			}
			return net.JoinHostPort(host, strconv.Itoa(port)), nil
		})
	})
}

// flagValue is only set when the flag was given on the command line.
func flagValue[T any](fs *pflag.FlagSet, name string, get func(string) (T, error)) config.Reader[T] {
	return config.ReaderFunc[T](func(_ context.Context) (config.Value[T], error) {
		if !fs.Changed(name) {
			return config.Value[T]{}, nil
		}
		v, err := get(name)
		if err != nil {
			return config.Value[T]{}, err
		}
		return config.ValueOf(v), nil
	})
}

// defaultWebroot is computed once per process.
func defaultWebroot() config.Reader[string] {
	return config.Memoize(config.ReaderFunc[string](func(_ context.Context) (config.Value[string], error) {
		dir, err := os.UserConfigDir()
		if err != nil {
			return config.Value[string]{}, err
		}
		return config.ValueOf(filepath.Join(dir, "tinyserve")), nil
	}))
}

func validateExporter(_ context.Context, name string) (string, error) {
	switch name {
	case ExporterNone, ExporterStdout, ExporterOTLP:
		return name, nil
	default:
		return "", UnknownExporterError{Name: name}
	}
}
