// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/z5labs/tinyserve/internal/try"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// FileNotFoundError occurs when a config file was explicitly
// requested but does not exist.
type FileNotFoundError struct {
	Path string
}

// Error implements the [builtin.error] interface.
func (e FileNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

// InvalidYamlError occurs if a config file contains invalid YAML.
type InvalidYamlError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml in %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

// YamlFile parses the YAML document at the path read from path. The document
// is only parsed once. An unset path results in an unset document while a set
// path pointing at a missing file is a [FileNotFoundError].
func YamlFile(path Reader[string]) Reader[map[string]any] {
	return Memoize(Bind(path, func(ctx context.Context, p string) Reader[map[string]any] {
		return ReaderFunc[map[string]any](func(ctx context.Context) (Value[map[string]any], error) {
			val, err := ReadFile(p).Read(ctx)
			if err != nil {
				return Value[map[string]any]{}, err
			}
			f, ok := val.Value()
			if !ok {
				return Value[map[string]any]{}, FileNotFoundError{Path: p}
			}

			doc, err := parseYaml(f)
			if err != nil {
				return Value[map[string]any]{}, InvalidYamlError{Path: p, Cause: err}
			}
			return ValueOf(doc), nil
		})
	}))
}

func parseYaml(f *os.File) (_ map[string]any, err error) {
	defer try.Close(&err, f)

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]any)
	err = yaml.Unmarshal(b, &doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeError occurs when a config value cannot be decoded into the requested type.
type DecodeError struct {
	Key   string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e DecodeError) Error() string {
	return fmt.Sprintf("failed to decode config key %s: %s", e.Key, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// Lookup reads the value at the dotted key (e.g. "timeouts.read") of doc and
// decodes it into T. Missing keys are unset. Strings are weakly converted so
// `port: "8000"` and `port: 8000` both decode into an int.
func Lookup[T any](doc Reader[map[string]any], key string) Reader[T] {
	return Bind(doc, func(ctx context.Context, m map[string]any) Reader[T] {
		return ReaderFunc[T](func(_ context.Context) (Value[T], error) {
			raw, ok := walk(m, strings.Split(key, "."))
			if !ok {
				return Value[T]{}, nil
			}

			var v T
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				TagName:          "config",
				WeaklyTypedInput: true,
				Result:           &v,
				DecodeHook: mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					mapstructure.TextUnmarshallerHookFunc(),
				),
			})
			if err != nil {
				return Value[T]{}, err
			}
			err = dec.Decode(raw)
			if err != nil {
				return Value[T]{}, DecodeError{Key: key, Cause: err}
			}
			return ValueOf(v), nil
		})
	})
}

func walk(m map[string]any, chain []string) (any, bool) {
	v, ok := m[chain[0]]
	if !ok || v == nil {
		return nil, false
	}
	if len(chain) == 1 {
		return v, true
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return walk(sub, chain[1:])
}
