// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package stdout

import (
	"bytes"
	"context"
	"testing"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestBuildSpanExporter(t *testing.T) {
	testCases := []struct {
		name        string
		prettyPrint config.Reader[bool]
	}{
		{name: "compact output by default", prettyPrint: nil},
		{name: "pretty printed output", prettyPrint: config.ReaderOf(true)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			exp, err := BuildSpanExporter(tinyserve.BuilderOf(&buf), tc.prettyPrint).Build(context.Background())
			require.NoError(t, err)

			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
			_, span := tp.Tracer("stdout").Start(context.Background(), "Handler.ServeConn")
			span.End()
			require.NoError(t, tp.Shutdown(context.Background()))

			require.Contains(t, buf.String(), "Handler.ServeConn")
		})
	}
}

func TestBuildMetricExporter(t *testing.T) {
	var buf bytes.Buffer
	exp, err := BuildMetricExporter(tinyserve.BuilderOf(&buf), nil).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exp)
	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestBuildLogExporter(t *testing.T) {
	var buf bytes.Buffer
	exp, err := BuildLogExporter(tinyserve.BuilderOf(&buf), config.ReaderOf(false)).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exp)
	require.NoError(t, exp.Shutdown(context.Background()))
}
