// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/z5labs/tinyserve/static"
	"github.com/z5labs/tinyserve/workerpool"

	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	t.Run("prints the version", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := newCommand(&stdout, &stderr)
		cmd.SetArgs([]string{"--version"})

		err := cmd.ExecuteContext(context.Background())
		require.NoError(t, err)
		require.Contains(t, stdout.String(), version)
	})

	t.Run("fails before listening", func(t *testing.T) {
		testCases := []struct {
			name  string
			args  func(t *testing.T) []string
			check func(t *testing.T, err error)
		}{
			{
				name: "if the webroot does not exist",
				args: func(t *testing.T) []string {
					return []string{"--webroot", filepath.Join(t.TempDir(), "missing"), "--port", "0"}
				},
				check: func(t *testing.T, err error) {
					var ierr static.InvalidRootError
					require.ErrorAs(t, err, &ierr)
				},
			},
			{
				name: "if the webroot has no 404.html",
				args: func(t *testing.T) []string {
					return []string{"--webroot", t.TempDir(), "--port", "0"}
				},
				check: func(t *testing.T, err error) {
					require.ErrorIs(t, err, os.ErrNotExist)
				},
			},
			{
				name: "if the pool size is zero",
				args: func(t *testing.T) []string {
					root := t.TempDir()
					require.NoError(t, os.WriteFile(filepath.Join(root, "404.html"), []byte("nf"), 0o644))
					return []string{"--webroot", root, "--workers", "0", "--port", "0"}
				},
				check: func(t *testing.T, err error) {
					var serr workerpool.InvalidSizeError
					require.ErrorAs(t, err, &serr)
					require.Equal(t, 0, serr.Size)
				},
			},
			{
				name: "if the exporter is unknown",
				args: func(t *testing.T) []string {
					return []string{"--otel-exporter", "zipkin"}
				},
				check: func(t *testing.T, err error) {
					var uerr UnknownExporterError
					require.ErrorAs(t, err, &uerr)
				},
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				var stdout, stderr bytes.Buffer
				cmd := newCommand(&stdout, &stderr)
				cmd.SetArgs(tc.args(t))

				err := cmd.ExecuteContext(context.Background())
				tc.check(t, err)
				require.NotEmpty(t, stderr.String())
			})
		}
	})
}

func TestApp_buildRuntime(t *testing.T) {
	t.Run("serves files until cancelled", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>hi</h1>"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "404.html"), []byte("not found"), 0o644))

		var logs bytes.Buffer
		fs := parseFlags(t, "--webroot", root, "--port", "0", "--workers", "2")
		logger := slog.New(newLogHandler(&logs, false, ExporterNone))
		a := newApp(newSettings(fs), logger, io.Discard)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt, err := a.buildTCPRuntime().Build(ctx)
		require.NoError(t, err)

		errCh := make(chan error, 1)
		go func() {
			errCh <- rt.Run(ctx)
		}()

		conn, err := net.Dial("tcp", rt.Addr().String())
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)

		b, err := io.ReadAll(conn)
		require.NoError(t, err)
		require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<h1>hi</h1>", string(b))

		cancel()
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("runtime did not stop")
		}
		require.Contains(t, logs.String(), `"msg":"listening"`)
	})
}
