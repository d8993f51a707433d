// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command tinyserve serves static files from a directory over plain TCP,
// answering exactly one request per connection.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/z5labs/tinyserve"
	"github.com/z5labs/tinyserve/config"
	"github.com/z5labs/tinyserve/internal/slogfield"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// version is set at link time.
var version = "dev"

func main() {
	cmd := newCommand(os.Stdout, os.Stderr)
	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tinyserve",
		Short:         "Serve static files from a directory",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.Flags(), stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	registerFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, fs *pflag.FlagSet, stdout, stderr io.Writer) error {
	s := newSettings(fs)

	verbose, err := config.Read(ctx, s.verbose)
	if err != nil {
		return logStartupError(stderr, err)
	}
	exporter, err := config.Read(ctx, s.exporter)
	if err != nil {
		return logStartupError(stderr, err)
	}

	logger := slog.New(newLogHandler(stderr, verbose, exporter))
	a := newApp(s, logger, stdout)

	runner := tinyserve.NotifyOnSignal(
		tinyserve.RecoverPanics(
			tinyserve.DefaultRunner[serverRuntime](),
		),
		os.Interrupt,
		syscall.SIGTERM,
	)
	err = runner.Run(ctx, a.buildRuntime())
	if err != nil {
		logger.ErrorContext(ctx, "tinyserve stopped with an error", slogfield.Error(err))
		return err
	}

	logger.InfoContext(ctx, "tinyserve stopped")
	return nil
}

func logStartupError(w io.Writer, err error) error {
	slog.New(slog.NewJSONHandler(w, nil)).Error("failed to read configuration", slogfield.Error(err))
	return err
}
