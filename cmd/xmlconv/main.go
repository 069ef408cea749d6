package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bjaus/xmlconv"
	"github.com/bjaus/xmlconv/internal/cli"
	"github.com/bjaus/xmlconv/internal/ctxlog"
	"github.com/bjaus/xmlconv/internal/mcpserver"
	"github.com/bjaus/xmlconv/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main is the entrypoint for the xmlconv application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		exitErr := cli.FromError(err)
		fmt.Fprintln(os.Stderr, exitErr.Message)
		os.Exit(exitErr.Code)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	inv, shouldExit, err := cli.Parse(args, stderr)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := ctxlog.New(inv.Config.LogLevel, inv.Config.LogFormat, stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	switch inv.Command {
	case cli.CommandServe:
		return server.New(inv.Config.Server, logger, inv.Config.Options()...).Run(ctx)
	case cli.CommandMCP:
		return mcpserver.New(version, logger, inv.Config.Options()...).Serve(ctx, stdin, stdout)
	default:
		return convert(ctx, inv, stdin, stdout)
	}
}

// convert writes nothing to stdout unless the whole conversion succeeds.
func convert(ctx context.Context, inv *cli.Invocation, stdin io.Reader, stdout io.Writer) error {
	r := stdin
	if inv.File != "" && inv.File != "-" {
		f, err := os.Open(inv.File)
		if err != nil {
			return &cli.ExitError{Code: cli.ExitUsage, Message: err.Error()}
		}
		defer f.Close()
		r = f
	}

	var buf bytes.Buffer
	if err := xmlconv.Convert(&buf, inv.Format, r, inv.Options...); err != nil {
		if errors.Is(err, xmlconv.ErrNoData) {
			ctxlog.FromContext(ctx).Info("No data to convert.", "file", inv.File)
		}
		return err
	}
	if _, err := buf.WriteTo(stdout); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
