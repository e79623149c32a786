// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	unarchive "github.com/hashicorp/go-unarchive"
)

// CLI are the cli parameters for the unarchive binary
type CLI struct {
	Archive           string           `arg:"" name:"archive" help:"Path to archive." type:"existingfile"`
	Async             bool             `short:"a" help:"Run the extraction on a worker goroutine."`
	DenySymlinks      bool             `short:"D" help:"Deny symlink extraction."`
	Destination       string           `arg:"" name:"destination" default:"." help:"Output directory."`
	Format            string           `short:"f" optional:"" help:"Archive format, e.g. tar.gz or zip. Detected from the file name if empty."`
	MaxFiles          int64            `optional:"" default:"-1" help:"Maximum files that are extracted before stop. (disable check: -1)"`
	MaxExtractionSize int64            `optional:"" default:"-1" help:"Maximum extraction size that allowed is (in bytes). (disable check: -1)"`
	NoStripRoot       bool             `short:"N" help:"Keep a single enclosing top-level directory."`
	Overwrite         bool             `short:"O" default:"true" negatable:"" help:"Overwrite existing files."`
	Progress          bool             `short:"P" help:"Show a progress bar on stderr."`
	Telemetry         bool             `short:"T" optional:"" default:"false" help:"Print telemetry data to log after extraction."`
	URL               string           `short:"u" optional:"" name:"url" help:"URL the archive was downloaded from, used for format detection."`
	Verbose           bool             `short:"v" optional:"" help:"Verbose logging."`
	Version           kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`
}

// Run the entrypoint into unarchive as a cli tool
func Run(version, commit, date string) {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Description("A format-agnostic archive extraction utility"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, os.Stderr); err != nil {
		stop()
		kctx.FatalIfErrorf(err)
	}
}

// Execute runs the extraction described by the parsed flags. Logs and the
// progress bar are written to stderr.
func (cli *CLI) Execute(ctx context.Context, stderr io.Writer) error {
	// Check for verbose output
	logLevel := slog.LevelError
	if cli.Telemetry {
		logLevel = slog.LevelInfo
	}
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// setup telemetry hook
	telemetryToLog := func(ctx context.Context, td *unarchive.TelemetryData) {
		if cli.Telemetry {
			logger.InfoContext(ctx, "extraction finished", "telemetry", td.String())
		}
	}

	opts := []unarchive.ConfigOption{
		unarchive.WithDenySymlinkExtraction(cli.DenySymlinks),
		unarchive.WithLogger(logger),
		unarchive.WithMaxExtractionSize(cli.MaxExtractionSize),
		unarchive.WithMaxFiles(cli.MaxFiles),
		unarchive.WithOverwrite(cli.Overwrite),
		unarchive.WithStripRootDir(!cli.NoStripRoot),
		unarchive.WithTelemetryHook(telemetryToLog),
	}

	if len(cli.Format) > 0 {
		format, err := unarchive.ParseFormat(cli.Format)
		if err != nil {
			return errors.Wrap(err, "invalid --format")
		}
		opts = append(opts, unarchive.WithFormat(format))
	}

	if cli.Progress {
		opts = append(opts, unarchive.WithProgressReporter(
			unarchive.NewBarProgressReporter(stderr, fmt.Sprintf("Extracting %s", filepath.Base(cli.Archive))),
		))
	}

	ex := unarchive.NewExtractor(opts...)

	// a URL is only meaningful with the async path, which owns URL based detection
	if len(cli.URL) > 0 || cli.Async {
		async := unarchive.NewAsyncExtractor(ex)
		if len(cli.URL) > 0 {
			u, err := url.Parse(cli.URL)
			if err != nil {
				return errors.Wrap(err, "invalid --url")
			}
			return errors.Wrap(async.ExtractFromURL(ctx, cli.Archive, cli.Destination, u), "error during extraction")
		}
		return errors.Wrap(async.Extract(ctx, cli.Archive, cli.Destination), "error during extraction")
	}

	return errors.Wrap(ex.Extract(ctx, cli.Archive, cli.Destination), "error during extraction")
}
